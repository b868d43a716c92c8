package backtest

import (
	"fmt"
	"testing"
	"time"

	"energy-backtest/internal/forecast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCache_GetSet(t *testing.T) {
	c := NewResultCache(time.Hour, 4)
	r := &Result{Model: forecast.ModelLinear}

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", r)
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Same(t, r, got)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestResultCache_Expiry(t *testing.T) {
	c := NewResultCache(time.Millisecond, 4)
	c.Set("a", &Result{})
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)

	// Expired entries are dropped on the next write.
	c.Set("b", &Result{})
	assert.Equal(t, 1, c.Len())
}

func TestResultCache_EvictsOldest(t *testing.T) {
	c := NewResultCache(time.Hour, 3)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), &Result{})
	}
	assert.Equal(t, 3, c.Len())

	for _, k := range []string{"k0", "k1"} {
		_, ok := c.Get(k)
		assert.False(t, ok, k)
	}
	for _, k := range []string{"k2", "k3", "k4"} {
		_, ok := c.Get(k)
		assert.True(t, ok, k)
	}
}

func TestResultCache_Nil(t *testing.T) {
	var c *ResultCache
	c.Set("a", &Result{})
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	c.Clear()
}

func TestRunKey(t *testing.T) {
	base := RunConfig{
		Model:         forecast.ModelForest,
		TargetShift:   96,
		TrainFraction: 0.8,
		SplitSeed:     42,
		Forest:        forecast.DefaultForestParams(),
	}

	parallel := base
	parallel.Forest.Workers = 8
	assert.Equal(t, RunKey(base), RunKey(parallel))

	other := base
	other.Model = forecast.ModelLinear
	assert.NotEqual(t, RunKey(base), RunKey(other))

	shifted := base
	shifted.TargetShift = 4
	assert.NotEqual(t, RunKey(base), RunKey(shifted))

	reseeded := base
	reseeded.Forest.Seed = 7
	assert.NotEqual(t, RunKey(base), RunKey(reseeded))

	assert.Len(t, RunKey(base), 64)
}
