package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoCandidate marks a day without a positive-price hour to sell in. It is a
// soft condition: the day is reported as NO_TRADE with this as its reason.
var ErrNoCandidate = errors.New("no positive-price hour")

// ParseError is a malformed timestamp or numeric cell. The row is dropped.
type ParseError struct {
	Row    int // 1-based data row, header excluded
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: parse %s %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingFeatureError is a scored row lacking one of the predictor columns.
type MissingFeatureError struct {
	Row       int
	Timestamp time.Time
	Feature   string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("row %d (%s): missing feature %s", e.Row, e.Timestamp.Format(time.RFC3339), e.Feature)
}

// SingularMatrixError is a rank-deficient design matrix in a linear fit.
// From/To are filled in by callers that know the fitted time range.
type SingularMatrixError struct {
	Features []string
	Rows     int
	Cond     float64
	From, To time.Time
}

func (e *SingularMatrixError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "singular design matrix (cond=%.3g, rows=%d, features=[%s])",
		e.Cond, e.Rows, strings.Join(e.Features, ", "))
	if !e.From.IsZero() {
		fmt.Fprintf(&b, " over %s..%s", e.From.Format(time.RFC3339), e.To.Format(time.RFC3339))
	}
	return b.String()
}
