// Package ledger is the reporting side of the system: a flat per-trade
// ledger, buy/sell volumes and per-strategy PnL.
package ledger

import "github.com/shopspring/decimal"

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Trade is one ledger row. Quantity is in MWh, Price in EUR/MWh.
type Trade struct {
	ID       int64           `json:"id,omitempty"`
	Strategy string          `json:"strategy"`
	Side     Side            `json:"side"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Notional is quantity * price.
func (t Trade) Notional() decimal.Decimal { return t.Quantity.Mul(t.Price) }

// Volume holds total traded quantity per side.
type Volume struct {
	Buy  decimal.Decimal `json:"buy"`
	Sell decimal.Decimal `json:"sell"`
}

func BuyVolume(trades []Trade) decimal.Decimal  { return sideVolume(trades, SideBuy) }
func SellVolume(trades []Trade) decimal.Decimal { return sideVolume(trades, SideSell) }

func Volumes(trades []Trade) Volume {
	return Volume{Buy: BuyVolume(trades), Sell: SellVolume(trades)}
}

func sideVolume(trades []Trade, side Side) decimal.Decimal {
	total := decimal.Zero
	for _, t := range trades {
		if t.Side == side {
			total = total.Add(t.Quantity)
		}
	}
	return total
}

// ComputePnL returns sum(q*p) over sells minus sum(q*p) over buys for one
// strategy. Rows of other strategies and unknown sides are ignored; no
// matching rows give zero.
func ComputePnL(strategyID string, trades []Trade) decimal.Decimal {
	pnl := decimal.Zero
	for _, t := range trades {
		if t.Strategy != strategyID {
			continue
		}
		switch t.Side {
		case SideSell:
			pnl = pnl.Add(t.Notional())
		case SideBuy:
			pnl = pnl.Sub(t.Notional())
		}
	}
	return pnl
}

// Strategies lists distinct strategy ids in first-seen order.
func Strategies(trades []Trade) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range trades {
		if !seen[t.Strategy] {
			seen[t.Strategy] = true
			out = append(out, t.Strategy)
		}
	}
	return out
}
