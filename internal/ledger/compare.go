package ledger

import (
	"github.com/shopspring/decimal"

	"stock-count/internal/models"
)

// stableThreshold is the smallest change reported as a trend
const stableThreshold = 0.001

var hundred = decimal.NewFromInt(100)

// Compare reports how a product's total moved between its two most recent
// sessions. ok is false when the product was counted in fewer than two.
func (l *Ledger) Compare(productID string) (models.ProductComparison, bool) {
	groups := make(map[string]*models.SessionTotal)
	for _, e := range l.history[productID] {
		g, ok := groups[e.SessionID]
		if !ok {
			g = &models.SessionTotal{SessionID: e.SessionID, Name: e.SessionName}
			groups[e.SessionID] = g
		}
		g.Total = g.Total.Add(e.Count)
		g.EntryCount++
	}
	totals := l.orderTotals(groups)
	if len(totals) < 2 {
		return models.ProductComparison{}, false
	}

	current, previous := totals[0], totals[1]
	change := current.Total.Sub(previous.Total)

	cmp := models.ProductComparison{
		ProductID:       productID,
		CurrentSession:  current.Name,
		PreviousSession: previous.Name,
		CurrentTotal:    current.Total,
		PreviousTotal:   previous.Total,
		Change:          change,
	}
	if previous.Total.IsPositive() {
		cmp.PercentChange, _ = change.Div(previous.Total).Mul(hundred).Float64()
	}

	delta, _ := change.Abs().Float64()
	switch {
	case delta < stableThreshold:
		cmp.Trend = models.TrendStable
	case change.IsPositive():
		cmp.Trend = models.TrendUp
	default:
		cmp.Trend = models.TrendDown
	}
	return cmp, true
}
