package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxCountExponent bounds the decimal exponent of any count. Values like
// 1e50000000 parse cheaply but expand to millions of digits when printed.
const MaxCountExponent = 28

// CountInRange reports whether d can be stored and rendered as a count
func CountInRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	return exp <= MaxCountExponent && exp >= -MaxCountExponent
}

// CountEntry is one append-only count recorded against a product
type CountEntry struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	Count       decimal.Decimal `json:"count"`
	Location    string          `json:"location"`
	Note        string          `json:"note,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	SessionID   string          `json:"session_id"`
	SessionName string          `json:"session_name"`
}

// CountSession is a named batch of counting activity
type CountSession struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Products  []string  `json:"products"`
}

// HasProduct reports whether the product was counted in this session
func (s *CountSession) HasProduct(productID string) bool {
	for _, p := range s.Products {
		if p == productID {
			return true
		}
	}
	return false
}

// SessionTotal aggregates historical entries for one session
type SessionTotal struct {
	SessionID  string          `json:"session_id"`
	Name       string          `json:"name"`
	Total      decimal.Decimal `json:"total"`
	EntryCount int             `json:"entry_count"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Trend directions for session comparisons
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// ProductComparison compares a product's two most recent sessions
type ProductComparison struct {
	ProductID       string          `json:"product_id"`
	CurrentSession  string          `json:"current_session"`
	PreviousSession string          `json:"previous_session"`
	CurrentTotal    decimal.Decimal `json:"current_total"`
	PreviousTotal   decimal.Decimal `json:"previous_total"`
	Change          decimal.Decimal `json:"change"`
	PercentChange   float64         `json:"percent_change"`
	Trend           Trend           `json:"trend"`
}
