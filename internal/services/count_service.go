package services

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"stock-count/internal/ledger"
	"stock-count/internal/metrics"
	"stock-count/internal/models"
	"stock-count/internal/session"
)

// ProductView is a canonical product with its counting state
type ProductView struct {
	models.Product
	Total    decimal.Decimal `json:"total"`
	Variance decimal.Decimal `json:"variance"`
	Counted  bool            `json:"counted"`
	Closed   bool            `json:"closed"`
}

// ProductDetail adds the entry lists and the session comparison
type ProductDetail struct {
	ProductView
	Entries    []models.CountEntry       `json:"entries"`
	History    []models.CountEntry       `json:"history"`
	Comparison *models.ProductComparison `json:"comparison,omitempty"`
}

// SessionsView is the current session, the archive and per-session totals
type SessionsView struct {
	Current  models.CountSession   `json:"current"`
	Archived []models.CountSession `json:"archived"`
	Totals   []models.SessionTotal `json:"totals"`
}

// RecordInput is one count as entered by the user
type RecordInput struct {
	ProductID string
	Count     decimal.Decimal
	Location  string
	Note      string
}

type CountService struct {
	Locations []string
	Events    EventPublisher
}

func NewCountService(locations []string, events EventPublisher) *CountService {
	return &CountService{
		Locations: locations,
		Events:    publisherOrNoop(events),
	}
}

// Record appends a count entry in the current session
func (s *CountService) Record(ctx context.Context, st *session.State, in RecordInput) (models.CountEntry, error) {
	if !st.HasTable() {
		return models.CountEntry{}, session.ErrNoTable
	}

	entry, err := st.Ledger.Record(in.ProductID, in.Count, in.Location, in.Note)
	if err != nil {
		return models.CountEntry{}, err
	}

	metrics.CountEntriesTotal.Inc()
	s.Events.Publish(newEvent(models.EventCount, st.ID, "Counted %s of %s at %s", entry.Count, entry.ProductID, entry.Location))
	return entry, nil
}

// StartSession archives the current counting session and opens a new one
func (s *CountService) StartSession(ctx context.Context, st *session.State, name string) (models.CountSession, error) {
	if !st.HasTable() {
		return models.CountSession{}, session.ErrNoTable
	}

	current := st.Ledger.StartNewSession(name)
	s.Events.Publish(newEvent(models.EventSession, st.ID, "Started %s", current.Name))
	return current, nil
}

// Sessions lists the counting sessions of the loaded table
func (s *CountService) Sessions(st *session.State) (*SessionsView, error) {
	if !st.HasTable() {
		return nil, session.ErrNoTable
	}
	return &SessionsView{
		Current:  st.Ledger.CurrentSession(),
		Archived: st.Ledger.Sessions(),
		Totals:   st.Ledger.SessionTotals(),
	}, nil
}

// Products lists every product with totals and completion flags
func (s *CountService) Products(st *session.State) ([]ProductView, error) {
	if !st.HasTable() {
		return nil, session.ErrNoTable
	}
	views := make([]ProductView, 0, st.Table.Len())
	for _, p := range st.Table.Products {
		views = append(views, view(st, p))
	}
	return views, nil
}

// Product returns one product with its entries and comparison
func (s *CountService) Product(st *session.State, productID string) (*ProductDetail, error) {
	if !st.HasTable() {
		return nil, session.ErrNoTable
	}
	p, ok := st.Table.Get(productID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownProduct, productID)
	}

	detail := &ProductDetail{
		ProductView: view(st, p),
		Entries:     st.Ledger.Entries(productID),
		History:     st.Ledger.History(productID),
	}
	if cmp, ok := st.Ledger.Compare(productID); ok {
		detail.Comparison = &cmp
	}
	return detail, nil
}

// SetClosed toggles the completion flag of a product
func (s *CountService) SetClosed(st *session.State, productID string, closed bool) error {
	return st.SetClosed(productID, closed)
}

// Summary reports counting progress over the loaded table
func (s *CountService) Summary(st *session.State) (*models.ReportSummary, error) {
	if !st.HasTable() {
		return nil, session.ErrNoTable
	}

	total := st.Table.Len()
	counted := 0
	for _, p := range st.Table.Products {
		if st.Ledger.HasEntries(p.ProductID) {
			counted++
		}
	}

	return &models.ReportSummary{
		TotalItems:    total,
		CountedItems:  counted,
		CompletionPct: completion(counted, total),
		ClosedItems:   st.ClosedCount(),
		SessionTotals: st.Ledger.SessionTotals(),
	}, nil
}

func view(st *session.State, p models.Product) ProductView {
	total := st.Ledger.TotalFor(p.ProductID)
	return ProductView{
		Product:  p,
		Total:    total,
		Variance: total.Sub(p.ExpectedCount),
		Counted:  st.Ledger.HasEntries(p.ProductID),
		Closed:   st.IsClosed(p.ProductID),
	}
}

// completion is counted/total as a percentage rounded to one decimal
func completion(counted, total int) float64 {
	if total == 0 {
		return 0
	}
	pct := float64(counted) / float64(total) * 100
	return math.Round(pct*10) / 10
}
