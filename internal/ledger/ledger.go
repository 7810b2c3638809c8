package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stock-count/internal/models"
	"stock-count/internal/timeutil"
)

var (
	ErrUnknownProduct = errors.New("product not found in the loaded stock list")
	ErrNegativeCount  = errors.New("count cannot be negative")
	ErrCountRange     = errors.New("count is out of range")
)

// ProductLookup answers whether a product id exists in the loaded table
type ProductLookup interface {
	Has(productID string) bool
}

// Ledger is the append-only store of count entries for one user session.
// Entries are never edited or removed; corrections are new entries.
type Ledger struct {
	products ProductLookup
	now      func() time.Time

	live    map[string][]models.CountEntry
	history map[string][]models.CountEntry

	current  models.CountSession
	sessions []models.CountSession // archived, in creation order
	created  []models.CountSession // every session ever started, in creation order

	version uint64
}

// Option configures a Ledger
type Option func(*Ledger)

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a ledger bound to the loaded product table with a fresh current session
func New(products ProductLookup, opts ...Option) *Ledger {
	l := &Ledger{
		products: products,
		now:      timeutil.Now,
		live:     make(map[string][]models.CountEntry),
		history:  make(map[string][]models.CountEntry),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.current = l.newSession("")
	l.created = append(l.created, l.current)
	return l
}

// Record appends a count entry for a product in the current session
func (l *Ledger) Record(productID string, count decimal.Decimal, location, note string) (models.CountEntry, error) {
	if l.products == nil || !l.products.Has(productID) {
		return models.CountEntry{}, fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}
	if count.IsNegative() {
		return models.CountEntry{}, ErrNegativeCount
	}
	if !models.CountInRange(count) {
		return models.CountEntry{}, ErrCountRange
	}
	location = strings.TrimSpace(location)
	if location == "" {
		location = models.UnknownValue
	}

	entry := models.CountEntry{
		ID:          uuid.New().String(),
		ProductID:   productID,
		Count:       count,
		Location:    location,
		Note:        strings.TrimSpace(note),
		Timestamp:   l.now(),
		SessionID:   l.current.ID,
		SessionName: l.current.Name,
	}
	l.live[productID] = append(l.live[productID], entry)
	l.history[productID] = append(l.history[productID], entry)

	if !l.current.HasProduct(productID) {
		l.current.Products = append(l.current.Products, productID)
	}
	if i := l.archivedIndex(l.current.ID); i >= 0 {
		if !l.sessions[i].HasProduct(productID) {
			l.sessions[i].Products = append(l.sessions[i].Products, productID)
		}
	} else {
		l.sessions = append(l.sessions, copySession(l.current))
	}

	l.version++
	return entry, nil
}

// TotalFor sums every live entry of a product across all sessions
func (l *Ledger) TotalFor(productID string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.live[productID] {
		total = total.Add(e.Count)
	}
	return total
}

// HasEntries reports whether a product was ever counted
func (l *Ledger) HasEntries(productID string) bool {
	return len(l.live[productID]) > 0
}

// Entries returns the live entries of a product, oldest first
func (l *Ledger) Entries(productID string) []models.CountEntry {
	return append([]models.CountEntry(nil), l.live[productID]...)
}

// History returns the permanent per-product history, oldest first
func (l *Ledger) History(productID string) []models.CountEntry {
	return append([]models.CountEntry(nil), l.history[productID]...)
}

// CountedProducts lists products with at least one entry, sorted by id
func (l *Ledger) CountedProducts() []string {
	ids := make([]string, 0, len(l.live))
	for id, entries := range l.live {
		if len(entries) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// SessionTotals groups the historical entries by session, newest first
func (l *Ledger) SessionTotals() []models.SessionTotal {
	groups := make(map[string]*models.SessionTotal)
	for _, entries := range l.history {
		for _, e := range entries {
			g, ok := groups[e.SessionID]
			if !ok {
				g = &models.SessionTotal{SessionID: e.SessionID, Name: e.SessionName, Total: decimal.Zero}
				groups[e.SessionID] = g
			}
			g.Total = g.Total.Add(e.Count)
			g.EntryCount++
		}
	}
	return l.orderTotals(groups)
}

// orderTotals sorts groups newest first using session creation times.
// Sessions created in the same instant keep the later-created one first.
func (l *Ledger) orderTotals(groups map[string]*models.SessionTotal) []models.SessionTotal {
	totals := make([]models.SessionTotal, 0, len(groups))
	for i := len(l.created) - 1; i >= 0; i-- {
		s := l.created[i]
		if g, ok := groups[s.ID]; ok {
			g.Timestamp = s.CreatedAt
			totals = append(totals, *g)
		}
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Timestamp.After(totals[j].Timestamp)
	})
	return totals
}

// StartNewSession archives the current session if it has activity and
// replaces it with a fresh one
func (l *Ledger) StartNewSession(name string) models.CountSession {
	if len(l.current.Products) > 0 && l.archivedIndex(l.current.ID) < 0 {
		l.sessions = append(l.sessions, copySession(l.current))
	}
	l.current = l.newSession(name)
	l.created = append(l.created, l.current)
	l.version++
	return copySession(l.current)
}

// CurrentSession returns a copy of the current session
func (l *Ledger) CurrentSession() models.CountSession {
	return copySession(l.current)
}

// Sessions returns the archived sessions, newest first
func (l *Ledger) Sessions() []models.CountSession {
	out := make([]models.CountSession, 0, len(l.sessions))
	for i := len(l.sessions) - 1; i >= 0; i-- {
		out = append(out, copySession(l.sessions[i]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Version increases on every write
func (l *Ledger) Version() uint64 {
	return l.version
}

func (l *Ledger) newSession(name string) models.CountSession {
	now := l.now()
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Count Session " + timeutil.Format(now, timeutil.SessionNameLayout)
	}
	return models.CountSession{
		ID:        l.uniqueID(timeutil.Format(now, timeutil.SessionIDLayout)),
		Name:      name,
		CreatedAt: now,
		Products:  []string{},
	}
}

func (l *Ledger) uniqueID(base string) string {
	id := base
	for n := 2; l.idTaken(id); n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	return id
}

func (l *Ledger) idTaken(id string) bool {
	for _, s := range l.created {
		if s.ID == id {
			return true
		}
	}
	return false
}

func (l *Ledger) archivedIndex(id string) int {
	for i, s := range l.sessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func copySession(s models.CountSession) models.CountSession {
	s.Products = append([]string{}, s.Products...)
	return s
}
