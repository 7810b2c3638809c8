package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"stock-count/internal/ledger"
	"stock-count/internal/models"
)

// MaxRecentSearches bounds the recent search list
const MaxRecentSearches = 10

var ErrNoTable = errors.New("no stock list has been imported yet")

// State is everything one browser has loaded and counted. The zero value
// is not usable; states come from Store.Create.
//
// Callers hold the state lock for the whole of an action; the session
// middleware does this per request.
type State struct {
	mu sync.Mutex

	ID        string
	CreatedAt time.Time

	Filename  string
	Raw       []byte
	Delimiter rune
	Table     *models.CanonicalTable
	Ledger    *ledger.Ledger
	Import    *models.ImportSummary

	closed map[string]bool
	recent []string

	// guarded by the owning store's lock
	lastSeen time.Time
}

func newState(id string, now time.Time) *State {
	return &State{
		ID:        id,
		CreatedAt: now,
		closed:    make(map[string]bool),
		lastSeen:  now,
	}
}

// Lock serializes actions on this state
func (s *State) Lock() { s.mu.Lock() }

// Unlock releases the state lock
func (s *State) Unlock() { s.mu.Unlock() }

// Load replaces the stock list. Counts, completion flags and recent
// searches of a previous upload are discarded.
func (s *State) Load(filename string, raw []byte, delimiter rune, table *models.CanonicalTable, summary *models.ImportSummary, opts ...ledger.Option) {
	s.Filename = filename
	s.Raw = raw
	s.Delimiter = delimiter
	s.Table = table
	s.Import = summary
	s.Ledger = ledger.New(table, opts...)
	s.closed = make(map[string]bool)
	s.recent = nil
}

// HasTable reports whether a stock list is loaded
func (s *State) HasTable() bool {
	return s.Table != nil && s.Ledger != nil
}

// Reset drops everything loaded into the state
func (s *State) Reset() {
	s.Filename = ""
	s.Raw = nil
	s.Delimiter = 0
	s.Table = nil
	s.Ledger = nil
	s.Import = nil
	s.closed = make(map[string]bool)
	s.recent = nil
}

// SetClosed marks a product as finished or reopens it
func (s *State) SetClosed(productID string, closed bool) error {
	if !s.HasTable() {
		return ErrNoTable
	}
	if !s.Table.Has(productID) {
		return fmt.Errorf("%w: %s", ledger.ErrUnknownProduct, productID)
	}
	if closed {
		s.closed[productID] = true
	} else {
		delete(s.closed, productID)
	}
	return nil
}

// IsClosed reports the completion flag of a product
func (s *State) IsClosed(productID string) bool {
	return s.closed[productID]
}

// ClosedCount is the number of products marked closed
func (s *State) ClosedCount() int {
	return len(s.closed)
}

// RememberSearch puts a query at the front of the recent list
func (s *State) RememberSearch(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}
	recent := make([]string, 0, MaxRecentSearches)
	recent = append(recent, query)
	for _, q := range s.recent {
		if q != query && len(recent) < MaxRecentSearches {
			recent = append(recent, q)
		}
	}
	s.recent = recent
}

// RecentSearches returns recent queries, newest first
func (s *State) RecentSearches() []string {
	return append([]string{}, s.recent...)
}
