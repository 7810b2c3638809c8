package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"stock-count/internal/metrics"
	"stock-count/internal/timeutil"
)

// Store maps session ids to their states and expires idle ones
type Store struct {
	mu     sync.Mutex
	states map[string]*State
	ttl    time.Duration
	now    func() time.Time

	onExpire []func(id string)
}

// Stats summarizes the states held in memory
type Stats struct {
	Sessions        int `json:"sessions"`
	LoadedTables    int `json:"loaded_tables"`
	Products        int `json:"products"`
	CountedProducts int `json:"counted_products"`
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		states: make(map[string]*State),
		ttl:    ttl,
		now:    timeutil.Now,
	}
}

// OnExpire registers a callback run for every state removed by Sweep or Delete
func (s *Store) OnExpire(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpire = append(s.onExpire, fn)
}

// Create starts an empty state under a fresh id
func (s *Store) Create() *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := newState(uuid.NewString(), s.now())
	s.states[st.ID] = st
	metrics.ActiveSessions.Set(float64(len(s.states)))
	return st
}

// Get returns a state and marks it as recently used
func (s *Store) Get(id string) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[id]
	if !ok {
		return nil, false
	}
	st.lastSeen = s.now()
	return st, true
}

// Delete tears a state down
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	_, ok := s.states[id]
	delete(s.states, id)
	metrics.ActiveSessions.Set(float64(len(s.states)))
	callbacks := s.onExpire
	s.mu.Unlock()

	if ok {
		for _, fn := range callbacks {
			fn(id)
		}
	}
	return ok
}

// Len is the number of live states
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// Sweep removes states idle for longer than the TTL
func (s *Store) Sweep() int {
	s.mu.Lock()
	cutoff := s.now().Add(-s.ttl)
	var expired []string
	for id, st := range s.states {
		if st.lastSeen.Before(cutoff) {
			expired = append(expired, id)
			delete(s.states, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.states)))
	callbacks := s.onExpire
	s.mu.Unlock()

	for _, id := range expired {
		for _, fn := range callbacks {
			fn(id)
		}
	}
	if len(expired) > 0 {
		log.Printf("[Session] expired %d idle sessions", len(expired))
	}
	return len(expired)
}

// StartSweeper runs Sweep on every tick until ctx is done
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-ctx.Done():
				log.Println("[Session] Stopping idle session sweeper...")
				return
			}
		}
	}()
}

// Stats reads every state under its own lock
func (s *Store) Stats() Stats {
	s.mu.Lock()
	states := make([]*State, 0, len(s.states))
	for _, st := range s.states {
		states = append(states, st)
	}
	s.mu.Unlock()

	stats := Stats{Sessions: len(states)}
	for _, st := range states {
		st.Lock()
		if st.HasTable() {
			stats.LoadedTables++
			stats.Products += st.Table.Len()
			stats.CountedProducts += len(st.Ledger.CountedProducts())
		}
		st.Unlock()
	}
	return stats
}
