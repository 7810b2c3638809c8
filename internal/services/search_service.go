package services

import (
	"strings"

	"stock-count/internal/search"
	"stock-count/internal/session"
)

type SearchService struct{}

func NewSearchService() *SearchService {
	return &SearchService{}
}

// Search ranks the loaded products and remembers non-empty queries
func (s *SearchService) Search(st *session.State, query string) ([]search.Result, error) {
	if !st.HasTable() {
		return nil, session.ErrNoTable
	}
	results := search.Rank(st.Table, query)
	if strings.TrimSpace(query) != "" {
		st.RememberSearch(query)
	}
	if results == nil {
		results = []search.Result{}
	}
	return results, nil
}

// Recent returns the recent queries, newest first
func (s *SearchService) Recent(st *session.State) []string {
	return st.RecentSearches()
}
