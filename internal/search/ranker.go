package search

import (
	"sort"
	"strings"

	"stock-count/internal/models"
)

// Result is a matching product with its score
type Result struct {
	Product models.Product `json:"product"`
	Score   int            `json:"score"`
	// Index is the product's position in the canonical table
	Index int `json:"index"`
}

// weights for one field group; zero disables a match mode
type weights struct {
	exact, prefix, substring, allWords, anyWord int
}

var (
	productIDWeights = weights{exact: 100, prefix: 90, substring: 80}
	extraWeights     = weights{exact: 70, prefix: 60, substring: 50, allWords: 45, anyWord: 40}
	combinedWeights  = weights{exact: 35, prefix: 30, substring: 25, allWords: 20}
	fieldWeights     = weights{exact: 15, prefix: 10, substring: 5}
)

type query struct {
	text  string
	words []string
}

func newQuery(raw string) query {
	text := strings.ToLower(strings.TrimSpace(raw))
	return query{text: text, words: strings.Fields(text)}
}

// score returns the weight of the first matching mode
func (q query) score(value string, w weights) int {
	v := strings.TrimSpace(strings.ToLower(value))
	switch {
	case v == q.text:
		return w.exact
	case strings.HasPrefix(v, q.text):
		return w.prefix
	case strings.Contains(v, q.text):
		return w.substring
	}
	if len(q.words) < 2 {
		return 0
	}
	if w.allWords > 0 && containsAll(v, q.words) {
		return w.allWords
	}
	if w.anyWord > 0 && containsAny(v, q.words) {
		return w.anyWord
	}
	return 0
}

// Rank scores every product against the query and returns the matches,
// highest score first. Ties keep table order.
func Rank(table *models.CanonicalTable, raw string) []Result {
	q := newQuery(raw)
	if q.text == "" || table == nil {
		return nil
	}

	var results []Result
	for i, p := range table.Products {
		if s := q.product(p); s > 0 {
			results = append(results, Result{Product: p, Score: s, Index: i})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// Score is the additive score of a single product
func Score(p models.Product, raw string) int {
	q := newQuery(raw)
	if q.text == "" {
		return 0
	}
	return q.product(p)
}

func (q query) product(p models.Product) int {
	// the product id group sets the base score
	total := q.score(p.ProductID, productIDWeights)

	for _, extra := range p.Extras {
		if strings.TrimSpace(extra) == "" {
			continue
		}
		total += q.score(extra, extraWeights)
	}

	total += q.score(p.BrandAndDescription, combinedWeights)

	for _, field := range []string{p.Brand, p.Description, p.ProductName} {
		total += q.score(field, fieldWeights)
	}
	return total
}

func containsAll(v string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(v, w) {
			return false
		}
	}
	return true
}

func containsAny(v string, words []string) bool {
	for _, w := range words {
		if strings.Contains(v, w) {
			return true
		}
	}
	return false
}
