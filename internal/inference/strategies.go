package inference

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"strings"
)

// Strategy is one way of turning uploaded bytes into a RawTable
type Strategy struct {
	Name      string
	Delimiter rune
	Parse     func(data []byte) (*RawTable, rune, error)
}

// Attempt records why a strategy was passed over
type Attempt struct {
	Strategy string `json:"strategy"`
	Reason   string `json:"reason"`
}

// LoadResult is the first strategy that produced a usable table
type LoadResult struct {
	Table     *RawTable
	Strategy  string
	Delimiter rune
	Attempts  []Attempt
}

// AlternateDelimiters are tried in order with a standard header row
var AlternateDelimiters = []rune{',', ';', '\t', '|'}

// sniffCandidates are considered by automatic delimiter detection
var sniffCandidates = []rune{',', ';', '\t', '|', ':'}

const sniffLines = 10

// DefaultStrategies returns the import strategies in priority order
func DefaultStrategies() []Strategy {
	strategies := []Strategy{
		headerStrategy("standard", ',', 0, 1, nil),
		headerStrategy("header-row-2", ',', 1, 2, map[int]bool{2: true}),
		noHeaderStrategy("no-header", ','),
	}
	for _, d := range AlternateDelimiters {
		strategies = append(strategies, headerStrategy("delimiter "+DelimiterName(d), d, 0, 1, nil))
	}
	strategies = append(strategies, Strategy{
		Name: "auto-detect",
		Parse: func(data []byte) (*RawTable, rune, error) {
			d, ok := SniffDelimiter(data)
			if !ok {
				return nil, 0, fmt.Errorf("no consistent delimiter found")
			}
			records, err := ReadRecords(data, d)
			if err != nil {
				return nil, d, err
			}
			return buildTable(records, 0, 1, nil), d, nil
		},
	})
	return strategies
}

func headerStrategy(name string, comma rune, headerAt, dataFrom int, skip map[int]bool) Strategy {
	return Strategy{
		Name:      name,
		Delimiter: comma,
		Parse: func(data []byte) (*RawTable, rune, error) {
			records, err := ReadRecords(data, comma)
			if err != nil {
				return nil, comma, err
			}
			if len(records) <= headerAt {
				return nil, comma, fmt.Errorf("no header at record %d", headerAt)
			}
			return buildTable(records, headerAt, dataFrom, skip), comma, nil
		},
	}
}

func noHeaderStrategy(name string, comma rune) Strategy {
	return Strategy{
		Name:      name,
		Delimiter: comma,
		Parse: func(data []byte) (*RawTable, rune, error) {
			records, err := ReadRecords(data, comma)
			if err != nil {
				return nil, comma, err
			}
			return buildTable(records, -1, 0, nil), comma, nil
		},
	}
}

// Load runs the strategies in order and returns the first usable table.
// A table is usable when it has at least one data row and two columns.
func Load(data []byte, strategies []Strategy) (*LoadResult, error) {
	result := &LoadResult{}
	for _, s := range strategies {
		table, delim, err := s.Parse(data)
		if err == nil {
			err = usable(table)
		}
		if err != nil {
			log.Printf("[Import] strategy %s failed: %v", s.Name, err)
			result.Attempts = append(result.Attempts, Attempt{Strategy: s.Name, Reason: err.Error()})
			continue
		}
		result.Table = table
		result.Strategy = s.Name
		result.Delimiter = delim
		return result, nil
	}
	return result, ErrUnparseable
}

func usable(t *RawTable) error {
	switch {
	case t == nil:
		return fmt.Errorf("no table")
	case len(t.Rows) == 0:
		return fmt.Errorf("no data rows")
	case len(t.Columns) < 2:
		return fmt.Errorf("only %d column", len(t.Columns))
	}
	return nil
}

// SniffDelimiter picks the candidate that appears the same non-zero number
// of times on each of the first lines. Without a consistent candidate the
// most frequent one wins.
func SniffDelimiter(data []byte) (rune, bool) {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(StripBOM(data)))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() && len(lines) < sniffLines {
		if line := strings.TrimRight(sc.Text(), "\r"); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return 0, false
	}

	var best rune
	bestCount, bestConsistent := 0, false
	for _, c := range sniffCandidates {
		first := strings.Count(lines[0], string(c))
		total, consistent := 0, first > 0
		for _, line := range lines {
			n := strings.Count(line, string(c))
			total += n
			if n != first {
				consistent = false
			}
		}
		if total == 0 {
			continue
		}
		better := false
		switch {
		case consistent && !bestConsistent:
			better = true
		case consistent == bestConsistent && total > bestCount:
			better = true
		}
		if better {
			best, bestCount, bestConsistent = c, total, consistent
		}
	}
	return best, bestCount > 0
}

// DelimiterName is a printable name for a delimiter rune
func DelimiterName(d rune) string {
	switch d {
	case '\t':
		return "tab"
	case 0:
		return ""
	default:
		return string(d)
	}
}
