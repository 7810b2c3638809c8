package inference

import "strings"

// Exact candidate names per canonical field, compared case-insensitively
var (
	idCandidates = []string{
		"product_id", "id", "item_id", "sku", "item_number", "item#", "product#",
		"barcode", "code", "item code", "product code", "article number",
	}
	brandCandidates = []string{
		"brand", "manufacturer", "supplier", "vendor", "make", "producer", "company",
		"label", "maker", "source", "Brand and Description", "Brand & Description",
	}
	descriptionCandidates = []string{
		"description", "product_description", "item_description", "details", "specs",
		"product_name", "name", "title", "item", "product", "desc", "article", "goods",
		"merchandise", "Brand and Description", "Brand & Description",
	}
	locationCandidates = []string{
		"location", "location_id", "loc", "warehouse", "shelf", "bin", "storage",
		"position", "area", "zone", "aisle", "section", "dept", "department", "store",
	}
	countCandidates = []string{
		"expected_count", "count", "quantity", "qty", "stock", "inventory", "on_hand",
		"amount", "units", "expected", "expected qty", "on hand qty", "stock level",
		"current stock", "stock count", "current count", "[E]Close SC",
		"quantity on hand", "par", "par level", "total", "balance", "volume", "number", "num",
	}
)

// Substring fallbacks, tried only when no exact match exists
var (
	descriptionFragments = []string{"desc", "name", "product", "item", "title", "article"}
	countFragments       = []string{
		"count", "qty", "quant", "stock", "amount", "unit", "invent", "par", "level", "number", "vol",
	}
)

// stray header values that can appear as the first data cell of the count column
var strayHeaderValues = []string{"PID", "QTY", "COUNT", "QUANTITY"}

const commentMarker = "do not delete"

// findExact returns the index of the first column whose name is a candidate
func findExact(columns, candidates []string) int {
	set := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		set[strings.ToLower(c)] = struct{}{}
	}
	for i, col := range columns {
		if _, ok := set[strings.ToLower(col)]; ok {
			return i
		}
	}
	return -1
}

// findContaining returns the index of the first column whose name contains a fragment
func findContaining(columns, fragments []string) int {
	for i, col := range columns {
		lower := strings.ToLower(col)
		for _, f := range fragments {
			if strings.Contains(lower, f) {
				return i
			}
		}
	}
	return -1
}

// findCombined returns the first "Brand & Description" style column
func findCombined(columns []string) int {
	for i, col := range columns {
		lower := strings.ToLower(col)
		if lower == "brand_and_description" {
			continue
		}
		if strings.Contains(lower, "brand") && strings.Contains(lower, "desc") {
			return i
		}
	}
	return -1
}

// findMostlyNumeric returns the first column where more than half the values are numeric
func findMostlyNumeric(t *RawTable) int {
	for i := range t.Columns {
		if NumericRatio(t.Column(i)) > 0.5 {
			return i
		}
	}
	return -1
}
