package models

import "github.com/shopspring/decimal"

// Canonical column names produced by schema inference
const (
	ColumnProductID           = "product_id"
	ColumnBrand               = "brand"
	ColumnDescription         = "description"
	ColumnLocation            = "location"
	ColumnExpectedCount       = "expected_count"
	ColumnProductName         = "product_name"
	ColumnBrandAndDescription = "brand_and_description"
)

// UnknownValue fills brand and location when the source has no such column
const UnknownValue = "Unknown"

// Product is one canonical row of an imported stock list
type Product struct {
	ProductID           string          `json:"product_id" csv:"product_id"`
	Brand               string          `json:"brand" csv:"brand"`
	Description         string          `json:"description" csv:"description"`
	Location            string          `json:"location" csv:"location"`
	ExpectedCount       decimal.Decimal `json:"expected_count" csv:"expected_count"`
	ProductName         string          `json:"product_name" csv:"product_name"`
	BrandAndDescription string          `json:"brand_and_description" csv:"brand_and_description"`

	// RawRecord is the 0-based record index of this row in the uploaded file.
	RawRecord int `json:"raw_record" csv:"-"`

	// Extras holds values of blank-header source columns, aligned with
	// CanonicalTable.ExtraColumns.
	Extras []string `json:"extras,omitempty" csv:"-"`
}

// CanonicalTable is the post-inference table
type CanonicalTable struct {
	Products     []Product `json:"products"`
	ExtraColumns []string  `json:"extra_columns,omitempty"`

	byID     map[string]int
	byRecord map[int]int
}

// NewCanonicalTable indexes products by id and by raw record
func NewCanonicalTable(products []Product, extraColumns []string) *CanonicalTable {
	t := &CanonicalTable{
		Products:     products,
		ExtraColumns: extraColumns,
		byID:         make(map[string]int, len(products)),
		byRecord:     make(map[int]int, len(products)),
	}
	for i, p := range products {
		if _, exists := t.byID[p.ProductID]; !exists {
			t.byID[p.ProductID] = i
		}
		t.byRecord[p.RawRecord] = i
	}
	return t
}

// Len returns the number of products
func (t *CanonicalTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Products)
}

// Has reports whether a product id exists in the table
func (t *CanonicalTable) Has(productID string) bool {
	if t == nil {
		return false
	}
	_, ok := t.byID[productID]
	return ok
}

// Get returns the product with the given id
func (t *CanonicalTable) Get(productID string) (Product, bool) {
	if t == nil {
		return Product{}, false
	}
	i, ok := t.byID[productID]
	if !ok {
		return Product{}, false
	}
	return t.Products[i], true
}

// ByRawRecord resolves the product that was parsed from the given raw record
func (t *CanonicalTable) ByRawRecord(record int) (Product, bool) {
	if t == nil {
		return Product{}, false
	}
	i, ok := t.byRecord[record]
	if !ok {
		return Product{}, false
	}
	return t.Products[i], true
}
