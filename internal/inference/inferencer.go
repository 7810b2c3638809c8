package inference

import (
	"fmt"
	"strings"

	"stock-count/internal/models"
)

// Result is a successful inference
type Result struct {
	Table   *models.CanonicalTable
	Mapping models.ColumnMapping
	Report  SanitizeReport
	Notices []string
}

// columnPlan is the name→name mapping chosen for a raw table. -1 means absent.
type columnPlan struct {
	id, brand, description, location, count int
	combined                                int
	productName, brandAndDescription        int
	numericFallback                         bool
}

// Infer maps an arbitrary raw table onto the canonical product schema,
// sanitizes the count column and validates product id uniqueness.
func Infer(raw *RawTable) (*Result, error) {
	if raw == nil || len(raw.Rows) == 0 {
		return nil, ErrEmptyTable
	}

	plan := planColumns(raw)

	var missing []string
	if plan.description < 0 {
		missing = append(missing, "description or product name")
	}
	if plan.count < 0 {
		missing = append(missing, "expected count or quantity")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s. At minimum, please include columns for description/name and expected count.",
			ErrMissingColumns, strings.Join(missing, ", "))
	}

	var notices []string
	if plan.numericFallback {
		notices = append(notices, fmt.Sprintf("Using '%s' as the quantity column based on numeric content", raw.Columns[plan.count]))
	}
	if plan.combined >= 0 {
		notices = append(notices, fmt.Sprintf("Found '%s' column - splitting into brand and description components", raw.Columns[plan.combined]))
	}

	kept, counts, report, err := Sanitize(raw.Column(plan.count))
	if err != nil {
		return nil, err
	}
	notices = append(notices, report.Notices()...)

	extraCols := extraColumns(raw, plan)
	extraNames := make([]string, len(extraCols))
	for i, c := range extraCols {
		extraNames[i] = raw.Columns[c]
	}

	products := make([]models.Product, 0, len(kept))
	seen := make(map[string]struct{}, len(kept))
	for k, row := range kept {
		p := buildProduct(raw, plan, row)
		p.ExpectedCount = counts[k]
		p.RawRecord = raw.Rows[row].Record
		if len(extraCols) > 0 {
			p.Extras = make([]string, len(extraCols))
			for i, c := range extraCols {
				p.Extras[i] = raw.Cell(row, c)
			}
		}

		if _, dup := seen[p.ProductID]; dup {
			return nil, ErrDuplicateProductIDs
		}
		seen[p.ProductID] = struct{}{}
		products = append(products, p)
	}

	return &Result{
		Table:   models.NewCanonicalTable(products, extraNames),
		Mapping: plan.mapping(raw.Columns),
		Report:  report,
		Notices: notices,
	}, nil
}

func planColumns(raw *RawTable) columnPlan {
	cols := raw.Columns
	plan := columnPlan{
		id:                  findExact(cols, idCandidates),
		brand:               findExact(cols, brandCandidates),
		description:         findExact(cols, descriptionCandidates),
		location:            findExact(cols, locationCandidates),
		count:               findExact(cols, countCandidates),
		combined:            findCombined(cols),
		productName:         findExact(cols, []string{models.ColumnProductName}),
		brandAndDescription: findExact(cols, []string{models.ColumnBrandAndDescription}),
	}

	if plan.description < 0 {
		plan.description = findContaining(cols, descriptionFragments)
	}
	if plan.count < 0 {
		plan.count = findContaining(cols, countFragments)
		if plan.count < 0 {
			plan.count = findMostlyNumeric(raw)
			plan.numericFallback = plan.count >= 0
		}
	}
	if plan.combined >= 0 {
		plan.brand = plan.combined
		plan.description = plan.combined
	}
	return plan
}

func buildProduct(raw *RawTable, plan columnPlan, row int) models.Product {
	cell := func(col int) string {
		if col < 0 {
			return ""
		}
		return strings.TrimSpace(raw.Cell(row, col))
	}

	p := models.Product{
		ProductID: cell(plan.id),
		Location:  cell(plan.location),
	}
	if plan.id < 0 {
		p.ProductID = fmt.Sprintf("P%03d", row+1)
	}
	if plan.location < 0 {
		p.Location = models.UnknownValue
	}

	if plan.combined >= 0 {
		combined := raw.Cell(row, plan.combined)
		p.Brand, p.Description = SplitBrandDescription(combined)
		p.BrandAndDescription = combined
	} else {
		p.Description = cell(plan.description)
		p.Brand = models.UnknownValue
		if plan.brand >= 0 {
			p.Brand = cell(plan.brand)
		}
	}

	if plan.productName >= 0 && plan.productName != plan.description {
		p.ProductName = cell(plan.productName)
	} else {
		p.ProductName = p.Brand + " - " + p.Description
	}

	if p.BrandAndDescription == "" {
		if plan.brandAndDescription >= 0 {
			p.BrandAndDescription = cell(plan.brandAndDescription)
		} else {
			p.BrandAndDescription = p.Brand + " - " + p.Description
		}
	}
	return p
}

// SplitBrandDescription splits "Brand - Description" on the first dash.
// Values without a dash have an unknown brand.
func SplitBrandDescription(value string) (brand, description string) {
	before, after, found := strings.Cut(value, "-")
	if !found {
		return models.UnknownValue, value
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}

// extraColumns lists the blank-header columns not consumed by the mapping
func extraColumns(raw *RawTable, plan columnPlan) []int {
	used := map[int]bool{
		plan.id: true, plan.brand: true, plan.description: true,
		plan.location: true, plan.count: true, plan.combined: true,
	}
	var extras []int
	for i, name := range raw.Columns {
		if IsUnnamed(name) && !used[i] {
			extras = append(extras, i)
		}
	}
	return extras
}

func (p columnPlan) mapping(cols []string) models.ColumnMapping {
	name := func(i int) string {
		if i < 0 {
			return ""
		}
		return cols[i]
	}
	m := models.ColumnMapping{
		ProductID:     name(p.id),
		Brand:         name(p.brand),
		Description:   name(p.description),
		Location:      name(p.location),
		ExpectedCount: name(p.count),
	}
	if p.combined >= 0 {
		m.BrandAndDescription = name(p.combined)
	} else if p.brandAndDescription >= 0 {
		m.BrandAndDescription = name(p.brandAndDescription)
	}
	return m
}
