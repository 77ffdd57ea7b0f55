package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/api"
)

// PriceTable maps SKU to unit price. It is loaded once and never
// mutated; per-call substitutions go through an Overlay merged at
// lookup time.
type PriceTable struct {
	prices map[string]decimal.Decimal
}

// NewPriceTable builds an immutable price table.
func NewPriceTable(prices map[string]decimal.Decimal) *PriceTable {
	copied := make(map[string]decimal.Decimal, len(prices))
	for sku, p := range prices {
		copied[sku] = p
	}
	return &PriceTable{prices: copied}
}

// UnitPrice returns the price for sku, consulting the overlay first.
// Unknown SKUs price at zero: a data gap, not a fault.
func (t *PriceTable) UnitPrice(sku string, overlay Overlay) decimal.Decimal {
	if overlay != nil {
		if p, ok := overlay[sku]; ok {
			return p
		}
	}
	if p, ok := t.prices[sku]; ok {
		return p
	}
	return decimal.Zero
}

// Has reports whether sku is in the base table (overlays not consulted).
func (t *PriceTable) Has(sku string) bool {
	_, ok := t.prices[sku]
	return ok
}

// Overlay is a per-call price substitution map. It shadows the base
// table without touching it, so concurrent cases cannot observe each
// other's overrides.
type Overlay map[string]decimal.Decimal

// TestTable maps test code to its definition. Immutable reference data.
type TestTable struct {
	byCode map[string]api.TestDefinition
}

// NewTestTable builds an immutable test-price table.
func NewTestTable(tests []api.TestDefinition) *TestTable {
	byCode := make(map[string]api.TestDefinition, len(tests))
	for _, t := range tests {
		byCode[t.Code] = t
	}
	return &TestTable{byCode: byCode}
}

// Get returns the definition for code.
func (t *TestTable) Get(code string) (api.TestDefinition, bool) {
	def, ok := t.byCode[code]
	return def, ok
}

// Has reports whether code is a known test.
func (t *TestTable) Has(code string) bool {
	_, ok := t.byCode[code]
	return ok
}

// Cost returns the applicable cost for code: the first present of
// price_per_rfp, price_per_category, price_per_batch, price_per_drum,
// price_per_visit. A test with no price field costs zero and is never
// applied.
func (t *TestTable) Cost(code string) decimal.Decimal {
	def, ok := t.byCode[code]
	if !ok {
		return decimal.Zero
	}
	for _, p := range []*decimal.Decimal{
		def.PricePerRFP,
		def.PricePerCategory,
		def.PricePerBatch,
		def.PricePerDrum,
		def.PricePerVisit,
	} {
		if p != nil {
			return *p
		}
	}
	return decimal.Zero
}
