// Package pricing computes material and test costs for matched line
// items, applying test-frequency deduplication across three tiers.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/api"
	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/errors"
)

// Frequency is the scope over which a test cost is charged once.
type Frequency string

const (
	FreqPerLine     Frequency = "per_line"
	FreqPerCategory Frequency = "per_category"
	FreqPerRFP      Frequency = "per_rfp"
)

// testFrequency is the static tier assignment per test code.
var testFrequency = map[string]Frequency{
	"HT_TYPE_TEST_SUITE":           FreqPerCategory,
	"CC_TYPE_TEST_SUITE":           FreqPerCategory,
	"HT_ACCEPTANCE_TEST_SUITE":     FreqPerRFP,
	"CC_ACCEPTANCE_TEST_SUITE":     FreqPerRFP,
	"ROUTINE_TEST_PER_DRUM":        FreqPerLine,
	"SITE_PRE_DELIVERY_INSPECTION": FreqPerRFP,
	"CAT6_CERTIFICATION_TEST":      FreqPerCategory,
	"PTFE_WIRE_QUALIFICATION_TEST": FreqPerCategory,
}

// FrequencyFor returns the tier for code, defaulting to per_line.
func FrequencyFor(code string) Frequency {
	if f, ok := testFrequency[code]; ok {
		return f
	}
	return FreqPerLine
}

// Engine prices matched lines against the loaded reference tables.
type Engine struct {
	prices *PriceTable
	tests  *TestTable
}

// NewEngine creates a pricing engine over immutable reference tables.
func NewEngine(prices *PriceTable, tests *TestTable) *Engine {
	return &Engine{prices: prices, tests: tests}
}

// KnownSKU reports whether sku is in the base price table.
func (e *Engine) KnownSKU(sku string) bool {
	return e.prices.Has(sku)
}

// Request carries everything one pricing run needs. PriceOverrides is a
// per-call overlay; the base table is never mutated.
type Request struct {
	RFPID               string
	Recommendations     []api.Recommendation
	ScopeOfSupply       []api.LineItem
	TestingRequirements []string
	PriceOverrides      Overlay
}

// Price computes per-line material costs, line-scoped tests, and
// deduplicated global tests. A recommendation without a line_id is a
// caller contract violation.
func (e *Engine) Price(req Request) (*api.PricingResult, error) {
	scopeByLine := make(map[string]*api.LineItem, len(req.ScopeOfSupply))
	for i := range req.ScopeOfSupply {
		item := &req.ScopeOfSupply[i]
		if item.LineID == "" {
			return nil, errors.NewInvalidInputError(fmt.Sprintf("scope line %d has no line_id", i))
		}
		scopeByLine[item.LineID] = item
	}

	testingText := strings.ToLower(strings.Join(req.TestingRequirements, " "))

	result := &api.PricingResult{
		RFPID:       req.RFPID,
		LineItems:   make([]api.PricedLine, 0, len(req.Recommendations)),
		GlobalTests: []api.TestApplication{},
		Totals: api.PricingTotals{
			MaterialTotal: decimal.Zero,
			TestsTotal:    decimal.Zero,
			OverallTotal:  decimal.Zero,
		},
	}

	// Deduplication arena for this case: key is the code for per_rfp
	// tests and code::category for per_category tests. Append-only.
	applied := make(map[string]struct{})
	globalTestsTotal := decimal.Zero
	lineTestsTotal := decimal.Zero

	for _, rec := range req.Recommendations {
		if rec.LineID == "" {
			return nil, errors.NewInvalidInputError("recommendation has no line_id")
		}

		quantity := 0.0
		unit := ""
		category := rec.Category
		if scopeItem, ok := scopeByLine[rec.LineID]; ok {
			quantity = scopeItem.EffectiveQuantity()
			unit = scopeItem.Unit
			if category == "" {
				category = scopeItem.Category
			}
		}

		unitPrice := decimal.Zero
		if rec.BestSKU != nil {
			unitPrice = e.prices.UnitPrice(*rec.BestSKU, req.PriceOverrides)
		}
		materialTotal := unitPrice.Mul(decimal.NewFromFloat(quantity))

		detected := e.detectTests(category, testingText)

		lineTests := []api.TestApplication{}
		lineTotal := decimal.Zero
		for _, code := range detected {
			cost := e.tests.Cost(code)
			if !cost.IsPositive() {
				continue
			}
			def, _ := e.tests.Get(code)
			switch FrequencyFor(code) {
			case FreqPerLine:
				lineTests = append(lineTests, api.TestApplication{
					Code:        code,
					Description: def.Description,
					Cost:        cost,
				})
				lineTotal = lineTotal.Add(cost)
			case FreqPerRFP:
				if _, done := applied[code]; done {
					continue
				}
				applied[code] = struct{}{}
				result.GlobalTests = append(result.GlobalTests, api.TestApplication{
					Code:        code,
					Description: def.Description,
					Cost:        cost,
					AppliedFor:  "per_rfp",
				})
				globalTestsTotal = globalTestsTotal.Add(cost)
			case FreqPerCategory:
				key := code + "::" + category
				if _, done := applied[key]; done {
					continue
				}
				applied[key] = struct{}{}
				result.GlobalTests = append(result.GlobalTests, api.TestApplication{
					Code:        code,
					Description: def.Description,
					Cost:        cost,
					AppliedFor:  "per_category:" + category,
				})
				globalTestsTotal = globalTestsTotal.Add(cost)
			}
		}
		lineTestsTotal = lineTestsTotal.Add(lineTotal)

		result.LineItems = append(result.LineItems, api.PricedLine{
			LineID:              rec.LineID,
			Description:         rec.Description,
			Category:            category,
			BestSKU:             rec.BestSKU,
			Quantity:            quantity,
			Unit:                unit,
			UnitPrice:           unitPrice,
			MaterialTotal:       materialTotal,
			LineLevelTests:      lineTests,
			LineLevelTestsTotal: lineTotal,
		})
		result.Totals.MaterialTotal = result.Totals.MaterialTotal.Add(materialTotal)
	}

	result.Totals.TestsTotal = globalTestsTotal.Add(lineTestsTotal)
	result.Totals.OverallTotal = result.Totals.MaterialTotal.Add(result.Totals.TestsTotal)
	return result, nil
}

// detectTests returns the applicable test codes for one line, in fixed
// detection order, keeping only codes present in the test-price table.
func (e *Engine) detectTests(category, testingText string) []string {
	var codes []string
	add := func(code string) {
		if !e.tests.Has(code) {
			return
		}
		for _, c := range codes {
			if c == code {
				return
			}
		}
		codes = append(codes, code)
	}

	controlLike := category == "control_cable" || category == "multi_pair_cable"

	if strings.Contains(testingText, "type test") {
		if controlLike {
			add("CC_TYPE_TEST_SUITE")
		} else if category == "ht_power_cable" {
			add("HT_TYPE_TEST_SUITE")
		}
	}

	if strings.Contains(testingText, "acceptance test") {
		if controlLike {
			add("CC_ACCEPTANCE_TEST_SUITE")
		} else if category == "ht_power_cable" {
			add("HT_ACCEPTANCE_TEST_SUITE")
		}
	}

	if strings.Contains(testingText, "routine test") {
		add("ROUTINE_TEST_PER_DRUM")
	}

	if strings.Contains(testingText, "pre-delivery inspection") ||
		strings.Contains(testingText, "pre delivery inspection") ||
		strings.Contains(testingText, "inspection at vendor works") ||
		strings.Contains(testingText, "third party inspection") {
		add("SITE_PRE_DELIVERY_INSPECTION")
	}

	if category == "cat6_stp" {
		add("CAT6_CERTIFICATION_TEST")
	}

	if strings.Contains(testingText, "ptfe") || category == "ptfe_wire" {
		add("PTFE_WIRE_QUALIFICATION_TEST")
	}

	return codes
}
