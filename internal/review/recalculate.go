package review

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/BigO-Debbuger/RFP-IGNITE/internal/pricing"
	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/api"
)

// Recalculate reprices a case with reviewer overrides applied. Manual
// unit prices go through a per-call overlay so the shared price table is
// never mutated; an unknown approved SKU produces a warning, not an
// error.
func Recalculate(
	pricer *pricing.Engine,
	matchResult *api.MatchResult,
	scope []api.LineItem,
	testingRequirements []string,
	overrides []LineOverride,
	global GlobalOverrides,
) (*api.PricingResult, error) {
	overrideByLine := make(map[string]LineOverride, len(overrides))
	for _, o := range overrides {
		overrideByLine[o.LineID] = o
	}

	var warnings []string
	overlay := pricing.Overlay{}

	recommendations := make([]api.Recommendation, len(matchResult.Recommendations))
	copy(recommendations, matchResult.Recommendations)
	for i := range recommendations {
		o, ok := overrideByLine[recommendations[i].LineID]
		if !ok || o.ApprovedSKU == nil {
			continue
		}
		sku := *o.ApprovedSKU
		recommendations[i].BestSKU = &sku
		if !pricer.KnownSKU(sku) {
			warnings = append(warnings, fmt.Sprintf("Line %s: SKU %s not found in product price table", recommendations[i].LineID, sku))
		}
		if o.ManualUnitPrice != nil {
			overlay[sku] = *o.ManualUnitPrice
		}
	}

	result, err := pricer.Price(pricing.Request{
		RFPID:               matchResult.RFPID,
		Recommendations:     recommendations,
		ScopeOfSupply:       scope,
		TestingRequirements: testingRequirements,
		PriceOverrides:      overlay,
	})
	if err != nil {
		return nil, err
	}

	if global.MarginFraction != nil {
		mult := decimal.NewFromFloat(1 + *global.MarginFraction)
		for i := range result.LineItems {
			item := &result.LineItems[i]
			item.UnitPrice = item.UnitPrice.Mul(mult)
			item.MaterialTotal = item.UnitPrice.Mul(decimal.NewFromFloat(item.Quantity))
		}
		recomputeMaterialTotals(result)
	}

	if global.TaxFraction != nil {
		mult := decimal.NewFromFloat(1 + *global.TaxFraction)
		for i := range result.LineItems {
			item := &result.LineItems[i]
			item.MaterialTotal = item.MaterialTotal.Mul(mult)
		}
		recomputeMaterialTotals(result)
	}

	if len(global.TestExclusions) > 0 {
		excluded := make(map[string]struct{}, len(global.TestExclusions))
		for _, code := range global.TestExclusions {
			excluded[code] = struct{}{}
		}

		for i := range result.LineItems {
			item := &result.LineItems[i]
			kept := item.LineLevelTests[:0]
			total := decimal.Zero
			for _, t := range item.LineLevelTests {
				if _, skip := excluded[t.Code]; skip {
					continue
				}
				kept = append(kept, t)
				total = total.Add(t.Cost)
			}
			item.LineLevelTests = kept
			item.LineLevelTestsTotal = total
		}

		keptGlobal := result.GlobalTests[:0]
		for _, t := range result.GlobalTests {
			if _, skip := excluded[t.Code]; skip {
				continue
			}
			keptGlobal = append(keptGlobal, t)
		}
		result.GlobalTests = keptGlobal

		recomputeTestTotals(result)
	}

	result.Warnings = warnings
	return result, nil
}

func recomputeMaterialTotals(result *api.PricingResult) {
	total := decimal.Zero
	for _, item := range result.LineItems {
		total = total.Add(item.MaterialTotal)
	}
	result.Totals.MaterialTotal = total
	result.Totals.OverallTotal = total.Add(result.Totals.TestsTotal)
}

func recomputeTestTotals(result *api.PricingResult) {
	total := decimal.Zero
	for _, item := range result.LineItems {
		total = total.Add(item.LineLevelTestsTotal)
	}
	for _, t := range result.GlobalTests {
		total = total.Add(t.Cost)
	}
	result.Totals.TestsTotal = total
	result.Totals.OverallTotal = result.Totals.MaterialTotal.Add(total)
}
