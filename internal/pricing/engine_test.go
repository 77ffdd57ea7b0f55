package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/api"
)

func strp(s string) *string { return &s }
func fp(v float64) *float64 { return &v }

func testEngine() *Engine {
	prices := NewPriceTable(map[string]decimal.Decimal{
		"HT-3C-185": dec("2500"),
		"HT-3C-95":  dec("1400"),
		"CC-12C":    dec("320"),
	})
	tests := NewTestTable([]api.TestDefinition{
		{Code: "HT_TYPE_TEST_SUITE", Description: "HT type test suite", PricePerCategory: decp("150000")},
		{Code: "CC_TYPE_TEST_SUITE", Description: "Control cable type test suite", PricePerCategory: decp("60000")},
		{Code: "HT_ACCEPTANCE_TEST_SUITE", Description: "HT acceptance tests", PricePerRFP: decp("45000")},
		{Code: "ROUTINE_TEST_PER_DRUM", Description: "Routine test per drum", PricePerDrum: decp("2000")},
		{Code: "SITE_PRE_DELIVERY_INSPECTION", Description: "Pre-delivery inspection", PricePerVisit: decp("30000")},
		{Code: "FREE_TEST", Description: "Unpriced test"},
	})
	return NewEngine(prices, tests)
}

func htLine(lineID string, qty float64) (api.LineItem, api.Recommendation) {
	item := api.LineItem{
		LineID:      lineID,
		Description: "11kV 3 Core x 185 sqmm cable",
		Category:    "ht_power_cable",
		Quantity:    fp(qty),
		Unit:        "m",
	}
	rec := api.Recommendation{
		LineID:      lineID,
		Description: item.Description,
		Category:    item.Category,
		BestSKU:     strp("HT-3C-185"),
	}
	return item, rec
}

func TestPriceMaterialTotals(t *testing.T) {
	item, rec := htLine("L1", 1200)
	result, err := testEngine().Price(Request{
		RFPID:           "RFP-1",
		Recommendations: []api.Recommendation{rec},
		ScopeOfSupply:   []api.LineItem{item},
	})
	require.NoError(t, err)

	require.Len(t, result.LineItems, 1)
	line := result.LineItems[0]
	assert.True(t, dec("2500").Equal(line.UnitPrice))
	assert.True(t, dec("3000000").Equal(line.MaterialTotal), line.MaterialTotal.String())
	assert.True(t, result.Totals.MaterialTotal.Equal(line.MaterialTotal))
	assert.True(t, result.Totals.OverallTotal.Equal(
		result.Totals.MaterialTotal.Add(result.Totals.TestsTotal)))
}

func TestPricePerCategoryDeduplication(t *testing.T) {
	item1, rec1 := htLine("L1", 100)
	item2, rec2 := htLine("L2", 200)
	result, err := testEngine().Price(Request{
		RFPID:               "RFP-1",
		Recommendations:     []api.Recommendation{rec1, rec2},
		ScopeOfSupply:       []api.LineItem{item1, item2},
		TestingRequirements: []string{"Type test reports required for all HT cables"},
	})
	require.NoError(t, err)

	// Two lines in the same category trigger the type test suite once.
	require.Len(t, result.GlobalTests, 1)
	applied := result.GlobalTests[0]
	assert.Equal(t, "HT_TYPE_TEST_SUITE", applied.Code)
	assert.Equal(t, "per_category:ht_power_cable", applied.AppliedFor)
	assert.True(t, dec("150000").Equal(applied.Cost))
	assert.True(t, dec("150000").Equal(result.Totals.TestsTotal))
}

func TestPricePerLineRepetition(t *testing.T) {
	item1, rec1 := htLine("L1", 100)
	item2, rec2 := htLine("L2", 100)
	item3, rec3 := htLine("L3", 100)
	result, err := testEngine().Price(Request{
		RFPID:               "RFP-1",
		Recommendations:     []api.Recommendation{rec1, rec2, rec3},
		ScopeOfSupply:       []api.LineItem{item1, item2, item3},
		TestingRequirements: []string{"Routine tests on every drum"},
	})
	require.NoError(t, err)

	// Routine tests attach to every line, never deduplicated.
	total := decimal.Zero
	for _, line := range result.LineItems {
		require.Len(t, line.LineLevelTests, 1)
		assert.Equal(t, "ROUTINE_TEST_PER_DRUM", line.LineLevelTests[0].Code)
		total = total.Add(line.LineLevelTestsTotal)
	}
	assert.True(t, dec("6000").Equal(total))
	assert.True(t, dec("6000").Equal(result.Totals.TestsTotal))
	assert.Empty(t, result.GlobalTests)
}

func TestPricePerRFPDeduplication(t *testing.T) {
	item1, rec1 := htLine("L1", 100)
	item2, rec2 := htLine("L2", 100)
	result, err := testEngine().Price(Request{
		RFPID:               "RFP-1",
		Recommendations:     []api.Recommendation{rec1, rec2},
		ScopeOfSupply:       []api.LineItem{item1, item2},
		TestingRequirements: []string{"Acceptance tests witnessed by buyer", "Third party inspection"},
	})
	require.NoError(t, err)

	require.Len(t, result.GlobalTests, 2)
	codes := []string{result.GlobalTests[0].Code, result.GlobalTests[1].Code}
	assert.ElementsMatch(t, []string{"HT_ACCEPTANCE_TEST_SUITE", "SITE_PRE_DELIVERY_INSPECTION"}, codes)
	for _, gt := range result.GlobalTests {
		assert.Equal(t, "per_rfp", gt.AppliedFor)
	}
}

func TestPriceMixedCategoriesSeparateTypeTests(t *testing.T) {
	htItem, htRec := htLine("L1", 100)
	ccItem := api.LineItem{
		LineID: "L2", Description: "12 core control cable", Category: "control_cable",
		Quantity: fp(500), Unit: "m",
	}
	ccRec := api.Recommendation{
		LineID: "L2", Description: ccItem.Description, Category: "control_cable",
		BestSKU: strp("CC-12C"),
	}
	result, err := testEngine().Price(Request{
		RFPID:               "RFP-1",
		Recommendations:     []api.Recommendation{htRec, ccRec},
		ScopeOfSupply:       []api.LineItem{htItem, ccItem},
		TestingRequirements: []string{"Type tests for all cable categories"},
	})
	require.NoError(t, err)

	require.Len(t, result.GlobalTests, 2)
	byCode := map[string]api.TestApplication{}
	for _, gt := range result.GlobalTests {
		byCode[gt.Code] = gt
	}
	assert.Equal(t, "per_category:ht_power_cable", byCode["HT_TYPE_TEST_SUITE"].AppliedFor)
	assert.Equal(t, "per_category:control_cable", byCode["CC_TYPE_TEST_SUITE"].AppliedFor)
}

func TestPriceUnknownSKUPricesZero(t *testing.T) {
	item, rec := htLine("L1", 100)
	rec.BestSKU = strp("NOT-IN-TABLE")
	result, err := testEngine().Price(Request{
		RFPID:           "RFP-1",
		Recommendations: []api.Recommendation{rec},
		ScopeOfSupply:   []api.LineItem{item},
	})
	require.NoError(t, err)
	assert.True(t, decimal.Zero.Equal(result.LineItems[0].UnitPrice))
	assert.True(t, decimal.Zero.Equal(result.Totals.MaterialTotal))
}

func TestPriceNoBestSKU(t *testing.T) {
	item, rec := htLine("L1", 100)
	rec.BestSKU = nil
	result, err := testEngine().Price(Request{
		RFPID:           "RFP-1",
		Recommendations: []api.Recommendation{rec},
		ScopeOfSupply:   []api.LineItem{item},
	})
	require.NoError(t, err)
	assert.True(t, decimal.Zero.Equal(result.LineItems[0].MaterialTotal))
}

func TestPriceOverlayOverridesUnitPrice(t *testing.T) {
	item, rec := htLine("L1", 10)
	engine := testEngine()
	result, err := engine.Price(Request{
		RFPID:           "RFP-1",
		Recommendations: []api.Recommendation{rec},
		ScopeOfSupply:   []api.LineItem{item},
		PriceOverrides:  Overlay{"HT-3C-185": dec("2000")},
	})
	require.NoError(t, err)
	assert.True(t, dec("20000").Equal(result.LineItems[0].MaterialTotal))

	// A later run without the overlay sees the base price again.
	result, err = engine.Price(Request{
		RFPID:           "RFP-1",
		Recommendations: []api.Recommendation{rec},
		ScopeOfSupply:   []api.LineItem{item},
	})
	require.NoError(t, err)
	assert.True(t, dec("25000").Equal(result.LineItems[0].MaterialTotal))
}

func TestPriceUnpricedTestNeverApplied(t *testing.T) {
	prices := NewPriceTable(nil)
	tests := NewTestTable([]api.TestDefinition{
		{Code: "ROUTINE_TEST_PER_DRUM", Description: "Routine test"},
	})
	item, rec := htLine("L1", 100)
	result, err := NewEngine(prices, tests).Price(Request{
		RFPID:               "RFP-1",
		Recommendations:     []api.Recommendation{rec},
		ScopeOfSupply:       []api.LineItem{item},
		TestingRequirements: []string{"routine test on every drum"},
	})
	require.NoError(t, err)
	assert.Empty(t, result.LineItems[0].LineLevelTests)
	assert.True(t, decimal.Zero.Equal(result.Totals.TestsTotal))
}

func TestPriceMissingLineIDFails(t *testing.T) {
	_, err := testEngine().Price(Request{
		RFPID:         "RFP-1",
		ScopeOfSupply: []api.LineItem{{Description: "no id"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line_id")
}

func TestPriceQuantityFallsBackToQuantityM(t *testing.T) {
	item, rec := htLine("L1", 0)
	item.Quantity = nil
	item.QuantityM = fp(40)
	result, err := testEngine().Price(Request{
		RFPID:           "RFP-1",
		Recommendations: []api.Recommendation{rec},
		ScopeOfSupply:   []api.LineItem{item},
	})
	require.NoError(t, err)
	assert.Equal(t, 40.0, result.LineItems[0].Quantity)
	assert.True(t, dec("100000").Equal(result.LineItems[0].MaterialTotal))
}
