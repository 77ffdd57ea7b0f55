package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/api"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestPriceTableLookup(t *testing.T) {
	table := NewPriceTable(map[string]decimal.Decimal{
		"SKU-1": dec("1250.50"),
	})

	assert.True(t, table.Has("SKU-1"))
	assert.False(t, table.Has("SKU-2"))
	assert.True(t, dec("1250.50").Equal(table.UnitPrice("SKU-1", nil)))
	assert.True(t, decimal.Zero.Equal(table.UnitPrice("SKU-2", nil)))
}

func TestPriceTableOverlayShadowsWithoutMutating(t *testing.T) {
	base := map[string]decimal.Decimal{"SKU-1": dec("100")}
	table := NewPriceTable(base)

	overlay := Overlay{"SKU-1": dec("90"), "SKU-NEW": dec("42")}
	assert.True(t, dec("90").Equal(table.UnitPrice("SKU-1", overlay)))
	assert.True(t, dec("42").Equal(table.UnitPrice("SKU-NEW", overlay)))

	// Base remains untouched once the overlay is gone.
	assert.True(t, dec("100").Equal(table.UnitPrice("SKU-1", nil)))
	assert.False(t, table.Has("SKU-NEW"))
}

func TestTestTableCostPreferenceOrder(t *testing.T) {
	table := NewTestTable([]api.TestDefinition{
		{Code: "ALL", PricePerRFP: decp("1"), PricePerCategory: decp("2"),
			PricePerBatch: decp("3"), PricePerDrum: decp("4"), PricePerVisit: decp("5")},
		{Code: "CAT", PricePerCategory: decp("2"), PricePerDrum: decp("4")},
		{Code: "DRUM", PricePerDrum: decp("4"), PricePerVisit: decp("5")},
		{Code: "NONE"},
	})

	assert.True(t, dec("1").Equal(table.Cost("ALL")))
	assert.True(t, dec("2").Equal(table.Cost("CAT")))
	assert.True(t, dec("4").Equal(table.Cost("DRUM")))
	assert.True(t, decimal.Zero.Equal(table.Cost("NONE")))
	assert.True(t, decimal.Zero.Equal(table.Cost("UNKNOWN")))
}

func TestFrequencyFor(t *testing.T) {
	assert.Equal(t, FreqPerCategory, FrequencyFor("HT_TYPE_TEST_SUITE"))
	assert.Equal(t, FreqPerCategory, FrequencyFor("CAT6_CERTIFICATION_TEST"))
	assert.Equal(t, FreqPerRFP, FrequencyFor("SITE_PRE_DELIVERY_INSPECTION"))
	assert.Equal(t, FreqPerRFP, FrequencyFor("HT_ACCEPTANCE_TEST_SUITE"))
	assert.Equal(t, FreqPerLine, FrequencyFor("ROUTINE_TEST_PER_DRUM"))
	assert.Equal(t, FreqPerLine, FrequencyFor("SOME_FUTURE_TEST"))
}
