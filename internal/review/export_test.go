package review

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/api"
)

func exportFixture() *api.PipelineResult {
	sku := "HT-3C-185"
	return &api.PipelineResult{
		Success:           true,
		RFPID:             "RFP-1",
		Buyer:             "State Transmission Co",
		Title:             "HT Cable Supply",
		SubmissionDueDate: "2024-09-15",
		Currency:          "INR",
		SpecRobustness: &api.RobustnessReport{
			RobustnessStatus: api.StatusWarn,
			MissingFields:    map[int][]string{},
			FallbackApplied:  []string{"line_0: set area_sqmm from text -> 185 mm2"},
		},
		TechnicalRecommendations: &api.MatchResult{
			RFPID: "RFP-1",
			Recommendations: []api.Recommendation{{
				LineID: "L1", Description: "3 Core x 185 sqmm", Category: "ht_power_cable",
				TopMatches: []api.TopMatch{{SKU: sku, OEM: "CableCo", Score: 98.5}},
				BestSKU:    &sku,
			}},
		},
		Pricing: &api.PricingResult{
			RFPID: "RFP-1",
			LineItems: []api.PricedLine{{
				LineID: "L1", Description: "3 Core x 185 sqmm", Category: "ht_power_cable",
				BestSKU: &sku, Quantity: 100, Unit: "m",
				UnitPrice: dec("2500"), MaterialTotal: dec("250000"),
				LineLevelTests:      []api.TestApplication{},
				LineLevelTestsTotal: dec("0"),
			}},
			GlobalTests: []api.TestApplication{{
				Code: "HT_TYPE_TEST_SUITE", Description: "HT type tests",
				Cost: dec("150000"), AppliedFor: "per_category:ht_power_cable",
			}},
			Totals: api.PricingTotals{
				MaterialTotal: dec("250000"),
				TestsTotal:    dec("150000"),
				OverallTotal:  dec("400000"),
			},
		},
	}
}

func TestWriteExportZIP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExportZIP(&buf, exportFixture(), nil))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	contents := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		contents[f.Name] = string(data)
	}

	require.Contains(t, contents, "final_response.json")
	require.Contains(t, contents, "audit_trail.json")
	require.Contains(t, contents, "pricing.csv")
	require.Contains(t, contents, "technical.csv")
	require.Contains(t, contents, "summary.txt")

	assert.Equal(t, "[]", contents["audit_trail.json"])
	assert.Contains(t, contents["final_response.json"], `"RFP-1"`)

	pricingLines := strings.Split(strings.TrimRight(contents["pricing.csv"], "\n"), "\n")
	assert.Contains(t, pricingLines[0], "Line ID")
	assert.Contains(t, contents["pricing.csv"], "TOTALS")
	assert.Contains(t, contents["pricing.csv"], "250000.00")

	assert.Contains(t, contents["technical.csv"], "HT-3C-185")
	assert.Contains(t, contents["technical.csv"], "98.50")

	assert.Contains(t, contents["summary.txt"], "RFP Response Summary: RFP-1")
	assert.Contains(t, contents["summary.txt"], "Overall Total: 400000.00 INR")
	assert.Contains(t, contents["summary.txt"], "Overall Status: WARN")
}

func TestWriteExportXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExportXLSX(&buf, exportFixture()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Pricing", "Technical", "Global Tests"}, f.GetSheetList())

	rows, err := f.GetRows("Pricing")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Line ID", rows[0][0])

	testRows, err := f.GetRows("Global Tests")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(testRows), 2)
	assert.Equal(t, "HT_TYPE_TEST_SUITE", testRows[1][0])
}
