package review

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/api"
)

// WriteExportZIP writes the approved-review export bundle:
// final_response.json, audit_trail.json, pricing.csv, technical.csv,
// and a one-page summary.txt.
func WriteExportZIP(w io.Writer, final *api.PipelineResult, auditTrail []byte) error {
	zw := zip.NewWriter(w)

	finalJSON, err := json.MarshalIndent(final, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal final response: %w", err)
	}
	if err := writeZipEntry(zw, "final_response.json", finalJSON); err != nil {
		return err
	}

	if len(auditTrail) == 0 {
		auditTrail = []byte("[]")
	}
	if err := writeZipEntry(zw, "audit_trail.json", auditTrail); err != nil {
		return err
	}

	if err := writeZipEntry(zw, "pricing.csv", pricingCSV(final)); err != nil {
		return err
	}
	if err := writeZipEntry(zw, "technical.csv", technicalCSV(final)); err != nil {
		return err
	}
	if err := writeZipEntry(zw, "summary.txt", []byte(summaryText(final))); err != nil {
		return err
	}

	return zw.Close()
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("export: write %s: %w", name, err)
	}
	return nil
}

var pricingHeader = []string{
	"Line ID", "Description", "Category", "Best SKU", "Quantity", "Unit",
	"Unit Price", "Material Total", "Line Tests Total", "Grand Total",
}

func pricingRows(final *api.PipelineResult) [][]string {
	rows := [][]string{pricingHeader}
	if final.Pricing == nil {
		return rows
	}
	for _, item := range final.Pricing.LineItems {
		best := ""
		if item.BestSKU != nil {
			best = *item.BestSKU
		}
		grand := item.MaterialTotal.Add(item.LineLevelTestsTotal)
		rows = append(rows, []string{
			item.LineID,
			item.Description,
			item.Category,
			best,
			strconv.FormatFloat(item.Quantity, 'f', -1, 64),
			item.Unit,
			item.UnitPrice.StringFixed(2),
			item.MaterialTotal.StringFixed(2),
			item.LineLevelTestsTotal.StringFixed(2),
			grand.StringFixed(2),
		})
	}
	totals := final.Pricing.Totals
	rows = append(rows, []string{})
	rows = append(rows, []string{
		"TOTALS", "", "", "", "", "", "",
		totals.MaterialTotal.StringFixed(2),
		totals.TestsTotal.StringFixed(2),
		totals.OverallTotal.StringFixed(2),
	})
	return rows
}

func pricingCSV(final *api.PipelineResult) []byte {
	return csvBytes(pricingRows(final))
}

var technicalHeader = []string{
	"Line ID", "Description", "Category", "Best SKU",
	"Top Match 1", "Score 1", "Top Match 2", "Score 2", "Top Match 3", "Score 3",
}

func technicalRows(final *api.PipelineResult) [][]string {
	rows := [][]string{technicalHeader}
	if final.TechnicalRecommendations == nil {
		return rows
	}
	for _, rec := range final.TechnicalRecommendations.Recommendations {
		best := ""
		if rec.BestSKU != nil {
			best = *rec.BestSKU
		}
		row := []string{rec.LineID, rec.Description, rec.Category, best}
		for i := 0; i < 3; i++ {
			if i < len(rec.TopMatches) {
				m := rec.TopMatches[i]
				row = append(row, m.SKU, strconv.FormatFloat(m.Score, 'f', 2, 64))
			} else {
				row = append(row, "", "")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func technicalCSV(final *api.PipelineResult) []byte {
	return csvBytes(technicalRows(final))
}

func csvBytes(rows [][]string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		// a fully empty row renders as a blank separator line
		if len(row) == 0 {
			buf.WriteString("\n")
			continue
		}
		w.Write(row)
		w.Flush()
	}
	return buf.Bytes()
}

// summaryText renders a one-page plain-text executive summary.
func summaryText(final *api.PipelineResult) string {
	var b strings.Builder
	money := func(d interface{ StringFixed(int32) string }) string {
		currency := final.Currency
		if currency == "" {
			currency = "N/A"
		}
		return d.StringFixed(2) + " " + currency
	}

	fmt.Fprintf(&b, "RFP Response Summary: %s\n\n", final.RFPID)

	b.WriteString("Scope Overview:\n")
	fmt.Fprintf(&b, "  Buyer: %s\n", orNA(final.Buyer))
	fmt.Fprintf(&b, "  Title: %s\n", orNA(final.Title))
	fmt.Fprintf(&b, "  Submission Due Date: %s\n", orNA(final.SubmissionDueDate))
	lineCount := 0
	if final.Pricing != nil {
		lineCount = len(final.Pricing.LineItems)
	}
	fmt.Fprintf(&b, "  Line Items (count): %d\n\n", lineCount)

	b.WriteString("Specification Quality Assessment:\n")
	if sr := final.SpecRobustness; sr != nil {
		fmt.Fprintf(&b, "  Overall Status: %s\n", sr.RobustnessStatus)
		if len(sr.MissingFields) > 0 {
			indices := make([]int, 0, len(sr.MissingFields))
			for idx := range sr.MissingFields {
				indices = append(indices, idx)
			}
			sort.Ints(indices)
			for _, idx := range indices {
				fmt.Fprintf(&b, "  Line %d: missing -> %s\n", idx, strings.Join(sr.MissingFields[idx], ", "))
			}
		} else {
			b.WriteString("  Missing Fields: None\n")
		}
		fmt.Fprintf(&b, "  Fallbacks Applied: %d\n", len(sr.FallbackApplied))
		fmt.Fprintf(&b, "  Unit Warnings: %d\n", len(sr.UnitWarnings))
	} else {
		b.WriteString("  Overall Status: UNKNOWN\n")
	}
	b.WriteString("\n")

	b.WriteString("Pricing Totals:\n")
	if final.Pricing != nil {
		fmt.Fprintf(&b, "  Total Material: %s\n", money(final.Pricing.Totals.MaterialTotal))
		fmt.Fprintf(&b, "  Total Tests/Services: %s\n", money(final.Pricing.Totals.TestsTotal))
		fmt.Fprintf(&b, "  Overall Total: %s\n", money(final.Pricing.Totals.OverallTotal))
	} else {
		b.WriteString("  No pricing available.\n")
	}

	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// WriteExportXLSX renders the export as a workbook with Pricing,
// Technical, and Global Tests sheets.
func WriteExportXLSX(w io.Writer, final *api.PipelineResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const pricingSheet = "Pricing"
	f.SetSheetName(f.GetSheetName(0), pricingSheet)
	if err := writeSheetRows(f, pricingSheet, pricingRows(final)); err != nil {
		return err
	}

	const technicalSheet = "Technical"
	if _, err := f.NewSheet(technicalSheet); err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}
	if err := writeSheetRows(f, technicalSheet, technicalRows(final)); err != nil {
		return err
	}

	const testsSheet = "Global Tests"
	if _, err := f.NewSheet(testsSheet); err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}
	testRows := [][]string{{"Code", "Description", "Cost", "Applied For"}}
	if final.Pricing != nil {
		for _, t := range final.Pricing.GlobalTests {
			testRows = append(testRows, []string{t.Code, t.Description, t.Cost.StringFixed(2), t.AppliedFor})
		}
	}
	if err := writeSheetRows(f, testsSheet, testRows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}
	return nil
}

func writeSheetRows(f *excelize.File, sheet string, rows [][]string) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("export xlsx: %w", err)
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("export xlsx: %w", err)
		}
	}
	return nil
}
