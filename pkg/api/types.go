// Package api defines the shared request/response contracts for the RFP pipeline.
package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Date is a calendar date serialized as yyyy-mm-dd.
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a yyyy-mm-dd string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// LineItem is one requested entry in a scope of supply. Optional technical
// attributes use pointers so absent and empty can be told apart; the
// robustness validator amends them in place.
type LineItem struct {
	LineID      string   `json:"line_id"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Quantity    *float64 `json:"quantity,omitempty"`
	QuantityM   *float64 `json:"quantity_m,omitempty"`
	Unit        string   `json:"unit,omitempty"`

	VoltageKV          *float64 `json:"voltage_kV,omitempty"`
	CoreCount          *int     `json:"core_count,omitempty"`
	ConductorMaterial  *string  `json:"conductor_material,omitempty"`
	InsulationMaterial *string  `json:"insulation_material,omitempty"`
	Armoured           *bool    `json:"armoured,omitempty"`
	AreaSqmm           *float64 `json:"area_sqmm,omitempty"`
	AWG                *int     `json:"awg,omitempty"`
	Area               string   `json:"area,omitempty"`

	Notes    string `json:"notes,omitempty"`
	Specs    string `json:"specs,omitempty"`
	FullText string `json:"full_text,omitempty"`
	Details  string `json:"details,omitempty"`
}

// EffectiveQuantity returns quantity, preferring quantity over quantity_m.
func (l *LineItem) EffectiveQuantity() float64 {
	if l.Quantity != nil {
		return *l.Quantity
	}
	if l.QuantityM != nil {
		return *l.QuantityM
	}
	return 0
}

// CatalogProduct is a sellable item with technical attributes.
// Immutable reference data, shared read-only across matching calls.
type CatalogProduct struct {
	SKU         string   `json:"sku"`
	OEM         string   `json:"oem"`
	Category    string   `json:"category"`
	CoreCount   *int     `json:"core_count,omitempty"`
	AreaSqmm    *float64 `json:"area_sqmm,omitempty"`
	Description string   `json:"description,omitempty"`
	Title       string   `json:"title,omitempty"`
}

// Catalog is the product reference table.
type Catalog struct {
	Products []CatalogProduct `json:"products"`
}

// TestDefinition is a priced test or inspection service. Exactly which
// price field is present determines the applied cost.
type TestDefinition struct {
	Code             string           `json:"code"`
	Description      string           `json:"description"`
	PricePerRFP      *decimal.Decimal `json:"price_per_rfp,omitempty"`
	PricePerCategory *decimal.Decimal `json:"price_per_category,omitempty"`
	PricePerBatch    *decimal.Decimal `json:"price_per_batch,omitempty"`
	PricePerDrum     *decimal.Decimal `json:"price_per_drum,omitempty"`
	PricePerVisit    *decimal.Decimal `json:"price_per_visit,omitempty"`
}

// RobustnessStatus is the coarse data-quality verdict for a case.
type RobustnessStatus string

const (
	StatusPass     RobustnessStatus = "PASS"
	StatusWarn     RobustnessStatus = "WARN"
	StatusFailSoft RobustnessStatus = "FAIL_SOFT"
)

// RobustnessReport summarizes attribute completeness for one case.
// All slices are deduplicated and sorted for determinism.
type RobustnessReport struct {
	RobustnessStatus       RobustnessStatus `json:"robustness_status"`
	MissingFields          map[int][]string `json:"missing_fields"`
	UnitWarnings           []string         `json:"unit_warnings"`
	FallbackApplied        []string         `json:"fallback_applied"`
	ClarificationQuestions []string         `json:"clarification_questions"`
}

// TopMatch is one scored catalog candidate for a line.
type TopMatch struct {
	SKU       string   `json:"sku"`
	OEM       string   `json:"oem"`
	Score     float64  `json:"score"`
	CoreCount *int     `json:"core_count,omitempty"`
	AreaSqmm  *float64 `json:"area_sqmm,omitempty"`
}

// Recommendation is the matching result for one line item.
type Recommendation struct {
	LineID             string     `json:"line_id"`
	Description        string     `json:"description"`
	Category           string     `json:"category"`
	RequestedCoreCount *int       `json:"requested_core_count,omitempty"`
	RequestedAreaSqmm  *float64   `json:"requested_area_sqmm,omitempty"`
	TopMatches         []TopMatch `json:"top_matches"`
	BestSKU            *string    `json:"best_sku"`
}

// MatchResult is the full matching engine output for one case.
type MatchResult struct {
	RFPID           string           `json:"rfp_id"`
	Recommendations []Recommendation `json:"recommendations"`
}

// TestApplication is one applied test cost. AppliedFor is "per_rfp" or
// "per_category:<category>" for global entries and empty for line-scoped
// entries.
type TestApplication struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
	AppliedFor  string          `json:"applied_for,omitempty"`
}

// PricedLine is the pricing result for one line item.
type PricedLine struct {
	LineID              string            `json:"line_id"`
	Description         string            `json:"description"`
	Category            string            `json:"category"`
	BestSKU             *string           `json:"best_sku"`
	Quantity            float64           `json:"quantity"`
	Unit                string            `json:"unit"`
	UnitPrice           decimal.Decimal   `json:"unit_price"`
	MaterialTotal       decimal.Decimal   `json:"material_total"`
	LineLevelTests      []TestApplication `json:"line_level_tests"`
	LineLevelTestsTotal decimal.Decimal   `json:"line_level_tests_total"`
}

// PricingTotals aggregates a case's costs.
type PricingTotals struct {
	MaterialTotal decimal.Decimal `json:"material_total"`
	TestsTotal    decimal.Decimal `json:"tests_total"`
	OverallTotal  decimal.Decimal `json:"overall_total"`
}

// PricingResult is the full pricing engine output for one case.
type PricingResult struct {
	RFPID       string            `json:"rfp_id"`
	LineItems   []PricedLine      `json:"line_items"`
	GlobalTests []TestApplication `json:"global_tests"`
	Totals      PricingTotals     `json:"totals"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// RFPMetadata identifies a tender listing discovered on a portal.
type RFPMetadata struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Buyer             string `json:"buyer"`
	SubmissionDueDate Date   `json:"submission_due_date"`
	File              string `json:"file"`
	Currency          string `json:"currency"`
}

// RFPRecord is a full index entry: metadata plus scope and testing text.
type RFPRecord struct {
	RFPMetadata
	ScopeOfSupply              []LineItem `json:"scope_of_supply"`
	TestingRequirementsSummary []string   `json:"testing_requirements_summary"`
}

// RFPIndex is the canonical RFP reference file.
type RFPIndex struct {
	RFPs []RFPRecord `json:"rfps"`
}

// PipelineResult is the consolidated output of a full pipeline run.
type PipelineResult struct {
	Success                  bool              `json:"success"`
	Message                  string            `json:"message,omitempty"`
	RFPID                    string            `json:"rfp_id,omitempty"`
	Buyer                    string            `json:"buyer,omitempty"`
	Title                    string            `json:"title,omitempty"`
	SubmissionDueDate        string            `json:"submission_due_date,omitempty"`
	Currency                 string            `json:"currency,omitempty"`
	PipelineRunID            string            `json:"pipeline_run_id,omitempty"`
	SpecRobustness           *RobustnessReport `json:"spec_robustness,omitempty"`
	TechnicalRecommendations *MatchResult      `json:"technical_recommendations,omitempty"`
	Pricing                  *PricingResult    `json:"pricing,omitempty"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
