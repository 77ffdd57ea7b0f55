// Package review implements the reviewer workflow: draft and approval
// persistence, pricing recalculation with overrides, and export of
// approved reviews.
package review

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/api"
)

// LineOverride adjusts one line: an approved SKU and, optionally, a
// manual unit price for it.
type LineOverride struct {
	LineID          string           `json:"line_id"`
	ApprovedSKU     *string          `json:"approved_sku,omitempty"`
	ManualUnitPrice *decimal.Decimal `json:"manual_unit_price,omitempty"`
	OverrideReason  *string          `json:"override_reason,omitempty"`
}

// GlobalOverrides adjusts the whole case: margin and tax fractions
// (0.1 = 10%) and test codes to exclude.
type GlobalOverrides struct {
	MarginFraction *float64 `json:"margin_fraction,omitempty"`
	TaxFraction    *float64 `json:"tax_fraction,omitempty"`
	TestExclusions []string `json:"test_exclusions,omitempty"`
}

// SaveRequest is the body for saving or approving a review.
type SaveRequest struct {
	RFPID           string          `json:"rfp_id"`
	Overrides       []LineOverride  `json:"overrides"`
	GlobalOverrides GlobalOverrides `json:"global_overrides"`
	Reviewer        string          `json:"reviewer"`
	Notes           string          `json:"notes,omitempty"`
}

// Validate checks required fields and value ranges.
func (r *SaveRequest) Validate() error {
	if r.Reviewer == "" {
		return fmt.Errorf("reviewer is required")
	}
	for _, o := range r.Overrides {
		if o.LineID == "" {
			return fmt.Errorf("line override has no line_id")
		}
		if o.ManualUnitPrice != nil && o.ManualUnitPrice.IsNegative() {
			return fmt.Errorf("line %s: manual_unit_price must be >= 0", o.LineID)
		}
	}
	if f := r.GlobalOverrides.MarginFraction; f != nil && (*f < 0 || *f > 1) {
		return fmt.Errorf("margin_fraction must be in [0, 1]")
	}
	if f := r.GlobalOverrides.TaxFraction; f != nil && (*f < 0 || *f > 1) {
		return fmt.Errorf("tax_fraction must be in [0, 1]")
	}
	return nil
}

// Draft is a saved, not yet final, review.
type Draft struct {
	RFPID   string      `json:"rfp_id"`
	SavedAt time.Time   `json:"saved_at"`
	SavedBy string      `json:"saved_by"`
	Request SaveRequest `json:"request"`
}

// AuditEntry is one step in a review's history.
type AuditEntry struct {
	Action string    `json:"action"`
	At     time.Time `json:"at"`
	By     string    `json:"by"`
	Notes  string    `json:"notes,omitempty"`
}

// Approved is a final review document with its audit trail.
type Approved struct {
	RFPID         string              `json:"rfp_id"`
	ApprovedAt    time.Time           `json:"approved_at"`
	ApprovedBy    string              `json:"approved_by"`
	FinalResponse *api.PipelineResult `json:"final_response"`
	AuditTrail    []AuditEntry        `json:"audit_trail"`
}

// Status summarizes review progress for one RFP.
type Status struct {
	DraftAt    *time.Time `json:"draft_at,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
}
