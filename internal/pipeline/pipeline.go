// Package pipeline orchestrates one procurement case end to end:
// tender selection, robustness validation, catalog matching, pricing.
package pipeline

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/BigO-Debbuger/RFP-IGNITE/internal/audit"
	"github.com/BigO-Debbuger/RFP-IGNITE/internal/matching"
	"github.com/BigO-Debbuger/RFP-IGNITE/internal/pricing"
	"github.com/BigO-Debbuger/RFP-IGNITE/internal/refdata"
	"github.com/BigO-Debbuger/RFP-IGNITE/internal/robustness"
	"github.com/BigO-Debbuger/RFP-IGNITE/internal/tender"
	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/api"
	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/errors"
)

// Config holds pipeline settings.
type Config struct {
	MockSitesDir string
	HorizonDays  int
}

// Pipeline wires the three engines over shared read-only reference data.
// Safe for repeated and concurrent invocation: every run works on its
// own copy of the scope and its own dedup arena.
type Pipeline struct {
	store     *refdata.Store
	validator *robustness.Engine
	matcher   *matching.Engine
	pricer    *pricing.Engine
	audit     *audit.Logger
	cfg       Config
}

// New creates a pipeline over loaded reference data.
func New(store *refdata.Store, auditLog *audit.Logger, cfg Config) *Pipeline {
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 90
	}
	return &Pipeline{
		store:     store,
		validator: robustness.NewEngine(),
		matcher:   matching.NewEngine(store.Catalog),
		pricer:    pricing.NewEngine(store.Prices, store.Tests),
		audit:     auditLog,
		cfg:       cfg,
	}
}

// Pricer exposes the pricing engine for recalculation with overrides.
func (p *Pipeline) Pricer() *pricing.Engine {
	return p.pricer
}

// RFPDetails returns the index record for rfpID.
func (p *Pipeline) RFPDetails(rfpID string) (*api.RFPRecord, error) {
	rec, ok := p.store.FindRFP(rfpID)
	if !ok {
		return nil, errors.NewRFPNotFoundError(rfpID)
	}
	return rec, nil
}

// Run discovers tenders on the mock portals, selects the earliest due
// RFP within the horizon, and processes it. No qualifying tender is a
// non-fatal outcome reported through the result, not an error.
func (p *Pipeline) Run() (*api.PipelineResult, error) {
	listings, err := tender.ScanPortals(p.cfg.MockSitesDir)
	if err != nil {
		return nil, err
	}

	agent := tender.NewAgent(p.cfg.HorizonDays)
	selected := agent.Select(listings)
	if selected == nil {
		p.audit.LogEvent("sales_no_rfp", map[string]any{
			"horizon_days": p.cfg.HorizonDays,
			"found":        len(listings),
		}, "")
		return &api.PipelineResult{Success: false, Message: "No RFP selected"}, nil
	}

	log.Info().Str("rfp_id", selected.ID).Str("due", selected.SubmissionDueDate.String()).
		Msg("Selected RFP for response")

	if _, ok := p.store.FindRFP(selected.ID); !ok {
		p.audit.LogEvent("main_rfp_not_in_index", map[string]any{"rfp_id": selected.ID}, "")
		return &api.PipelineResult{Success: false, Message: "Selected RFP not found in index"}, nil
	}
	return p.RunForRFP(selected.ID)
}

// RunForRFP processes one RFP from the index: robustness validation,
// catalog matching, then pricing.
func (p *Pipeline) RunForRFP(rfpID string) (*api.PipelineResult, error) {
	rec, ok := p.store.FindRFP(rfpID)
	if !ok {
		return nil, errors.NewRFPNotFoundError(rfpID)
	}

	runID := "run-" + uuid.NewString()

	// The validator amends attributes in place; work on a copy so the
	// shared index stays pristine across runs.
	scope := append([]api.LineItem(nil), rec.ScopeOfSupply...)

	report := p.validator.Run(scope)
	p.audit.LogEvent("spec_robustness_run", map[string]any{
		"rfp_id": rfpID,
		"status": string(report.RobustnessStatus),
	}, runID)
	p.logRobustnessDetail(rfpID, report, runID)

	matchResult, err := p.matcher.Match(rfpID, scope)
	if err != nil {
		return nil, err
	}
	p.audit.LogEvent("technical_recommendations", map[string]any{
		"rfp_id":               rfpID,
		"recommendation_count": len(matchResult.Recommendations),
	}, runID)

	pricingResult, err := p.pricer.Price(pricing.Request{
		RFPID:               rfpID,
		Recommendations:     matchResult.Recommendations,
		ScopeOfSupply:       scope,
		TestingRequirements: rec.TestingRequirementsSummary,
	})
	if err != nil {
		return nil, err
	}
	p.audit.LogEvent("pricing_completed", map[string]any{
		"rfp_id":         rfpID,
		"material_total": pricingResult.Totals.MaterialTotal.String(),
		"overall_total":  pricingResult.Totals.OverallTotal.String(),
	}, runID)

	return &api.PipelineResult{
		Success:                  true,
		RFPID:                    rec.ID,
		Buyer:                    rec.Buyer,
		Title:                    rec.Title,
		SubmissionDueDate:        rec.SubmissionDueDate.String(),
		Currency:                 rec.Currency,
		PipelineRunID:            runID,
		SpecRobustness:           report,
		TechnicalRecommendations: matchResult,
		Pricing:                  pricingResult,
	}, nil
}

// logRobustnessDetail records every fallback, unit conversion, and
// remaining missing field as individual audit events.
func (p *Pipeline) logRobustnessDetail(rfpID string, report *api.RobustnessReport, runID string) {
	for _, msg := range report.FallbackApplied {
		p.audit.LogEvent("robustness_fallback", map[string]any{"rfp_id": rfpID, "detail": msg}, runID)
	}
	for _, msg := range report.UnitWarnings {
		p.audit.LogEvent("robustness_unit_conversion", map[string]any{"rfp_id": rfpID, "detail": msg}, runID)
	}
	for idx, fields := range report.MissingFields {
		for _, f := range fields {
			p.audit.LogEvent("robustness_missing_field", map[string]any{
				"rfp_id": rfpID,
				"line":   idx,
				"field":  f,
			}, runID)
		}
	}
}
