package main

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/BigO-Debbuger/RFP-IGNITE/internal/audit"
	"github.com/BigO-Debbuger/RFP-IGNITE/internal/pipeline"
	"github.com/BigO-Debbuger/RFP-IGNITE/internal/review"
	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/api"
	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/errors"
)

type app struct {
	pipeline *pipeline.Pipeline
	reviews  *review.Store
	audit    *audit.Logger
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"uptime":  time.Since(startTime).String(),
		"version": version,
	})
}

func (a *app) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": version})
}

// handleRunPipeline runs the full pipeline. With an rfp_id query
// parameter it processes that RFP; otherwise it scans the mock portals
// and selects one.
func (a *app) handleRunPipeline(w http.ResponseWriter, r *http.Request) {
	rfpID := r.URL.Query().Get("rfp_id")

	var result *api.PipelineResult
	var err error
	if rfpID != "" {
		result, err = a.pipeline.RunForRFP(rfpID)
	} else {
		result, err = a.pipeline.Run()
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *app) handleRFPDetails(w http.ResponseWriter, r *http.Request) {
	rfpID := chi.URLParam(r, "rfpID")
	rec, err := a.pipeline.RFPDetails(rfpID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rfp_id":          rec.ID,
		"scope_of_supply": rec.ScopeOfSupply,
		"pricing_input": map[string]any{
			"rfp_id":                       rec.ID,
			"currency":                     rec.Currency,
			"testing_requirements_summary": rec.TestingRequirementsSummary,
		},
		"testing_requirements": rec.TestingRequirementsSummary,
		"currency":             rec.Currency,
		"metadata": map[string]any{
			"title":               rec.Title,
			"buyer":               rec.Buyer,
			"submission_due_date": rec.SubmissionDueDate.String(),
			"file":                rec.File,
		},
	})
}

// handleGetDraft returns a fresh pipeline run for the RFP together with
// any saved draft, so a reviewer opens the case with current numbers.
func (a *app) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	rfpID := chi.URLParam(r, "rfpID")

	rec, err := a.pipeline.RFPDetails(rfpID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	result, err := a.pipeline.RunForRFP(rfpID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	draft, err := a.reviews.LoadDraft(rfpID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "REVIEW_STORE_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pipeline":             result,
		"draft":                draft,
		"scope_of_supply":      rec.ScopeOfSupply,
		"testing_requirements": rec.TestingRequirementsSummary,
	})
}

func (a *app) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	rfpID := chi.URLParam(r, "rfpID")

	var req review.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body: "+err.Error())
		return
	}
	if req.RFPID == "" {
		req.RFPID = rfpID
	}
	if req.RFPID != rfpID {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "rfp_id in body does not match URL")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	draft := &review.Draft{
		RFPID:   rfpID,
		SavedAt: time.Now().UTC(),
		SavedBy: req.Reviewer,
		Request: req,
	}
	if err := a.reviews.SaveDraft(draft); err != nil {
		writeError(w, http.StatusInternalServerError, "REVIEW_STORE_ERROR", err.Error())
		return
	}
	a.audit.LogEvent("review_draft_saved", map[string]any{
		"rfp_id":   rfpID,
		"reviewer": req.Reviewer,
	}, "")
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "draft": draft})
}

// handleApprove finalizes a review: a fresh pipeline run with the
// reviewer's overrides applied becomes the final response, which is
// persisted together with its audit trail and export archive.
func (a *app) handleApprove(w http.ResponseWriter, r *http.Request) {
	rfpID := chi.URLParam(r, "rfpID")

	var req review.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body: "+err.Error())
		return
	}
	if req.RFPID == "" {
		req.RFPID = rfpID
	}
	if req.RFPID != rfpID {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "rfp_id in body does not match URL")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	rec, err := a.pipeline.RFPDetails(rfpID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	result, err := a.pipeline.RunForRFP(rfpID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	recalculated, err := review.Recalculate(
		a.pipeline.Pricer(),
		result.TechnicalRecommendations,
		rec.ScopeOfSupply,
		rec.TestingRequirementsSummary,
		req.Overrides,
		req.GlobalOverrides,
	)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	result.Pricing = recalculated

	now := time.Now().UTC()
	trail := []review.AuditEntry{
		{Action: "draft_saved", At: now, By: req.Reviewer, Notes: req.Notes},
		{Action: "approved", At: now, By: req.Reviewer, Notes: req.Notes},
	}
	approved := &review.Approved{
		RFPID:         rfpID,
		ApprovedAt:    now,
		ApprovedBy:    req.Reviewer,
		FinalResponse: result,
		AuditTrail:    trail,
	}
	if err := a.reviews.SaveApproved(approved); err != nil {
		writeError(w, http.StatusInternalServerError, "REVIEW_STORE_ERROR", err.Error())
		return
	}

	if err := a.writeExportArchive(approved); err != nil {
		log.Error().Err(err).Str("rfp_id", rfpID).Msg("Failed to write export archive")
	}

	a.audit.LogEvent("review_approved", map[string]any{
		"rfp_id":   rfpID,
		"reviewer": req.Reviewer,
	}, result.PipelineRunID)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"final_response": result,
		"export_url":     "/api/rfp/" + rfpID + "/export",
		"audit_trail":    trail,
	})
}

func (a *app) writeExportArchive(approved *review.Approved) error {
	trailJSON, err := json.MarshalIndent(approved.AuditTrail, "", "  ")
	if err != nil {
		return err
	}
	f, err := os.Create(a.reviews.ExportPath(approved.RFPID))
	if err != nil {
		return err
	}
	defer f.Close()
	return review.WriteExportZIP(f, approved.FinalResponse, trailJSON)
}

func (a *app) handleGetApproved(w http.ResponseWriter, r *http.Request) {
	rfpID := chi.URLParam(r, "rfpID")
	approved, err := a.reviews.LoadApproved(rfpID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "REVIEW_STORE_ERROR", err.Error())
		return
	}
	if approved == nil {
		writeError(w, http.StatusNotFound, "REVIEW_NOT_FOUND", "no approved review for "+rfpID)
		return
	}
	writeJSON(w, http.StatusOK, approved)
}

// handleRecalculate reprices the case with the supplied overrides
// without persisting anything.
func (a *app) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	rfpID := chi.URLParam(r, "rfpID")

	var req struct {
		Overrides       []review.LineOverride  `json:"overrides"`
		GlobalOverrides review.GlobalOverrides `json:"global_overrides"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body: "+err.Error())
		return
	}

	rec, err := a.pipeline.RFPDetails(rfpID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	result, err := a.pipeline.RunForRFP(rfpID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	recalculated, err := review.Recalculate(
		a.pipeline.Pricer(),
		result.TechnicalRecommendations,
		rec.ScopeOfSupply,
		rec.TestingRequirementsSummary,
		req.Overrides,
		req.GlobalOverrides,
	)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rfp_id":  rfpID,
		"pricing": recalculated,
	})
}

func (a *app) handleExportZIP(w http.ResponseWriter, r *http.Request) {
	rfpID := chi.URLParam(r, "rfpID")
	approved, err := a.reviews.LoadApproved(rfpID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "REVIEW_STORE_ERROR", err.Error())
		return
	}
	if approved == nil {
		writeError(w, http.StatusNotFound, "REVIEW_NOT_FOUND", "no approved review for "+rfpID)
		return
	}
	path := a.reviews.ExportPath(rfpID)
	if _, err := os.Stat(path); err != nil {
		// Regenerate from the approved document if the archive is gone.
		if err := a.writeExportArchive(approved); err != nil {
			writeError(w, http.StatusInternalServerError, "EXPORT_ERROR", err.Error())
			return
		}
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+rfpID+`_export.zip"`)
	http.ServeFile(w, r, path)
}

func (a *app) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	rfpID := chi.URLParam(r, "rfpID")
	approved, err := a.reviews.LoadApproved(rfpID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "REVIEW_STORE_ERROR", err.Error())
		return
	}
	if approved == nil {
		writeError(w, http.StatusNotFound, "REVIEW_NOT_FOUND", "no approved review for "+rfpID)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+rfpID+`_export.xlsx"`)
	if err := review.WriteExportXLSX(w, approved.FinalResponse); err != nil {
		log.Error().Err(err).Str("rfp_id", rfpID).Msg("Failed to stream XLSX export")
	}
}

func (a *app) handleListReviews(w http.ResponseWriter, r *http.Request) {
	statuses, err := a.reviews.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "REVIEW_STORE_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": statuses})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: code, Message: message})
}

func writeEngineError(w http.ResponseWriter, err error) {
	var ee *errors.EngineError
	if stderrors.As(err, &ee) {
		status := http.StatusInternalServerError
		switch ee.Code {
		case errors.ErrCodeRFPNotFound:
			status = http.StatusNotFound
		case errors.ErrCodeInvalidInput:
			status = http.StatusBadRequest
		}
		writeError(w, status, ee.Code, ee.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
}
