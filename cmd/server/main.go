// Package main provides the RFP Ignite API server. It exposes the full
// pipeline plus the review workflow over HTTP.
package main

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/BigO-Debbuger/RFP-IGNITE/internal/audit"
	"github.com/BigO-Debbuger/RFP-IGNITE/internal/pipeline"
	"github.com/BigO-Debbuger/RFP-IGNITE/internal/refdata"
	"github.com/BigO-Debbuger/RFP-IGNITE/internal/review"
)

var (
	version   = "0.1.0"
	startTime = time.Now()
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	port := envOr("PORT", "8000")
	dataDir := envOr("RFP_DATA_DIR", "data")
	mockSitesDir := envOr("RFP_MOCK_SITES_DIR", "mock_sites")

	store, err := refdata.Load(dataDir)
	if err != nil {
		log.Fatal().Err(err).Str("data_dir", dataDir).Msg("Failed to load reference data")
	}

	auditLog := audit.NewLogger(filepath.Join(dataDir, "audit_log.json"))
	reviews, err := review.NewStore(filepath.Join(dataDir, "reviews"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open review store")
	}

	pipe := pipeline.New(store, auditLog, pipeline.Config{
		MockSitesDir: mockSitesDir,
		HorizonDays:  90,
	})

	app := &app{
		pipeline: pipe,
		reviews:  reviews,
		audit:    auditLog,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", app.handleHealth)
	r.Post("/run-rfp-pipeline", app.handleRunPipeline)

	r.Route("/api", func(r chi.Router) {
		r.Get("/reviews", app.handleListReviews)
		r.Route("/rfp/{rfpID}", func(r chi.Router) {
			r.Get("/details", app.handleRFPDetails)
			r.Get("/draft", app.handleGetDraft)
			r.Post("/review/save", app.handleSaveDraft)
			r.Post("/review/approve", app.handleApprove)
			r.Get("/review", app.handleGetApproved)
			r.Post("/recalculate", app.handleRecalculate)
			r.Get("/export", app.handleExportZIP)
			r.Get("/export.xlsx", app.handleExportXLSX)
		})
	})

	r.Get("/version", app.handleVersion)

	log.Info().
		Str("port", port).
		Str("version", version).
		Str("data_dir", dataDir).
		Msg("Starting RFP Ignite API server")

	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
