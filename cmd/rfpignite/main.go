// RFP Ignite CLI - procurement response automation
//
// Usage:
//
//	rfpignite run [--rfp RFP-2024-001]
//	rfpignite validate --rfp RFP-2024-001
//	rfpignite match --rfp RFP-2024-001
//	rfpignite price --rfp RFP-2024-001
//	rfpignite list
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/BigO-Debbuger/RFP-IGNITE/internal/audit"
	"github.com/BigO-Debbuger/RFP-IGNITE/internal/matching"
	"github.com/BigO-Debbuger/RFP-IGNITE/internal/pipeline"
	"github.com/BigO-Debbuger/RFP-IGNITE/internal/pricing"
	"github.com/BigO-Debbuger/RFP-IGNITE/internal/refdata"
	"github.com/BigO-Debbuger/RFP-IGNITE/internal/robustness"
	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/api"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "rfpignite",
		Usage:   "RFP Ignite - automated procurement response pipeline",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Value:   "data",
				Usage:   "Directory with catalog, pricing tables, and RFP index",
				EnvVars: []string{"RFP_DATA_DIR"},
			},
			&cli.StringFlag{
				Name:    "mock-sites-dir",
				Value:   "mock_sites",
				Usage:   "Directory with mock tender portal HTML pages",
				EnvVars: []string{"RFP_MOCK_SITES_DIR"},
			},
			&cli.IntFlag{
				Name:    "horizon-days",
				Value:   90,
				Usage:   "Tender selection horizon in days",
				EnvVars: []string{"RFP_HORIZON_DAYS"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"RFP_LOG_LEVEL"},
			},
		},

		Before: func(c *cli.Context) error {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", c.String("log-level"), err)
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},

		Commands: []*cli.Command{
			runCommand(),
			validateCommand(),
			matchCommand(),
			priceCommand(),
			listCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadStore(c *cli.Context) (*refdata.Store, error) {
	store, err := refdata.Load(c.String("data-dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}
	return store, nil
}

func buildPipeline(c *cli.Context, store *refdata.Store) *pipeline.Pipeline {
	auditLog := audit.NewLogger(filepath.Join(c.String("data-dir"), "audit_log.json"))
	return pipeline.New(store, auditLog, pipeline.Config{
		MockSitesDir: c.String("mock-sites-dir"),
		HorizonDays:  c.Int("horizon-days"),
	})
}

func findRFP(store *refdata.Store, rfpID string) (*api.RFPRecord, error) {
	rec, ok := store.FindRFP(rfpID)
	if !ok {
		return nil, fmt.Errorf("RFP %s not found in index", rfpID)
	}
	return rec, nil
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the full pipeline: select a tender (or use --rfp), validate, match, price",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "rfp",
				Usage: "Process this RFP id instead of scanning the portals",
			},
		},
		Action: func(c *cli.Context) error {
			store, err := loadStore(c)
			if err != nil {
				return err
			}
			pipe := buildPipeline(c, store)

			var result *api.PipelineResult
			if rfpID := c.String("rfp"); rfpID != "" {
				result, err = pipe.RunForRFP(rfpID)
			} else {
				result, err = pipe.Run()
			}
			if err != nil {
				return err
			}
			return outputJSON(result)
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Run spec robustness validation for one RFP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "rfp",
				Usage:    "RFP id from the index",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			store, err := loadStore(c)
			if err != nil {
				return err
			}
			rec, err := findRFP(store, c.String("rfp"))
			if err != nil {
				return err
			}
			scope := append([]api.LineItem(nil), rec.ScopeOfSupply...)
			report := robustness.NewEngine().Run(scope)
			return outputJSON(map[string]any{
				"rfp_id":          rec.ID,
				"robustness":      report,
				"scope_of_supply": scope,
			})
		},
	}
}

func matchCommand() *cli.Command {
	return &cli.Command{
		Name:  "match",
		Usage: "Validate and match one RFP's scope against the catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "rfp",
				Usage:    "RFP id from the index",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			store, err := loadStore(c)
			if err != nil {
				return err
			}
			rec, err := findRFP(store, c.String("rfp"))
			if err != nil {
				return err
			}
			scope := append([]api.LineItem(nil), rec.ScopeOfSupply...)
			robustness.NewEngine().Run(scope)
			result, err := matching.NewEngine(store.Catalog).Match(rec.ID, scope)
			if err != nil {
				return err
			}
			return outputJSON(result)
		},
	}
}

func priceCommand() *cli.Command {
	return &cli.Command{
		Name:  "price",
		Usage: "Validate, match, and price one RFP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "rfp",
				Usage:    "RFP id from the index",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			store, err := loadStore(c)
			if err != nil {
				return err
			}
			rec, err := findRFP(store, c.String("rfp"))
			if err != nil {
				return err
			}
			scope := append([]api.LineItem(nil), rec.ScopeOfSupply...)
			robustness.NewEngine().Run(scope)
			matchResult, err := matching.NewEngine(store.Catalog).Match(rec.ID, scope)
			if err != nil {
				return err
			}
			result, err := pricing.NewEngine(store.Prices, store.Tests).Price(pricing.Request{
				RFPID:               rec.ID,
				Recommendations:     matchResult.Recommendations,
				ScopeOfSupply:       scope,
				TestingRequirements: rec.TestingRequirementsSummary,
			})
			if err != nil {
				return err
			}
			return outputJSON(result)
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List RFPs in the index",
		Action: func(c *cli.Context) error {
			store, err := loadStore(c)
			if err != nil {
				return err
			}
			type row struct {
				ID                string `json:"id"`
				Title             string `json:"title"`
				Buyer             string `json:"buyer"`
				SubmissionDueDate string `json:"submission_due_date"`
				Lines             int    `json:"lines"`
			}
			rows := make([]row, 0, len(store.Index.RFPs))
			for _, rec := range store.Index.RFPs {
				rows = append(rows, row{
					ID:                rec.ID,
					Title:             rec.Title,
					Buyer:             rec.Buyer,
					SubmissionDueDate: rec.SubmissionDueDate.String(),
					Lines:             len(rec.ScopeOfSupply),
				})
			}
			return outputJSON(rows)
		},
	}
}
