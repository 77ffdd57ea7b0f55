// Package tender discovers RFP listings on HTML tender portals and
// selects one for response.
package tender

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/api"
)

const defaultCurrency = "INR"

// ParsePortal extracts tender rows from one portal page. Rows missing
// any expected cell are skipped.
func ParsePortal(r io.Reader) ([]api.RFPMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse portal html: %w", err)
	}

	var records []api.RFPMetadata
	doc.Find("table#rfp-list tbody tr").Each(func(_ int, row *goquery.Selection) {
		id := strings.TrimSpace(row.Find(".rfp-id").Text())
		title := strings.TrimSpace(row.Find(".rfp-title").Text())
		buyer := strings.TrimSpace(row.Find(".rfp-buyer").Text())
		dueStr := strings.TrimSpace(row.Find(".rfp-due").Text())
		href, hasHref := row.Find(".rfp-link a").Attr("href")
		if id == "" || title == "" || buyer == "" || dueStr == "" || !hasHref {
			return
		}

		due, err := api.ParseDate(dueStr)
		if err != nil {
			return
		}

		file := strings.TrimSpace(href)
		for strings.HasPrefix(file, "../") {
			file = file[3:]
		}

		records = append(records, api.RFPMetadata{
			ID:                id,
			Title:             title,
			Buyer:             buyer,
			SubmissionDueDate: due,
			File:              file,
			Currency:          defaultCurrency,
		})
	})
	return records, nil
}

// ScanPortals parses every .html file under dir into a flat listing.
// A missing directory yields an empty listing, not an error.
func ScanPortals(dir string) ([]api.RFPMetadata, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan portals: %w", err)
	}

	var all []api.RFPMetadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		f, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("scan portals: %w", err)
		}
		records, perr := ParsePortal(f)
		f.Close()
		if perr != nil {
			return nil, perr
		}
		all = append(all, records...)
	}
	return all, nil
}

// Agent filters listings by submission-due horizon and selects the
// earliest due RFP.
type Agent struct {
	HorizonDays int
	Now         func() time.Time
}

// NewAgent creates an agent with the given horizon in days.
func NewAgent(horizonDays int) *Agent {
	return &Agent{HorizonDays: horizonDays, Now: time.Now}
}

// Upcoming keeps RFPs with today <= due <= today+horizon.
func (a *Agent) Upcoming(rfps []api.RFPMetadata) []api.RFPMetadata {
	now := a.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, a.HorizonDays)

	var upcoming []api.RFPMetadata
	for _, r := range rfps {
		due := r.SubmissionDueDate.Time
		if !due.Before(today) && !due.After(cutoff) {
			upcoming = append(upcoming, r)
		}
	}
	return upcoming
}

// Select returns the upcoming RFP with the earliest due date, or nil
// when none qualify.
func (a *Agent) Select(rfps []api.RFPMetadata) *api.RFPMetadata {
	upcoming := a.Upcoming(rfps)
	if len(upcoming) == 0 {
		return nil
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].SubmissionDueDate.Before(upcoming[j].SubmissionDueDate.Time)
	})
	selected := upcoming[0]
	return &selected
}
