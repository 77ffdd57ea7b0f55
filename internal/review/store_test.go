package review

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/api"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "reviews"))
	require.NoError(t, err)
	return store
}

func TestStoreDraftRoundtrip(t *testing.T) {
	store := newTestStore(t)

	missing, err := store.LoadDraft("RFP-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	price := decimal.RequireFromString("2400")
	sku := "HT-3C-185"
	draft := &Draft{
		RFPID:   "RFP-1",
		SavedAt: time.Date(2024, 8, 20, 12, 0, 0, 0, time.UTC),
		SavedBy: "reviewer@example.com",
		Request: SaveRequest{
			RFPID:    "RFP-1",
			Reviewer: "reviewer@example.com",
			Overrides: []LineOverride{
				{LineID: "L1", ApprovedSKU: &sku, ManualUnitPrice: &price},
			},
		},
	}
	require.NoError(t, store.SaveDraft(draft))

	loaded, err := store.LoadDraft("RFP-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "RFP-1", loaded.RFPID)
	require.Len(t, loaded.Request.Overrides, 1)
	require.NotNil(t, loaded.Request.Overrides[0].ManualUnitPrice)
	assert.True(t, price.Equal(*loaded.Request.Overrides[0].ManualUnitPrice))
}

func TestStoreApprovedRoundtripAndList(t *testing.T) {
	store := newTestStore(t)

	approved := &Approved{
		RFPID:      "RFP-1",
		ApprovedAt: time.Date(2024, 8, 21, 9, 0, 0, 0, time.UTC),
		ApprovedBy: "lead@example.com",
		FinalResponse: &api.PipelineResult{
			Success: true,
			RFPID:   "RFP-1",
		},
		AuditTrail: []AuditEntry{
			{Action: "approved", At: time.Date(2024, 8, 21, 9, 0, 0, 0, time.UTC), By: "lead@example.com"},
		},
	}
	require.NoError(t, store.SaveApproved(approved))

	loaded, err := store.LoadApproved("RFP-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "lead@example.com", loaded.ApprovedBy)
	require.NotNil(t, loaded.FinalResponse)
	assert.True(t, loaded.FinalResponse.Success)

	require.NoError(t, store.SaveDraft(&Draft{RFPID: "RFP-2", SavedAt: time.Now()}))

	statuses, err := store.List()
	require.NoError(t, err)
	require.Contains(t, statuses, "RFP-1")
	require.Contains(t, statuses, "RFP-2")
	assert.NotNil(t, statuses["RFP-1"].ApprovedAt)
	assert.Nil(t, statuses["RFP-1"].DraftAt)
	assert.NotNil(t, statuses["RFP-2"].DraftAt)
	assert.Nil(t, statuses["RFP-2"].ApprovedAt)
}

func TestSaveRequestValidate(t *testing.T) {
	neg := decimal.RequireFromString("-1")
	bad := 1.5

	tests := []struct {
		name    string
		req     SaveRequest
		wantErr string
	}{
		{
			name: "valid",
			req:  SaveRequest{RFPID: "RFP-1", Reviewer: "r"},
		},
		{
			name:    "missing reviewer",
			req:     SaveRequest{RFPID: "RFP-1"},
			wantErr: "reviewer",
		},
		{
			name: "override without line id",
			req: SaveRequest{RFPID: "RFP-1", Reviewer: "r",
				Overrides: []LineOverride{{}}},
			wantErr: "line_id",
		},
		{
			name: "negative manual price",
			req: SaveRequest{RFPID: "RFP-1", Reviewer: "r",
				Overrides: []LineOverride{{LineID: "L1", ManualUnitPrice: &neg}}},
			wantErr: "manual_unit_price",
		},
		{
			name: "margin out of range",
			req: SaveRequest{RFPID: "RFP-1", Reviewer: "r",
				GlobalOverrides: GlobalOverrides{MarginFraction: &bad}},
			wantErr: "margin_fraction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
