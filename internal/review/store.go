package review

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store persists review drafts and approvals as JSON files under a base
// directory, written atomically (temp file then rename).
type Store struct {
	baseDir string
}

// NewStore creates a file-backed review store rooted at baseDir.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create review dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) draftPath(rfpID string) string {
	return filepath.Join(s.baseDir, rfpID+"_draft.json")
}

func (s *Store) approvedPath(rfpID string) string {
	return filepath.Join(s.baseDir, rfpID+"_approved.json")
}

// ExportPath is where the export ZIP for rfpID lives.
func (s *Store) ExportPath(rfpID string) string {
	return filepath.Join(s.baseDir, rfpID+"_export.zip")
}

// SaveDraft writes a draft document.
func (s *Store) SaveDraft(draft *Draft) error {
	return s.atomicWrite(s.draftPath(draft.RFPID), draft)
}

// LoadDraft returns the latest draft for rfpID, or nil when none exists.
func (s *Store) LoadDraft(rfpID string) (*Draft, error) {
	var draft Draft
	ok, err := s.read(s.draftPath(rfpID), &draft)
	if err != nil || !ok {
		return nil, err
	}
	return &draft, nil
}

// SaveApproved writes an approved review document.
func (s *Store) SaveApproved(approved *Approved) error {
	return s.atomicWrite(s.approvedPath(approved.RFPID), approved)
}

// LoadApproved returns the approved review for rfpID, or nil when none
// exists.
func (s *Store) LoadApproved(rfpID string) (*Approved, error) {
	var approved Approved
	ok, err := s.read(s.approvedPath(rfpID), &approved)
	if err != nil || !ok {
		return nil, err
	}
	return &approved, nil
}

// List maps every RFP with review activity to its draft/approval times.
func (s *Store) List() (map[string]Status, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	result := make(map[string]Status)
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, "_draft.json"):
			rfpID := strings.TrimSuffix(name, "_draft.json")
			draft, err := s.LoadDraft(rfpID)
			if err != nil || draft == nil {
				continue
			}
			st := result[rfpID]
			at := draft.SavedAt
			st.DraftAt = &at
			result[rfpID] = st
		case strings.HasSuffix(name, "_approved.json"):
			rfpID := strings.TrimSuffix(name, "_approved.json")
			approved, err := s.LoadApproved(rfpID)
			if err != nil || approved == nil {
				continue
			}
			st := result[rfpID]
			at := approved.ApprovedAt
			st.ApprovedAt = &at
			result[rfpID] = st
		}
	}
	return result, nil
}

func (s *Store) atomicWrite(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal review doc: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write review doc: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write review doc: %w", err)
	}
	return nil
}

func (s *Store) read(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read review doc: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode review doc %s: %w", path, err)
	}
	return true, nil
}
