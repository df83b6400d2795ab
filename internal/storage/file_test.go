package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/deliverybot/discord-tracker/internal/pipeline"
)

func testState() *pipeline.PipelineState {
	done := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	return &pipeline.PipelineState{
		MessageID:  "111222333",
		PRNumber:   42,
		PRTitle:    "Add X",
		Author:     "alice",
		Repository: "o/r",
		Branch:     "main",
		Steps: []pipeline.StepRecord{
			{
				Number:         1,
				Name:           "Build",
				Status:         pipeline.StatusSuccess,
				AdditionalInfo: []pipeline.InfoPair{{"dur", "5s"}},
				StartedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
				CompletedAt:    &done,
			},
		},
		StartedAt: time.Date(2026, 3, 1, 11, 59, 0, 0, time.UTC),
	}
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), ".discord-pipeline-state"))
}

func TestFileStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	saved := testState()

	if err := store.Save(saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned absent for a saved record")
	}

	if loaded.MessageID != saved.MessageID ||
		loaded.PRNumber != saved.PRNumber ||
		loaded.PRTitle != saved.PRTitle ||
		loaded.Author != saved.Author ||
		loaded.Repository != saved.Repository ||
		loaded.Branch != saved.Branch {
		t.Errorf("loaded state differs: %+v vs %+v", loaded, saved)
	}
	if !loaded.StartedAt.Equal(saved.StartedAt) {
		t.Errorf("StartedAt differs: %v vs %v", loaded.StartedAt, saved.StartedAt)
	}
	if len(loaded.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(loaded.Steps))
	}
	step := loaded.Steps[0]
	if step.Name != "Build" || step.Status != pipeline.StatusSuccess {
		t.Errorf("step round-trip failed: %+v", step)
	}
	if step.CompletedAt == nil || !step.CompletedAt.Equal(*saved.Steps[0].CompletedAt) {
		t.Errorf("CompletedAt round-trip failed: %v", step.CompletedAt)
	}
	if len(step.AdditionalInfo) != 1 || step.AdditionalInfo[0].Key() != "dur" || step.AdditionalInfo[0].Value() != "5s" {
		t.Errorf("AdditionalInfo round-trip failed: %v", step.AdditionalInfo)
	}
}

func TestFileStore_LoadAbsent(t *testing.T) {
	store := newTestStore(t)
	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load of missing file errored: %v", err)
	}
	if state != nil {
		t.Errorf("expected absence, got %+v", state)
	}
}

func TestFileStore_LoadEmptyFile(t *testing.T) {
	store := newTestStore(t)
	if err := os.WriteFile(store.Path(), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	state, err := store.Load()
	if err != nil || state != nil {
		t.Errorf("empty file should read as absent, got state=%v err=%v", state, err)
	}
}

func TestFileStore_EnvelopeFormat(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(testState()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	var envelope struct {
		State    json.RawMessage `json:"state"`
		Metadata struct {
			Version     string `json:"version"`
			LastUpdated string `json:"lastUpdated"`
			Checksum    string `json:"checksum"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("state file is not envelope JSON: %v", err)
	}
	if envelope.State == nil {
		t.Error("envelope missing state record")
	}
	if envelope.Metadata.Version != StateVersion {
		t.Errorf("metadata version %q, want %q", envelope.Metadata.Version, StateVersion)
	}
	if len(envelope.Metadata.Checksum) != 64 {
		t.Errorf("checksum should be hex sha256 (64 chars), got %q", envelope.Metadata.Checksum)
	}
	if _, err := time.Parse(time.RFC3339, envelope.Metadata.LastUpdated); err != nil {
		t.Errorf("lastUpdated is not RFC3339: %q", envelope.Metadata.LastUpdated)
	}
}

func TestFileStore_LegacyBareFormat(t *testing.T) {
	store := newTestStore(t)

	// An older version wrote the record without the envelope wrapper
	bare, err := json.Marshal(testState())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.Path(), bare, 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("legacy record failed to load: %v", err)
	}
	if loaded == nil || loaded.PRNumber != 42 {
		t.Errorf("legacy record not accepted: %+v", loaded)
	}
}

func TestFileStore_ChecksumRecovery(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(testState()); err != nil {
		t.Fatal(err)
	}
	// Second save backs up the first record
	second := testState()
	second.Steps[0].Name = "Deploy"
	if err := store.Save(second); err != nil {
		t.Fatal(err)
	}

	// Corrupt the primary's checksum
	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	corrupted := strings.Replace(string(data), `"checksum": "`, `"checksum": "dead`, 1)
	if err := os.WriteFile(store.Path(), []byte(corrupted), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load should recover, not error: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load should return the backup record")
	}
	if loaded.Steps[0].Name != "Build" {
		t.Errorf("expected backup content (first save), got step %q", loaded.Steps[0].Name)
	}

	// Recovery promotes the backup over the primary
	promoted, err := store.Load()
	if err != nil || promoted == nil {
		t.Fatalf("promoted record unreadable: state=%v err=%v", promoted, err)
	}
}

func TestFileStore_DoubleCorruption(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(testState()); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(testState()); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.Path()+BackupSuffix, []byte("also not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatalf("double corruption must read as absent, not error: %v", err)
	}
	if state != nil {
		t.Errorf("expected absence, got %+v", state)
	}
}

func TestFileStore_SaveRejectsInvalidState(t *testing.T) {
	store := newTestStore(t)

	bad := testState()
	bad.PRTitle = ""
	err := store.Save(bad)
	if err == nil {
		t.Fatal("expected save of invalid state to fail")
	}
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	// The write must have been refused entirely
	if _, statErr := os.Stat(store.Path()); !os.IsNotExist(statErr) {
		t.Error("invalid state must not be written to disk")
	}
}

func TestFileStore_ClearIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	if err := store.Clear(); err != nil {
		t.Fatalf("clearing an absent record errored: %v", err)
	}

	if err := store.Save(testState()); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Error("state file should be gone after Clear")
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear errored: %v", err)
	}
}

func TestFileStore_RestoreCapability(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(testState()); err != nil {
		t.Fatal(err)
	}
	second := testState()
	second.MessageID = "999"
	if err := store.Save(second); err != nil {
		t.Fatal(err)
	}

	restored, err := store.Restore()
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.MessageID != "111222333" {
		t.Errorf("Restore should return the previous record, got message id %q", restored.MessageID)
	}
}

func TestValidateWith_FallsBackForMinimalStores(t *testing.T) {
	// MemoryStore lacks the Maintainer capability; callers must still get
	// structural validation
	store := NewMemoryStore()
	bad := testState()
	bad.Author = ""
	if err := ValidateWith(store, bad); err == nil {
		t.Error("expected built-in validation to reject the record")
	}
	if err := ValidateWith(store, testState()); err != nil {
		t.Errorf("valid record rejected: %v", err)
	}
}
