package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/deliverybot/discord-tracker/internal/pipeline"
)

// DefaultStateFile is the working-directory-relative state path
const DefaultStateFile = ".discord-pipeline-state"

// BackupSuffix is appended to the state path for the last-known-good copy
const BackupSuffix = ".backup"

// stateEnvelope is the on-disk wrapper around the state record
type stateEnvelope struct {
	State    json.RawMessage `json:"state"`
	Metadata *stateMetadata  `json:"metadata,omitempty"`
}

type stateMetadata struct {
	Version     string `json:"version"`
	LastUpdated string `json:"lastUpdated"`
	Checksum    string `json:"checksum"`
}

// FileStore is the durable Store implementation: one JSON record at a fixed
// path, checksummed on write and mirrored to a sibling backup file
type FileStore struct {
	path       string
	backupPath string
}

var _ Store = (*FileStore)(nil)
var _ Maintainer = (*FileStore)(nil)

// NewFileStore creates a file-backed store at the given path
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultStateFile
	}
	return &FileStore{
		path:       path,
		backupPath: path + BackupSuffix,
	}
}

// Path returns the primary state file location
func (s *FileStore) Path() string { return s.path }

// checksum computes the record checksum over the canonical serialization.
// json.Marshal of the struct fixes field order, so the hash is independent
// of whatever key order or whitespace the file on disk happens to have.
func checksum(state *pipeline.PipelineState) (string, []byte, error) {
	canonical, err := json.Marshal(state)
	if err != nil {
		return "", nil, fmt.Errorf("failed to serialize state: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), canonical, nil
}

// Validate implements the Maintainer capability using the built-in
// structural rules
func (s *FileStore) Validate(state *pipeline.PipelineState) error {
	return pipeline.Validate(state)
}

// Backup copies the current on-disk record to the backup location.
// Absence of a current record is not an error.
func (s *FileStore) Backup() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read state for backup: %w", err)
	}
	if err := os.WriteFile(s.backupPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// Save validates the record and writes it atomically with a metadata
// envelope. The previous record is copied to the backup location first
// (best-effort), so either the old record or the new one is always
// readable.
func (s *FileStore) Save(state *pipeline.PipelineState) error {
	if err := s.Validate(state); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if err := s.Backup(); err != nil {
		log.Printf("[Storage] Backup before save failed (continuing): %v", err)
	}

	sum, canonical, err := checksum(state)
	if err != nil {
		return err
	}

	envelope := stateEnvelope{
		State: canonical,
		Metadata: &stateMetadata{
			Version:     StateVersion,
			LastUpdated: time.Now().UTC().Format(time.RFC3339),
			Checksum:    sum,
		},
	}

	data, err := json.MarshalIndent(&envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize state envelope: %w", err)
	}

	// Atomic replace: a crash mid-write leaves the old record intact
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Load reads the current record. A missing or empty file is absence, not an
// error. A record that fails its checksum or structural validation triggers
// backup recovery; if the backup is unusable too, Load reports absence so
// the caller can proceed as if this were a fresh pipeline.
func (s *FileStore) Load() (*pipeline.PipelineState, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	state, parseErr := parseRecord(data)
	if parseErr == nil {
		return state, nil
	}

	log.Printf("[Storage] State file unusable (%v), attempting backup recovery", parseErr)
	return s.recover()
}

// recover promotes the backup record over the corrupt primary. Every
// failure path returns absence: a tracker that lost its state starts over
// rather than failing the pipeline it observes.
func (s *FileStore) recover() (*pipeline.PipelineState, error) {
	data, err := os.ReadFile(s.backupPath)
	if err != nil {
		log.Printf("[Storage] No usable backup: %v", err)
		return nil, nil
	}

	state, parseErr := parseRecord(data)
	if parseErr != nil {
		log.Printf("[Storage] Backup unusable too (%v), treating state as absent", parseErr)
		return nil, nil
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		log.Printf("[Storage] Failed to promote backup over primary: %v", err)
	} else {
		log.Printf("[Storage] Recovered state from backup")
	}
	return state, nil
}

// Restore implements the Maintainer capability: parse and return the backup
// record without touching the primary
func (s *FileStore) Restore() (*pipeline.PipelineState, error) {
	data, err := os.ReadFile(s.backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	state, parseErr := parseRecord(data)
	if parseErr != nil {
		return nil, parseErr
	}
	return state, nil
}

// Clear removes the record and its backup. Absence is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	if err := os.Remove(s.backupPath); err != nil && !os.IsNotExist(err) {
		log.Printf("[Storage] Failed to remove backup file: %v", err)
	}
	return nil
}

// parseRecord decodes either the current envelope format or the legacy bare
// record, verifies the checksum when one is present, and validates the
// result structurally
func parseRecord(data []byte) (*pipeline.PipelineState, error) {
	var envelope stateEnvelope
	var raw json.RawMessage

	if err := json.Unmarshal(data, &envelope); err == nil && envelope.State != nil {
		raw = envelope.State
	} else {
		// Legacy bare format: the whole file is the state record,
		// accepted without checksum verification
		raw = data
		envelope.Metadata = nil
	}

	var state pipeline.PipelineState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state record: %w", err)
	}

	if envelope.Metadata != nil && envelope.Metadata.Checksum != "" {
		sum, _, err := checksum(&state)
		if err != nil {
			return nil, err
		}
		if sum != envelope.Metadata.Checksum {
			return nil, fmt.Errorf("checksum mismatch: stored %s, computed %s", envelope.Metadata.Checksum, sum)
		}
	}

	if err := pipeline.Validate(&state); err != nil {
		return nil, err
	}
	return &state, nil
}
