package mind

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Snapshotter persists a MemoryStore to a JSON file so short-term memory
// survives restarts.
type Snapshotter struct {
	store    *MemoryStore
	file     string
	interval time.Duration
	log      zerolog.Logger

	mu           sync.Mutex
	lastChecksum string
}

type snapshotFile struct {
	SavedAt time.Time         `json:"saved_at"`
	Records map[string]Record `json:"records"`
}

func NewSnapshotter(store *MemoryStore, file string, interval time.Duration, log zerolog.Logger) *Snapshotter {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Snapshotter{
		store:    store,
		file:     file,
		interval: interval,
		log:      log.With().Str("component", "snapshot").Logger(),
	}
}

// Load restores the store from disk. A missing file is not an error.
func (s *Snapshotter) Load() (int, error) {
	data, err := os.ReadFile(s.file)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, fmt.Errorf("invalid snapshot %s: %w", s.file, err)
	}
	s.store.Restore(snap.Records)

	s.mu.Lock()
	s.lastChecksum = checksum(recordsJSON(snap.Records))
	s.mu.Unlock()
	return len(snap.Records), nil
}

// Save writes the store when it changed since the last save.
func (s *Snapshotter) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.store.Snapshot()
	sum := checksum(recordsJSON(records))
	if sum == s.lastChecksum {
		return nil
	}

	data, err := json.MarshalIndent(snapshotFile{SavedAt: time.Now().UTC(), Records: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := writeFileAtomic(s.file, data); err != nil {
		return err
	}
	s.lastChecksum = sum
	return nil
}

// Run autosaves until ctx is done, then saves one last time.
func (s *Snapshotter) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.Save()
		case <-ticker.C:
			if err := s.Save(); err != nil {
				s.log.Error().Err(err).Msg("auto-save error")
			}
		}
	}
}

// recordsJSON is the checksum input; SavedAt is left out so an unchanged
// store hashes the same.
func recordsJSON(records map[string]Record) []byte {
	b, _ := json.Marshal(records)
	return b
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// writeFileAtomic writes through a synced temp file and a rename.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
