package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// stateFile is the on-disk shape of the processed-link index: for each
// source document, the URLs already captured from it.
type stateFile struct {
	Processed map[string][]string `json:"processed"`
}

// StateStore persists the exactly-once accounting. Commit flushes to disk
// before returning, so a crash mid-scan re-processes at most the URL that
// was in flight.
type StateStore struct {
	path   string
	logger *slog.Logger

	mu        sync.Mutex
	processed map[string][]string
}

// OpenState loads the state file, tolerating a missing one. An unreadable
// or unparseable file starts empty: re-capturing is harmless because note
// and ledger writes both deduplicate.
func OpenState(path string, logger *slog.Logger) (*StateStore, error) {
	s := &StateStore{path: path, logger: logger, processed: map[string][]string{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("intake: read state %s: %w", path, err)
	}
	var f stateFile
	if err := json.Unmarshal(data, &f); err != nil {
		logger.Warn("intake: unparseable state file, starting fresh", "path", path, "error", err)
		return s, nil
	}
	if f.Processed != nil {
		s.processed = f.Processed
	}
	return s, nil
}

// Seen reports whether url has already been captured from doc.
func (s *StateStore) Seen(doc, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.processed[doc] {
		if u == url {
			return true
		}
	}
	return false
}

// Commit records url under doc and flushes the file. Re-committing a known
// URL is a no-op.
func (s *StateStore) Commit(doc, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.processed[doc] {
		if u == url {
			return nil
		}
	}
	s.processed[doc] = append(s.processed[doc], url)
	return s.flushLocked()
}

// Docs returns the documents with processed links, for introspection.
func (s *StateStore) Docs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.processed))
	for doc := range s.processed {
		out = append(out, doc)
	}
	return out
}

func (s *StateStore) flushLocked() error {
	data, err := json.MarshalIndent(stateFile{Processed: s.processed}, "", "  ")
	if err != nil {
		return fmt.Errorf("intake: marshal state: %w", err)
	}
	data = append(data, '\n')
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("intake: flush state: %w", err)
	}
	return nil
}

// writeFileAtomic mirrors the vault store's write discipline for the state
// file, which lives outside the vault.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".ansuz-state-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	success = true
	return nil
}
