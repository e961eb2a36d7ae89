package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"SignalDigest/internal/ports"
)

// JSONStore reads and writes named JSON artifacts under a data directory.
type JSONStore struct {
	dir    string
	logger *slog.Logger
}

var _ ports.ArtifactStore = (*JSONStore)(nil)

// NewJSONStore creates the data directory if needed.
func NewJSONStore(dir string, logger *slog.Logger) (*JSONStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &JSONStore{dir: dir, logger: logger}, nil
}

// Dir returns the backing directory.
func (s *JSONStore) Dir() string {
	return s.dir
}

// ReadJSON decodes name into v. Missing or corrupt files leave v untouched and report false.
func (s *JSONStore) ReadJSON(name string, v any) bool {
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("read artifact failed", "artifact", name, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.logger.Warn("artifact is corrupt, using empty value", "artifact", name, "error", err)
		return false
	}
	return true
}

// WriteJSON replaces name with the indented encoding of v.
func (s *JSONStore) WriteJSON(name string, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	target := s.path(name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func (s *JSONStore) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, filepath.Clean(name))
}
