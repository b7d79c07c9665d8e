// Package backup keeps an append-only JSON array file of bookings that could not reach the store.
// It is an operator audit trail; no endpoint reads it back.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/eduverse/site-backend/internal/models"
)

// Writer appends bookings to one file. Each call loads the whole file, appends, and rewrites it.
// The mutex only serializes writers inside this process; other processes writing the same file can race.
type Writer struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewWriter creates a writer for path. The file and its directory are created on first append.
func NewWriter(path string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{path: path, logger: logger}
}

// Path returns the backup file location.
func (w *Writer) Path() string { return w.path }

// Append adds one booking to the file.
func (w *Writer) Append(rec *models.RecordingRequest) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	records, err := readFile(w.path)
	if err != nil {
		return err
	}
	records = append(records, *rec)

	body, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("replace backup: %w", err)
	}
	w.logger.Info("booking written to backup file", zap.String("path", w.path), zap.String("booking_id", rec.ID), zap.Int("records", len(records)))
	return nil
}

// ReadAll returns every record in the file; a missing file is an empty list.
func (w *Writer) ReadAll() ([]models.RecordingRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return readFile(w.path)
}

func readFile(path string) ([]models.RecordingRequest, error) {
	body, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.RecordingRequest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	if len(body) == 0 {
		return []models.RecordingRequest{}, nil
	}
	var records []models.RecordingRequest
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode backup %s: %w", path, err)
	}
	return records, nil
}
