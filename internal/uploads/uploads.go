// Package uploads stores payment screenshots submitted with recording bookings.
package uploads

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eduverse/site-backend/pkg/storage"
)

// DefaultMaxBytes caps an uploaded file when no limit is configured.
const DefaultMaxBytes = 5 << 20

// ErrTooLarge is returned when a file exceeds the configured limit.
var ErrTooLarge = errors.New("file too large")

// Mirror copies a saved file to object storage.
type Mirror interface {
	PaymentsBucket() string
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, contentLength int64) (string, error)
}

// Saved describes where a payment proof ended up. Path is empty and Base64 set when the disk write failed.
type Saved struct {
	Filename string
	Path     string
	Base64   string
}

// Store writes uploads to a local directory and optionally mirrors them.
type Store struct {
	dir      string
	maxBytes int64
	mirror   Mirror
	logger   *zap.Logger
	now      func() time.Time
}

// NewStore creates an upload store rooted at dir. mirror may be nil.
func NewStore(dir string, maxBytes int64, mirror Mirror, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{dir: dir, maxBytes: maxBytes, mirror: mirror, logger: logger, now: time.Now}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// fileName builds a unique, filesystem-safe name that keeps the original for operators.
func (s *Store) fileName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "._")
	if base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%d-%s-%s", s.now().UnixMilli(), uuid.New().String()[:8], base)
}

// SavePaymentProof stores fh. Disk failure degrades to an inline base64 copy; mirror failure keeps the
// local path. Only an unreadable or oversized upload is an error.
func (s *Store) SavePaymentProof(ctx context.Context, eventID string, fh *multipart.FileHeader) (Saved, error) {
	if fh.Size > s.maxBytes {
		return Saved{}, fmt.Errorf("%s: %w", fh.Filename, ErrTooLarge)
	}
	f, err := fh.Open()
	if err != nil {
		return Saved{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxBytes+1))
	if err != nil {
		return Saved{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return Saved{}, fmt.Errorf("%s: %w", fh.Filename, ErrTooLarge)
	}

	saved := Saved{Filename: s.fileName(fh.Filename)}
	if p, err := s.writeLocal(saved.Filename, data); err != nil {
		s.logger.Warn("payment proof not written to disk, keeping inline copy", zap.String("filename", saved.Filename), zap.Error(err))
		saved.Base64 = base64.StdEncoding.EncodeToString(data)
	} else {
		saved.Path = p
	}

	if s.mirror != nil && s.mirror.PaymentsBucket() != "" {
		key := storage.PaymentKey(eventID, saved.Filename)
		url, err := s.mirror.Upload(ctx, s.mirror.PaymentsBucket(), key, storage.ContentTypeForFilename(saved.Filename), bytes.NewReader(data), int64(len(data)))
		if err != nil {
			s.logger.Warn("payment proof mirror failed", zap.String("key", key), zap.Error(err))
		} else {
			saved.Path = url
		}
	}
	return saved, nil
}

func (s *Store) writeLocal(name string, data []byte) (string, error) {
	if s.dir == "" {
		return "", errors.New("upload dir not configured")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	p := filepath.Join(s.dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	return p, nil
}
