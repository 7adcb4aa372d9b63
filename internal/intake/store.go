// Package intake validates uploaded audio and owns the temp files backing it.
package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/gethelp/internal/apperr"
)

// DefaultMaxBytes is the upload ceiling used when none is configured.
const DefaultMaxBytes int64 = 10 * 1024 * 1024

var allowedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".webm": true,
}

var allowedContentTypes = map[string]bool{
	"audio/wav":      true,
	"audio/wave":     true,
	"audio/x-wav":    true,
	"audio/vnd.wave": true,
	"audio/mpeg":     true,
	"audio/mp3":      true,
	"audio/mp4":      true,
	"audio/m4a":      true,
	"audio/x-m4a":    true,
	"audio/webm":     true,
	"video/webm":     true,
}

// Upload is a stored audio blob owned by the request that created it.
type Upload struct {
	Handle      string
	Path        string
	Ext         string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}

// DiskStore keeps uploads as files under a single directory.
type DiskStore struct {
	dir      string
	maxBytes int64

	mu   sync.Mutex
	live map[string]string // handle -> path
}

func NewDiskStore(dir string, maxBytes int64) (*DiskStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &DiskStore{
		dir:      dir,
		maxBytes: maxBytes,
		live:     make(map[string]string),
	}, nil
}

func (s *DiskStore) Dir() string     { return s.dir }
func (s *DiskStore) MaxBytes() int64 { return s.maxBytes }

// Store validates the upload and writes it to a unique file. size is the
// declared length; pass -1 when unknown. Nothing is left on disk when an
// error is returned.
func (s *DiskStore) Store(ctx context.Context, r io.Reader, filename, contentType string, size int64) (*Upload, error) {
	ext, err := s.validate(filename, contentType, size)
	if err != nil {
		return nil, err
	}

	part, err := os.CreateTemp(s.dir, partPattern(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("create temp audio: %w", err)
	}
	partPath := part.Name()

	written, err := io.Copy(part, io.LimitReader(&ctxReader{ctx: ctx, r: r}, s.maxBytes+1))
	closeErr := part.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		removeQuiet(partPath)
		return nil, fmt.Errorf("write audio: %w", err)
	}
	if written > s.maxBytes {
		removeQuiet(partPath)
		return nil, apperr.Validation("audio", "file exceeds %d bytes", s.maxBytes)
	}

	handle := uuid.NewString()
	now := time.Now()
	finalPath := filepath.Join(s.dir, fmt.Sprintf("audio-%d-%s%s", now.UnixNano(), handle, ext))
	if err := os.Rename(partPath, finalPath); err != nil {
		removeQuiet(partPath)
		return nil, fmt.Errorf("finalize audio: %w", err)
	}

	s.mu.Lock()
	s.live[handle] = finalPath
	s.mu.Unlock()

	return &Upload{
		Handle:      handle,
		Path:        finalPath,
		Ext:         strings.TrimPrefix(ext, "."),
		ContentType: contentType,
		Size:        written,
		CreatedAt:   now,
	}, nil
}

// Release deletes the file behind handle. Releasing an unknown or already
// released handle is a no-op.
func (s *DiskStore) Release(handle string) error {
	s.mu.Lock()
	path, ok := s.live[handle]
	delete(s.live, handle)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove audio %s: %w", handle, err)
	}
	return nil
}

// Live reports how many uploads have not been released yet.
func (s *DiskStore) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *DiskStore) validate(filename, contentType string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", apperr.Validation("audio", "only audio files are allowed (wav, mp3, m4a, webm), got %q", filepath.Base(filename))
	}
	if ct := normalizeContentType(contentType); ct != "" && !allowedContentTypes[ct] {
		return "", apperr.Validation("audio", "content type %q is not an allowed audio type", contentType)
	}
	if size > s.maxBytes {
		return "", apperr.Validation("audio", "file exceeds %d bytes", s.maxBytes)
	}
	return ext, nil
}

func normalizeContentType(ct string) string {
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	if mt == "application/octet-stream" {
		return ""
	}
	return mt
}

// partPattern names in-flight uploads .audio-<unixnano>-<rand>.part so a
// sweep can age them even before they are renamed.
func partPattern(now time.Time) string {
	return fmt.Sprintf(".audio-%d-*.part", now.UnixNano())
}

func removeQuiet(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove partial audio", "path", path, "error", err)
	}
}

// ctxReader stops a copy once the request is gone.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
