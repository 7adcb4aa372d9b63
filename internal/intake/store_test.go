package intake

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/gethelp/internal/apperr"
)

func newTestStore(t *testing.T, maxBytes int64) *DiskStore {
	t.Helper()
	s, err := NewDiskStore(t.TempDir(), maxBytes)
	require.NoError(t, err)
	return s
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestStoreAcceptsAllowedExtensions(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"clip.wav", "clip.mp3", "clip.m4a", "clip.webm", "LOUD.WAV"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := newTestStore(t, 0)
			data := []byte("RIFF....WAVEfmt ")
			up, err := s.Store(context.Background(), bytes.NewReader(data), name, "", int64(len(data)))
			require.NoError(t, err)
			require.NotEmpty(t, up.Handle)
			require.Equal(t, int64(len(data)), up.Size)
			require.FileExists(t, up.Path)
			require.Equal(t, s.Dir(), filepath.Dir(up.Path))
			require.Equal(t, 1, s.Live())
		})
	}
}

func TestStoreAcceptsExactlyMaxBytes(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 64)
	up, err := s.Store(context.Background(), bytes.NewReader(make([]byte, 64)), "a.mp3", "audio/mpeg", 64)
	require.NoError(t, err)
	require.Equal(t, int64(64), up.Size)
}

func TestStoreRejectsInvalidUploadsWithoutLeavingFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		declared    int64
		errContains string
	}{
		{name: "text file", filename: "notes.txt", data: []byte("hello"), declared: 5, errContains: "only audio files"},
		{name: "no extension", filename: "audio", data: []byte("x"), declared: 1, errContains: "only audio files"},
		{name: "wrong content type", filename: "a.wav", contentType: "text/plain", data: []byte("x"), declared: 1, errContains: "content type"},
		{name: "declared too large", filename: "a.wav", data: []byte("x"), declared: 17, errContains: "exceeds"},
		{name: "stream too large", filename: "a.wav", data: make([]byte, 17), declared: -1, errContains: "exceeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestStore(t, 16)
			up, err := s.Store(context.Background(), bytes.NewReader(tt.data), tt.filename, tt.contentType, tt.declared)
			require.Nil(t, up)
			require.Error(t, err)
			require.True(t, apperr.IsValidation(err), "expected validation error, got %v", err)
			require.Contains(t, err.Error(), tt.errContains)
			require.Empty(t, dirEntries(t, s.Dir()))
			require.Zero(t, s.Live())
		})
	}
}

func TestStoreTreatsOctetStreamAsUndeclared(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 0)
	_, err := s.Store(context.Background(), bytes.NewReader([]byte("x")), "a.webm", "application/octet-stream", 1)
	require.NoError(t, err)
}

func TestStoreCanceledContextLeavesNoFile(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Store(ctx, bytes.NewReader([]byte("abc")), "a.wav", "", 3)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, dirEntries(t, s.Dir()))
}

func TestConcurrentStoresGetUniqueHandlesAndPaths(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 0)
	const n = 32

	var wg sync.WaitGroup
	uploads := make([]*Upload, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uploads[i], errs[i] = s.Store(context.Background(), bytes.NewReader([]byte("data")), "same.wav", "audio/wav", 4)
		}(i)
	}
	wg.Wait()

	handles := map[string]bool{}
	paths := map[string]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		handles[uploads[i].Handle] = true
		paths[uploads[i].Path] = true
	}
	require.Len(t, handles, n)
	require.Len(t, paths, n)
	require.Equal(t, n, s.Live())
}

func TestPartFilesCarryTimestampAndRandomSuffix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.Unix(1700000000, 42)

	f, err := os.CreateTemp(dir, partPattern(now))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	name := filepath.Base(f.Name())
	ts := strconv.FormatInt(now.UnixNano(), 10)
	require.Regexp(t, regexp.MustCompile(`^\.audio-`+ts+`-\d+\.part$`), name)
	require.True(t, isIntakeFile(name))
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 0)
	up, err := s.Store(context.Background(), bytes.NewReader([]byte("data")), "a.m4a", "", 4)
	require.NoError(t, err)

	require.NoError(t, s.Release(up.Handle))
	require.NoFileExists(t, up.Path)
	require.Zero(t, s.Live())

	require.NoError(t, s.Release(up.Handle))
	require.NoError(t, s.Release("never-issued"))
}

func TestReleaseToleratesFileAlreadyGone(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 0)
	up, err := s.Store(context.Background(), bytes.NewReader([]byte("data")), "a.mp3", "", 4)
	require.NoError(t, err)
	require.NoError(t, os.Remove(up.Path))

	require.NoError(t, s.Release(up.Handle))
	require.Zero(t, s.Live())
}

func TestSweepRemovesOnlyStaleIntakeFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	old := time.Now().Add(-2 * time.Hour)

	write := func(name string, mod time.Time) {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		require.NoError(t, os.Chtimes(p, mod, mod))
	}
	write("audio-1-old.wav", old)
	write(".audio-123.part", old)
	write("audio-2-fresh.wav", time.Now())
	write("keep-me.txt", old)

	removed, err := Sweep(dir, time.Hour, time.Now())
	require.NoError(t, err)
	require.Equal(t, 2, removed)
	require.ElementsMatch(t, []string{"audio-2-fresh.wav", "keep-me.txt"}, dirEntries(t, dir))
}

func TestSweepMissingDirIsNotAnError(t *testing.T) {
	t.Parallel()

	removed, err := Sweep(filepath.Join(t.TempDir(), "nope"), time.Minute, time.Now())
	require.NoError(t, err)
	require.Zero(t, removed)
}
