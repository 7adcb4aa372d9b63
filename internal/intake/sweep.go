package intake

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Sweep removes audio and partial files in dir last modified before
// now-olderThan. It reclaims files orphaned by a crashed API process and
// returns how many were deleted.
func Sweep(dir string, olderThan time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read audio dir: %w", err)
	}

	cutoff := now.Add(-olderThan)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !isIntakeFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("remove %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}

func isIntakeFile(name string) bool {
	return strings.HasPrefix(name, "audio-") || (strings.HasPrefix(name, ".audio-") && strings.HasSuffix(name, ".part"))
}
