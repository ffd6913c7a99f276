package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"philalign/api/internal/apperr"
)

// TimeLayout is the timestamp used in ledger file names.
const TimeLayout = "20060102-150405"

// Persist writes l as 2-space indented JSON to dir/<prefix>_<timestamp>.json.
// An existing file is never replaced; a numeric suffix is added instead.
func Persist(l *Ledger, dir, prefix string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	b, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode ledger: %w", err)
	}

	base := fmt.Sprintf("%s_%s", prefix, now.Format(TimeLayout))
	for n := 0; ; n++ {
		name := base + ".json"
		if n > 0 {
			name = fmt.Sprintf("%s-%d.json", base, n)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", path, err)
		}
		if _, err := f.Write(b); err != nil {
			f.Close()
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", path, err)
		}
		return path, nil
	}
}

// Load reads a ledger file written by Persist.
func Load(path string) (*Ledger, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("result file not found: %s", path)
		}
		return nil, err
	}
	l := New()
	if err := json.Unmarshal(b, l); err != nil {
		return nil, apperr.InvalidArgument("decode %s: %v", path, err)
	}
	return l, nil
}

// rewrite replaces the ledger at path in place, keeping its mtime.
func rewrite(path string, l *Ledger) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Chtimes(tmp, info.ModTime(), info.ModTime()); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
