package ledger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"philalign/api/internal/apperr"
)

// Stored describes one ledger file in a results directory. Created comes
// from the timestamp in the file name, or the mtime when the name has none.
type Stored struct {
	Index   int       `json:"index"`
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Created time.Time `json:"created"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`

	seq int
}

// Catalog manages the ledger files in Dir. Indexes are 1-based over List.
type Catalog struct {
	Dir string
}

func NewCatalog(dir string) *Catalog { return &Catalog{Dir: dir} }

// List returns the stored ledgers, newest first.
func (c *Catalog) List() ([]Stored, error) {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []Stored
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		s := Stored{
			Name:    e.Name(),
			Path:    filepath.Join(c.Dir, e.Name()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		}
		var ok bool
		if s.Created, s.seq, ok = nameStamp(e.Name()); !ok {
			s.Created = s.ModTime
		}
		out = append(out, s)
	}
	// rewriting a ledger bumps its mtime, so order by the name stamp
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.After(out[j].Created)
		}
		if out[i].seq != out[j].seq {
			return out[i].seq > out[j].seq
		}
		return out[i].Name > out[j].Name
	})
	for i := range out {
		out[i].Index = i + 1
	}
	return out, nil
}

// nameStamp parses "<prefix>_<TimeLayout>[-N].json" as written by Persist.
func nameStamp(name string) (time.Time, int, bool) {
	stem := strings.TrimSuffix(name, ".json")
	rest := stem[strings.LastIndex(stem, "_")+1:]
	if len(rest) < len(TimeLayout) {
		return time.Time{}, 0, false
	}
	t, err := time.Parse(TimeLayout, rest[:len(TimeLayout)])
	if err != nil {
		return time.Time{}, 0, false
	}
	tail := rest[len(TimeLayout):]
	if tail == "" {
		return t, 0, true
	}
	n, err := strconv.Atoi(strings.TrimPrefix(tail, "-"))
	if err != nil || !strings.HasPrefix(tail, "-") || n < 1 {
		return time.Time{}, 0, false
	}
	return t, n, true
}

func (c *Catalog) Get(index int) (Stored, error) {
	all, err := c.List()
	if err != nil {
		return Stored{}, err
	}
	if index < 1 || index > len(all) {
		return Stored{}, apperr.NotFound("no stored result #%d (have %d)", index, len(all))
	}
	return all[index-1], nil
}

// Open loads the ledger at index.
func (c *Catalog) Open(index int) (*Ledger, Stored, error) {
	s, err := c.Get(index)
	if err != nil {
		return nil, Stored{}, err
	}
	l, err := Load(s.Path)
	return l, s, err
}

func (c *Catalog) Remove(index int) (Stored, error) {
	s, err := c.Get(index)
	if err != nil {
		return Stored{}, err
	}
	if err := os.Remove(s.Path); err != nil {
		return Stored{}, fmt.Errorf("remove %s: %w", s.Path, err)
	}
	return s, nil
}

// Clear removes every stored ledger and returns how many were removed.
func (c *Catalog) Clear() (int, error) {
	all, err := c.List()
	if err != nil {
		return 0, err
	}
	for i, s := range all {
		if err := os.Remove(s.Path); err != nil {
			return i, fmt.Errorf("remove %s: %w", s.Path, err)
		}
	}
	return len(all), nil
}

// ClearScenario drops the responses for scenarioID from every stored ledger.
func (c *Catalog) ClearScenario(scenarioID int) (int, error) {
	all, err := c.List()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, s := range all {
		l, err := Load(s.Path)
		if err != nil {
			return total, err
		}
		n := l.RemoveScenario(scenarioID)
		if n == 0 {
			continue
		}
		if err := rewrite(s.Path, l); err != nil {
			return total, fmt.Errorf("rewrite %s: %w", s.Path, err)
		}
		total += n
	}
	return total, nil
}

// Backup copies every stored ledger into dst, creating it if needed.
func (c *Catalog) Backup(dst string) (int, error) {
	all, err := c.List()
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, err
	}
	for i, s := range all {
		if err := copyFile(s.Path, filepath.Join(dst, s.Name)); err != nil {
			return i, fmt.Errorf("backup %s: %w", s.Name, err)
		}
	}
	return len(all), nil
}

// BackupDir is the default backup location for a catalog.
func (c *Catalog) BackupDir(now time.Time) string {
	return filepath.Join(c.Dir, "backup_"+now.Format("20060102_150405"))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
