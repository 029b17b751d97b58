// Package archive manages previously downloaded forecast archives on local
// disk: deterministic file naming, discovery by extension and forecast type,
// and the date ranges that drive bulk retrieval.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/ensemble-forecast-service/internal/domain"
)

// Store lists and names forecast archives inside a data directory.
type Store struct {
	dir string
}

// NewStore creates a Store over the given directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// PathFor returns the deterministic archive path for a kind and base date,
// e.g. enfo_pf_2024_05_13.nc. The date must be formatted YYYY-MM-DD.
func (s *Store) PathFor(kind domain.ForecastKind, date string) (string, error) {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("date has to be in the format: 'YYYY-MM-DD'")
	}
	return filepath.Join(s.dir, fmt.Sprintf("enfo_%s_%s.nc", kind, parsed.Format("2006_01_02"))), nil
}

// Exists reports whether the archive for a kind and date is already on disk.
func (s *Store) Exists(kind domain.ForecastKind, date string) bool {
	path, err := s.PathFor(kind, date)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// List returns the archive files in the data directory with the given
// extension and forecast-type marker in their name, sorted by name. The
// extension is matched with or without a leading dot.
func (s *Store) List(ext string, kind domain.ForecastKind) ([]string, error) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	marker := fmt.Sprintf("_%s_", kind)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read data directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) == ext && strings.Contains(name, marker) {
			files = append(files, filepath.Join(s.dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// DateRange returns every date between start and end inclusive, formatted
// YYYY-MM-DD. End before start is an error.
func DateRange(start, end string) ([]string, error) {
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("invalid date format. Please use 'YYYY-MM-DD'")
	}
	endDate, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, fmt.Errorf("invalid date format. Please use 'YYYY-MM-DD'")
	}
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("end date cannot be before start date")
	}

	var dates []string
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return dates, nil
}
