// Package catalog implements the Data Lookup over the video game sales dataset.
//
// Memory is the in-process index every implementation builds on. ReadCSV
// loads the vgsales CSV layout and Badger keeps an imported dataset on disk.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/ports"
)

// ErrNotFound is returned when a platform, genre or game is not in the dataset.
var ErrNotFound = errors.New("catalog: not found")

var _ ports.Catalog = (*Memory)(nil)

// Memory is an immutable in-memory index over dataset records.
// It is safe for concurrent use.
type Memory struct {
	records    []domain.GameRecord
	byPlatform map[string][]int
	byName     map[string][]int
}

// NewMemory indexes records. Records are ordered by rank; rows without a rank
// keep their relative order after the ranked ones.
func NewMemory(records []domain.GameRecord) *Memory {
	sorted := append([]domain.GameRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sorted[i].Rank, sorted[j].Rank
		if ri == 0 || rj == 0 {
			return ri != 0 && rj == 0
		}
		return ri < rj
	})

	m := &Memory{
		records:    sorted,
		byPlatform: make(map[string][]int),
		byName:     make(map[string][]int),
	}
	for i, r := range sorted {
		p := key(r.Platform)
		m.byPlatform[p] = append(m.byPlatform[p], i)
		n := key(r.Name)
		m.byName[n] = append(m.byName[n], i)
	}
	return m
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Len returns the number of records.
func (m *Memory) Len() int {
	return len(m.records)
}

// Records returns a copy of every record, ordered by rank.
func (m *Memory) Records() []domain.GameRecord {
	return append([]domain.GameRecord(nil), m.records...)
}

// Platforms returns the platform codes present in the dataset.
func (m *Memory) Platforms() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range m.records {
		if !seen[key(r.Platform)] {
			seen[key(r.Platform)] = true
			out = append(out, r.Platform)
		}
	}
	sort.Strings(out)
	return out
}

// selectPlatforms returns the indexes of every record on the platforms,
// ordered by rank. No platform at all selects the whole dataset.
func (m *Memory) selectPlatforms(platforms []string) ([]int, error) {
	if len(platforms) == 0 {
		idx := make([]int, len(m.records))
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	}
	var idx []int
	seen := make(map[string]bool)
	for _, p := range platforms {
		k := key(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		idx = append(idx, m.byPlatform[k]...)
	}
	if len(idx) == 0 {
		return nil, fmt.Errorf("platform %s: %w", strings.Join(platforms, ", "), ErrNotFound)
	}
	sort.Ints(idx)
	return idx, nil
}

// GameCount counts the records on the platforms, or in the whole dataset.
func (m *Memory) GameCount(_ context.Context, platforms ...string) (int, error) {
	idx, err := m.selectPlatforms(platforms)
	if err != nil {
		return 0, err
	}
	return len(idx), nil
}

// TotalSales sums global sales in millions over the platforms.
func (m *Memory) TotalSales(_ context.Context, platforms ...string) (float64, error) {
	idx, err := m.selectPlatforms(platforms)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, i := range idx {
		total += m.records[i].GlobalSales
	}
	return total, nil
}

// BestSeller returns the record with the highest global sales. Ties go to
// the better ranked record.
func (m *Memory) BestSeller(_ context.Context, platforms ...string) (domain.GameRecord, error) {
	idx, err := m.selectPlatforms(platforms)
	if err != nil {
		return domain.GameRecord{}, err
	}
	best := idx[0]
	for _, i := range idx[1:] {
		if m.records[i].GlobalSales > m.records[best].GlobalSales {
			best = i
		}
	}
	return m.records[best], nil
}

// SalesFor returns the global sales of the best ranked record named name.
func (m *Memory) SalesFor(_ context.Context, name string) (float64, error) {
	idx, ok := m.byName[key(name)]
	if !ok {
		return 0, fmt.Errorf("game %q: %w", name, ErrNotFound)
	}
	var total float64
	for _, i := range idx {
		total += m.records[i].GlobalSales
	}
	return total, nil
}

// YearRange returns the first and last release year on the platforms,
// ignoring records without one.
func (m *Memory) YearRange(_ context.Context, platforms ...string) (int, int, error) {
	idx, err := m.selectPlatforms(platforms)
	if err != nil {
		return 0, 0, err
	}
	first, last := 0, 0
	for _, i := range idx {
		y := m.records[i].Year
		if y <= 0 {
			continue
		}
		if first == 0 || y < first {
			first = y
		}
		if y > last {
			last = y
		}
	}
	if first == 0 {
		return 0, 0, fmt.Errorf("release years for %s: %w", strings.Join(platforms, ", "), ErrNotFound)
	}
	return first, last, nil
}

// GenreOf returns the genre of the best ranked record with that name.
func (m *Memory) GenreOf(_ context.Context, name string) (string, error) {
	idx, ok := m.byName[key(name)]
	if !ok || m.records[idx[0]].Genre == "" {
		return "", fmt.Errorf("genre of %q: %w", name, ErrNotFound)
	}
	return m.records[idx[0]].Genre, nil
}

// Games lists the records matching q, ordered by rank. It never returns
// ErrNotFound; an empty result is a valid answer.
func (m *Memory) Games(_ context.Context, q ports.Query) ([]domain.GameRecord, error) {
	idx, err := m.selectPlatforms(q.Platforms)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	genre := key(q.Genre)
	var out []domain.GameRecord
	for _, i := range idx {
		r := m.records[i]
		if genre != "" && key(r.Genre) != genre {
			continue
		}
		if r.GlobalSales < q.MinSales {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
