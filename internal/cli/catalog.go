package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/arcade/internal/videogames"
	"github.com/aretw0/arcade/pkg/catalog"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/ports"
)

// ImportCatalog loads a vgsales CSV into the Badger catalog at dir, replacing
// what was there. An empty csvPath imports the embedded sample.
func ImportCatalog(ctx context.Context, dir, csvPath string, logger *slog.Logger) (int, error) {
	if dir == "" {
		return 0, errors.New("no catalog directory, set ARCADE_CATALOG_DIR or --catalog-dir")
	}

	var (
		records []domain.GameRecord
		err     error
	)
	if csvPath == "" {
		records, err = videogames.SampleRecords()
	} else {
		var m *catalog.Memory
		if m, err = catalog.LoadCSV(csvPath); err == nil {
			records = m.Records()
		}
	}
	if err != nil {
		return 0, err
	}

	b, err := catalog.OpenBadger(catalog.BadgerOptions{Dir: dir, Logger: logger})
	if err != nil {
		return 0, err
	}
	defer b.Close()

	if err := b.Import(ctx, records); err != nil {
		return 0, err
	}
	return b.Len(), nil
}

// ConsoleStat summarizes the catalog for one console family.
type ConsoleStat struct {
	Console    string
	Games      int
	Sales      float64
	BestSeller string
	First      int
	Last       int
}

// CatalogStats reports every known console family, ordered by sales.
// Families without records are skipped.
func CatalogStats(ctx context.Context, c ports.Catalog) ([]ConsoleStat, error) {
	var stats []ConsoleStat
	for term, codes := range videogames.Consoles() {
		n, err := c.GameCount(ctx, codes...)
		if errors.Is(err, catalog.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", term, err)
		}
		if n == 0 {
			continue
		}

		st := ConsoleStat{Console: videogames.DisplayNames()[term], Games: n}
		if st.Console == "" {
			st.Console = term
		}
		if st.Sales, err = c.TotalSales(ctx, codes...); err != nil {
			return nil, fmt.Errorf("%s: %w", term, err)
		}
		best, err := c.BestSeller(ctx, codes...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", term, err)
		}
		st.BestSeller = best.Name
		if st.First, st.Last, err = c.YearRange(ctx, codes...); err != nil {
			return nil, fmt.Errorf("%s: %w", term, err)
		}
		stats = append(stats, st)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Sales != stats[j].Sales {
			return stats[i].Sales > stats[j].Sales
		}
		return stats[i].Console < stats[j].Console
	})
	return stats, nil
}
