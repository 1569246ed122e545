package ports

import (
	"context"

	"github.com/aretw0/arcade/pkg/domain"
)

// Query filters catalog records. Empty fields match everything.
type Query struct {
	// Platforms restricts results to these platform codes (e.g. "PS4", "X360").
	Platforms []string
	Genre     string
	// MinSales is the minimum global sales, in millions.
	MinSales float64
}

// Catalog answers questions about the video game sales dataset.
//
// Platform, genre and game name keys are case-insensitive. Lookups for keys
// absent from the dataset return an error wrapping catalog.ErrNotFound.
type Catalog interface {
	// GameCount returns the number of records released on any of the platforms.
	GameCount(ctx context.Context, platforms ...string) (int, error)

	// TotalSales returns the global sales summed across the platforms.
	TotalSales(ctx context.Context, platforms ...string) (float64, error)

	// BestSeller returns the record with the highest global sales on the platforms.
	BestSeller(ctx context.Context, platforms ...string) (domain.GameRecord, error)

	// SalesFor returns the global sales of a game across every platform it shipped on.
	SalesFor(ctx context.Context, name string) (float64, error)

	// YearRange returns the first and last release years on the platforms.
	YearRange(ctx context.Context, platforms ...string) (first, last int, err error)

	// GenreOf returns the genre of a game.
	GenreOf(ctx context.Context, name string) (string, error)

	// Games returns the records matching q, ordered by rank.
	Games(ctx context.Context, q Query) ([]domain.GameRecord, error)
}
