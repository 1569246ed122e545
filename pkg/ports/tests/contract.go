package tests

import (
	"context"
	"testing"

	"github.com/aretw0/arcade/pkg/catalog"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixture is the dataset CatalogContractTest expects the catalog under test to hold.
var Fixture = []domain.GameRecord{
	{Rank: 1, Name: "Wii Sports", Platform: "Wii", Year: 2006, Genre: "Sports", Publisher: "Nintendo", GlobalSales: 82.74},
	{Rank: 2, Name: "Super Mario Bros.", Platform: "NES", Year: 1985, Genre: "Platform", Publisher: "Nintendo", GlobalSales: 40.24},
	{Rank: 7, Name: "New Super Mario Bros.", Platform: "DS", Year: 2006, Genre: "Platform", Publisher: "Nintendo", GlobalSales: 30.01},
	{Rank: 17, Name: "Grand Theft Auto V", Platform: "PS3", Year: 2013, Genre: "Action", Publisher: "Take-Two Interactive", GlobalSales: 21.40},
	{Rank: 24, Name: "Grand Theft Auto V", Platform: "X360", Year: 2013, Genre: "Action", Publisher: "Take-Two Interactive", GlobalSales: 16.38},
	{Rank: 29, Name: "Gran Turismo 3: A-Spec", Platform: "PS2", Year: 2001, Genre: "Racing", Publisher: "Sony Computer Entertainment", GlobalSales: 14.98},
	{Rank: 32, Name: "Kinect Adventures!", Platform: "X360", Year: 2010, Genre: "Misc", Publisher: "Microsoft Game Studios", GlobalSales: 21.82},
	{Rank: 90, Name: "Pac-Man", Platform: "2600", Year: 1982, Genre: "Puzzle", Publisher: "Atari", GlobalSales: 7.81},
	{Rank: 9000, Name: "Obscure Racer", Platform: "PS2", Genre: "Racing", GlobalSales: 0.14},
}

// CatalogContractTest verifies that an implementation of ports.Catalog loaded
// with Fixture answers lookups the same way the in-memory index does.
func CatalogContractTest(t *testing.T, c ports.Catalog) {
	t.Helper()
	ctx := context.Background()

	t.Run("GameCount", func(t *testing.T) {
		n, err := c.GameCount(ctx, "x360")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = c.GameCount(ctx, "PS2", "PS3", "PS4")
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		n, err = c.GameCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, len(Fixture), n)
	})

	t.Run("TotalSales", func(t *testing.T) {
		total, err := c.TotalSales(ctx, "X360")
		require.NoError(t, err)
		assert.InDelta(t, 38.20, total, 0.001)
	})

	t.Run("BestSeller", func(t *testing.T) {
		best, err := c.BestSeller(ctx, "x360")
		require.NoError(t, err)
		assert.Equal(t, "Kinect Adventures!", best.Name)

		best, err = c.BestSeller(ctx, "PS2", "PS3")
		require.NoError(t, err)
		assert.Equal(t, "Grand Theft Auto V", best.Name)
		assert.Equal(t, "PS3", best.Platform)
	})

	t.Run("SalesFor sums platforms", func(t *testing.T) {
		sales, err := c.SalesFor(ctx, "grand theft auto v")
		require.NoError(t, err)
		assert.InDelta(t, 37.78, sales, 0.001)
	})

	t.Run("YearRange skips unknown years", func(t *testing.T) {
		first, last, err := c.YearRange(ctx, "PS2")
		require.NoError(t, err)
		assert.Equal(t, 2001, first)
		assert.Equal(t, 2001, last)

		first, last, err = c.YearRange(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1982, first)
		assert.Equal(t, 2013, last)
	})

	t.Run("GenreOf", func(t *testing.T) {
		genre, err := c.GenreOf(ctx, "PAC-MAN")
		require.NoError(t, err)
		assert.Equal(t, "Puzzle", genre)
	})

	t.Run("Games", func(t *testing.T) {
		games, err := c.Games(ctx, ports.Query{Genre: "racing", MinSales: 1})
		require.NoError(t, err)
		require.Len(t, games, 1)
		assert.Equal(t, "Gran Turismo 3: A-Spec", games[0].Name)

		games, err = c.Games(ctx, ports.Query{Platforms: []string{"Wii", "DS"}})
		require.NoError(t, err)
		require.Len(t, games, 2)
		assert.Equal(t, 1, games[0].Rank)
		assert.Equal(t, 7, games[1].Rank)

		games, err = c.Games(ctx, ports.Query{Platforms: []string{"Dreamcast"}})
		require.NoError(t, err)
		assert.Empty(t, games)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := c.GameCount(ctx, "Dreamcast")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
		_, err = c.TotalSales(ctx, "Dreamcast")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
		_, err = c.BestSeller(ctx, "Dreamcast")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
		_, _, err = c.YearRange(ctx, "Dreamcast")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
		_, err = c.SalesFor(ctx, "Half-Life 3")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
		_, err = c.GenreOf(ctx, "Half-Life 3")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})
}
