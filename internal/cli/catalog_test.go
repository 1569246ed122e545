package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arcade/internal/videogames"
)

func TestImportCatalog_Sample(t *testing.T) {
	dir := t.TempDir()
	n, err := ImportCatalog(context.Background(), dir, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 58, n)

	cfg := loadConfig(t)
	cfg.CatalogDir = dir
	app := newApp(t, cfg, Options{})

	out := play(t, app, RunOptions{}, "yes", "ps4", "exit")
	assert.Contains(t, out, "I know 11 games that were sold for the PlayStation.")
}

func TestImportCatalog_CSV(t *testing.T) {
	csv := filepath.Join(t.TempDir(), "vgsales.csv")
	require.NoError(t, os.WriteFile(csv, []byte(
		"Rank,Name,Platform,Year,Genre,Publisher,NA_Sales,EU_Sales,JP_Sales,Other_Sales,Global_Sales\n"+
			"1,Tetris,GB,1989,Puzzle,Nintendo,23.2,2.26,4.22,0.58,30.26\n"+
			"2,Pokemon Red/Pokemon Blue,GB,1996,Role-Playing,Nintendo,11.27,8.89,10.22,1,31.37\n",
	), 0o644))

	dir := t.TempDir()
	n, err := ImportCatalog(context.Background(), dir, csv, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImportCatalog_Errors(t *testing.T) {
	_, err := ImportCatalog(context.Background(), "", "", nil)
	assert.ErrorContains(t, err, "no catalog directory")

	_, err = ImportCatalog(context.Background(), t.TempDir(), filepath.Join(t.TempDir(), "missing.csv"), nil)
	assert.Error(t, err)
}

func TestCatalogStats(t *testing.T) {
	c, err := videogames.SampleCatalog()
	require.NoError(t, err)

	stats, err := CatalogStats(context.Background(), c)
	require.NoError(t, err)
	require.NotEmpty(t, stats)

	for i := 1; i < len(stats); i++ {
		assert.GreaterOrEqual(t, stats[i-1].Sales, stats[i].Sales)
	}
	for _, st := range stats {
		if st.Console == "PlayStation" {
			assert.Equal(t, 11, st.Games)
			assert.Equal(t, "Grand Theft Auto V", st.BestSeller)
			assert.Equal(t, 1997, st.First)
			assert.Equal(t, 2016, st.Last)
		}
	}
}
