package catalog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/arcade/pkg/catalog"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_Contract(t *testing.T) {
	tests.CatalogContractTest(t, catalog.NewMemory(tests.Fixture))
}

func TestMemory_OrdersByRank(t *testing.T) {
	m := catalog.NewMemory([]domain.GameRecord{
		{Name: "Unranked", Platform: "PC"},
		{Rank: 5, Name: "Five", Platform: "PC"},
		{Rank: 2, Name: "Two", Platform: "PC"},
	})
	var names []string
	for _, r := range m.Records() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Two", "Five", "Unranked"}, names)
	assert.Equal(t, []string{"PC"}, m.Platforms())
}

const sampleCSV = `Rank,Name,Platform,Year,Genre,Publisher,NA_Sales,EU_Sales,JP_Sales,Other_Sales,Global_Sales
1,Wii Sports,Wii,2006,Sports,Nintendo,41.49,29.02,3.77,8.46,82.74
2,Super Mario Bros.,NES,1985,Platform,Nintendo,29.08,3.58,6.81,0.77,40.24
180,"Madden NFL 2004",PS2,N/A,Sports,Electronic Arts,4.26,0.26,0.01,0.71,5.23
`

func TestReadCSV(t *testing.T) {
	records, err := catalog.ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, domain.GameRecord{
		Rank: 1, Name: "Wii Sports", Platform: "Wii", Year: 2006, Genre: "Sports", Publisher: "Nintendo",
		NASales: 41.49, EUSales: 29.02, JPSales: 3.77, OtherSales: 8.46, GlobalSales: 82.74,
	}, records[0])
	assert.Equal(t, 0, records[2].Year, "N/A years are unknown")

	n, err := catalog.NewMemory(records).GameCount(context.Background(), "ps2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReadCSV_Errors(t *testing.T) {
	for name, data := range map[string]string{
		"empty":          "",
		"missing column": "Rank,Name,Year\n1,Tetris,1989\n",
		"bad sales":      "Name,Platform,Global_Sales\nTetris,GB,lots\n",
		"ragged row":     "Name,Platform,Global_Sales\nTetris,GB\n",
		"blank name":     "Name,Platform,Global_Sales\n,GB,1.0\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := catalog.ReadCSV(strings.NewReader(data))
			assert.Error(t, err)
		})
	}
}

func TestBadger_Contract(t *testing.T) {
	b, err := catalog.OpenBadger(catalog.BadgerOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	assert.Equal(t, 0, b.Len())
	require.NoError(t, b.Import(context.Background(), tests.Fixture))
	assert.Equal(t, len(tests.Fixture), b.Len())

	tests.CatalogContractTest(t, b)
}

func TestBadger_PersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := catalog.OpenBadger(catalog.BadgerOptions{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, b.Import(ctx, tests.Fixture))
	require.NoError(t, b.Import(ctx, tests.Fixture[:2]), "import replaces the dataset")
	require.NoError(t, b.Close())

	b, err = catalog.OpenBadger(catalog.BadgerOptions{Dir: dir})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, 2, b.Len())
	best, err := b.BestSeller(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Wii Sports", best.Name)
}

func TestOpenBadger_RequiresDir(t *testing.T) {
	_, err := catalog.OpenBadger(catalog.BadgerOptions{})
	assert.Error(t, err)
}
