package macro

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/arcade/pkg/catalog"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var records = []domain.GameRecord{
	{Rank: 16, Name: "Kinect Adventures!", Platform: "X360", Year: 2010, Genre: "Misc", GlobalSales: 21.82},
	{Rank: 24, Name: "Grand Theft Auto V", Platform: "X360", Year: 2013, Genre: "Action", GlobalSales: 16.38},
	{Rank: 17, Name: "Grand Theft Auto V", Platform: "PS3", Year: 2013, Genre: "Action", GlobalSales: 21.40},
	{Rank: 29, Name: "Gran Turismo 3: A-Spec", Platform: "PS2", Year: 2001, Genre: "Racing", GlobalSales: 14.98},
}

func newEnv(vars domain.Vars, args ...string) *Env {
	if vars == nil {
		vars = domain.Vars{}
	}
	return &Env{Vars: vars, Recommended: domain.Set{}, Args: args}
}

func newGames(opts ...GamesOption) *Games {
	opts = append([]GamesOption{
		WithConsoles(map[string][]string{"playstation": {"PS", "PS2", "PS3", "PS4"}}),
		WithDisplayNames(map[string]string{"playstation": "PlayStation"}),
	}, opts...)
	return NewGames(catalog.NewMemory(records), opts...)
}

func TestSystemFav(t *testing.T) {
	g := newGames()
	ctx := context.Background()

	t.Run("known platform code", func(t *testing.T) {
		env := newEnv(domain.Vars{VarDevice: "x360"})
		out, err := g.SystemFav(ctx, env)
		require.NoError(t, err)
		assert.Equal(t, "My favorite is Kinect Adventures!.", out)
		assert.Equal(t, "Kinect Adventures!", env.Vars[VarSystemFav])
	})

	t.Run("device term through the console table", func(t *testing.T) {
		out, err := g.SystemFav(ctx, newEnv(domain.Vars{VarDevice: "playstation"}))
		require.NoError(t, err)
		assert.Equal(t, "My favorite is Grand Theft Auto V.", out)
	})

	t.Run("unknown device falls back", func(t *testing.T) {
		env := newEnv(domain.Vars{VarDevice: "dreamcast"})
		out, err := g.SystemFav(ctx, env)
		require.NoError(t, err)
		assert.Equal(t, "I don't know that system well enough to have a favorite.", out)
		assert.NotContains(t, env.Vars, VarSystemFav)
	})

	t.Run("unset device falls back", func(t *testing.T) {
		out, err := g.SystemFav(ctx, newEnv(nil))
		require.NoError(t, err)
		assert.NotEmpty(t, out)
	})
}

func TestDeviceMacros(t *testing.T) {
	g := newGames()
	ctx := context.Background()
	ps := domain.Vars{VarDevice: "playstation"}

	tests := []struct {
		name string
		fn   Func
		env  *Env
		want string
	}{
		{"game count", g.GameCount, newEnv(ps), "I know 2 games that were sold for the PlayStation."},
		{"console sales", g.ConsoleSales, newEnv(domain.Vars{VarDevice: "X360"}), "Games for the X360 sold 38.2 million copies in total."},
		{"best seller argument wins", g.BestSeller, newEnv(ps, "PS2"), "The best seller on the PS2 is Gran Turismo 3: A-Spec, with 14.98 million copies."},
		{"year range", g.YearRange, newEnv(ps), "Games came out for the PlayStation from 2001 to 2013, that's 12 years."},
		{"year range single year", g.YearRange, newEnv(ps, "PS3"), "Every PS3 game I know came out in 2013."},
		{"game sales", g.GameSales, newEnv(domain.Vars{VarFavGame: "grand theft auto v"}), "grand theft auto v sold 37.78 million copies worldwide."},
		{"game count miss", g.GameCount, newEnv(domain.Vars{VarDevice: "n64"}), "I'm not sure how many games came out for that one."},
		{"game sales miss", g.GameSales, newEnv(domain.Vars{VarFavGame: "Half-Life 3"}), "I don't know how well that one sold."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.fn(ctx, tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestGameGenre_WritesGenre(t *testing.T) {
	g := newGames()
	env := newEnv(domain.Vars{VarFavGame: "Gran Turismo 3: A-Spec"})

	out, err := g.GameGenre(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, "Oh, Gran Turismo 3: A-Spec is a great racing game.", out)
	assert.Equal(t, "Racing", env.Vars[VarGenre])
}

func TestBrands(t *testing.T) {
	g := newGames(WithBrands([]string{"atari", "playstation", "xbox"}))
	out, err := g.Brands(context.Background(), newEnv(nil))
	require.NoError(t, err)
	assert.Equal(t, "I know about atari, PlayStation and xbox.", out)
}

// sequence always draws the same index and counts its draws.
type sequence struct {
	draws int
}

func (s *sequence) IntN(int) int {
	s.draws++
	return 0
}

func TestRecommender_DegradesWhenPoolExhausted(t *testing.T) {
	src := &sequence{}
	r := NewRecommender(WithSource(src))
	pool := []domain.GameRecord{{Name: "Tetris", GlobalSales: 30}}
	seen := domain.Set{}

	first, ok := r.Pick(pool, seen)
	require.True(t, ok)
	assert.Equal(t, "Tetris", first.Name)
	assert.Equal(t, 1, src.draws)

	for i := 0; i < 2; i++ {
		_, ok = r.Pick(pool, seen)
		assert.False(t, ok)
	}
	assert.Equal(t, 1+2*DefaultAttempts, src.draws, "each pick stops at the attempt cap")
}

func TestRecommend_ThreeDrawsFromSingleCandidate(t *testing.T) {
	cat := catalog.NewMemory([]domain.GameRecord{{Rank: 1, Name: "Tetris", Platform: "GB", Genre: "Puzzle", GlobalSales: 30.26}})
	g := NewGames(cat, WithRecommender(NewRecommender(WithSource(&sequence{}), WithAttempts(5))))
	env := newEnv(domain.Vars{VarDevice: "gb"})
	ctx := context.Background()

	out, err := g.Recommend(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, "You should try Tetris (GB).", out)
	assert.Equal(t, "Tetris", env.Vars[VarRecommendation])

	for i := 0; i < 2; i++ {
		out, err = g.Recommend(ctx, env)
		require.NoError(t, err)
		assert.Equal(t, NoRecommendation, out)
	}
	assert.True(t, env.Recommended.Has("Tetris"))
}

func TestRecommendGenre(t *testing.T) {
	g := newGames(WithMinSales(15), WithRecommender(NewRecommender(WithSource(&sequence{}))))
	env := newEnv(domain.Vars{VarGenre: "Action"})

	out, err := g.RecommendGenre(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, "If you like action games, you should try Grand Theft Auto V (PS3, 2013).", out)

	// The X360 release shares the title, so nothing new is left above the threshold.
	out, err = g.RecommendGenre(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, NoRecommendation, out)
}

type mockCatalog struct {
	mock.Mock
	ports.Catalog
}

func (m *mockCatalog) BestSeller(ctx context.Context, platforms ...string) (domain.GameRecord, error) {
	args := m.Called(ctx, platforms)
	return args.Get(0).(domain.GameRecord), args.Error(1)
}

func TestSystemFav_PropagatesBackendErrors(t *testing.T) {
	cat := &mockCatalog{}
	boom := errors.New("disk on fire")
	cat.On("BestSeller", mock.Anything, []string{"PS4"}).Return(domain.GameRecord{}, boom)

	_, err := NewGames(cat).SystemFav(context.Background(), newEnv(domain.Vars{VarDevice: "PS4"}))
	assert.ErrorIs(t, err, boom)
	cat.AssertExpectations(t)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("greet", func(_ context.Context, env *Env) (string, error) {
		return "hi " + env.Arg(0), nil
	}, "greeted")
	r.Register("BOOM", func(context.Context, *Env) (string, error) {
		panic("kaboom")
	})

	_, ok := r.Lookup("GREET")
	assert.True(t, ok)
	assert.Equal(t, []string{"BOOM", "GREET"}, r.Names())
	assert.Equal(t, []string{"greeted"}, r.Writes())

	out, err := r.Call(context.Background(), "greet", newEnv(nil, "bob"))
	require.NoError(t, err)
	assert.Equal(t, "hi bob", out)

	out, err = r.Call(context.Background(), "BOOM", newEnv(nil))
	assert.ErrorContains(t, err, "kaboom")
	assert.Empty(t, out)

	_, err = r.Call(context.Background(), "MISSING", newEnv(nil))
	assert.Error(t, err)
}

func TestGames_RegistersEveryMacro(t *testing.T) {
	r := NewRegistry()
	newGames().Register(r)
	assert.ElementsMatch(t, []string{
		SystemFav, GameCount, ConsoleSales, BestSeller, YearRange,
		GameGenre, GameSales, Recommend, RecommendGenre, Brands,
	}, r.Names())
	assert.ElementsMatch(t, []string{VarGenre, VarRecommendation, VarSystemFav}, r.Writes())
}
