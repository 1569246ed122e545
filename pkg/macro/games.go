package macro

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/arcade/internal/logging"
	"github.com/aretw0/arcade/pkg/catalog"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/ontology"
	"github.com/aretw0/arcade/pkg/ports"
)

// Variables read and written by the video game macros.
const (
	VarDevice         = "device"
	VarFavGame        = "fav_game"
	VarGenre          = "genre"
	VarSystemFav      = "system_fav"
	VarRecommendation = "recommendation"
)

// Macro names registered by Games.
const (
	SystemFav      = "SYSTEM_FAV"
	GameCount      = "GAME_COUNT"
	ConsoleSales   = "CONSOLE_SALES"
	BestSeller     = "BEST_SELLER"
	YearRange      = "YEAR_RANGE"
	GameGenre      = "GAME_GENRE"
	GameSales      = "GAME_SALES"
	Recommend      = "RECOMMEND"
	RecommendGenre = "RECOMMEND_GENRE"
	Brands         = "BRANDS"
)

// Games is the capability object behind the video game macros. It owns the
// Data Lookup, the console table and the recommender; macros never reach
// for globals.
type Games struct {
	catalog  ports.Catalog
	consoles map[string][]string
	names    map[string]string
	brands   []string
	rec      *Recommender
	minSales float64
	logger   *slog.Logger
}

// GamesOption configures Games.
type GamesOption func(*Games)

// WithConsoles maps device terms (e.g. "playstation") to dataset platform
// codes (e.g. "PS", "PS2"). Devices missing from the table are looked up as
// platform codes directly.
func WithConsoles(consoles map[string][]string) GamesOption {
	return func(g *Games) {
		for term, codes := range consoles {
			g.consoles[ontology.Normalize(term)] = append([]string(nil), codes...)
		}
	}
}

// WithDisplayNames sets how device terms are spelled in utterances.
func WithDisplayNames(names map[string]string) GamesOption {
	return func(g *Games) {
		for term, name := range names {
			g.names[ontology.Normalize(term)] = name
		}
	}
}

// WithBrands sets the list spoken by the BRANDS macro.
func WithBrands(brands []string) GamesOption {
	return func(g *Games) {
		g.brands = append([]string(nil), brands...)
	}
}

// WithRecommender replaces the default recommender.
func WithRecommender(r *Recommender) GamesOption {
	return func(g *Games) {
		g.rec = r
	}
}

// WithMinSales sets the global sales threshold, in millions, for recommendations.
func WithMinSales(min float64) GamesOption {
	return func(g *Games) {
		g.minSales = min
	}
}

// WithGamesLogger sets the logger used to report lookup misses.
func WithGamesLogger(l *slog.Logger) GamesOption {
	return func(g *Games) {
		g.logger = l
	}
}

// NewGames creates the capability object over a catalog.
func NewGames(c ports.Catalog, opts ...GamesOption) *Games {
	g := &Games{
		catalog:  c,
		consoles: make(map[string][]string),
		names:    make(map[string]string),
		rec:      NewRecommender(),
		minSales: 1,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Register adds every video game macro to r.
func (g *Games) Register(r *Registry) {
	r.Register(SystemFav, g.SystemFav, VarSystemFav)
	r.Register(GameCount, g.GameCount)
	r.Register(ConsoleSales, g.ConsoleSales)
	r.Register(BestSeller, g.BestSeller)
	r.Register(YearRange, g.YearRange)
	r.Register(GameGenre, g.GameGenre, VarGenre)
	r.Register(GameSales, g.GameSales)
	r.Register(Recommend, g.Recommend, VarRecommendation)
	r.Register(RecommendGenre, g.RecommendGenre, VarRecommendation)
	r.Register(Brands, g.Brands)
}

// Platforms returns the dataset platform codes for a device.
func (g *Games) Platforms(device string) []string {
	if codes, ok := g.consoles[ontology.Normalize(device)]; ok {
		return codes
	}
	return []string{strings.TrimSpace(device)}
}

// DisplayName returns how a device is spelled in utterances.
func (g *Games) DisplayName(device string) string {
	if name, ok := g.names[ontology.Normalize(device)]; ok {
		return name
	}
	return device
}

// device prefers the first argument over the session's device variable.
func device(env *Env) (string, bool) {
	if d := strings.TrimSpace(env.Arg(0)); d != "" {
		return d, true
	}
	return env.Vars.String(VarDevice)
}

// miss turns a not-found lookup into the fallback sentence. Other errors
// propagate so the engine reports them.
func (g *Games) miss(ctx context.Context, macro string, err error, fallback string) (string, error) {
	if errors.Is(err, catalog.ErrNotFound) {
		g.logger.DebugContext(ctx, "Lookup miss", "macro", macro, "err", err)
		return fallback, nil
	}
	return "", err
}

// SystemFav names the best selling game on the session's device.
func (g *Games) SystemFav(ctx context.Context, env *Env) (string, error) {
	const fallback = "I don't know that system well enough to have a favorite."
	d, ok := device(env)
	if !ok {
		return fallback, nil
	}
	best, err := g.catalog.BestSeller(ctx, g.Platforms(d)...)
	if err != nil {
		return g.miss(ctx, SystemFav, err, fallback)
	}
	env.Vars[VarSystemFav] = best.Name
	return fmt.Sprintf("My favorite is %s.", best.Name), nil
}

// GameCount says how many games the dataset knows for the device.
func (g *Games) GameCount(ctx context.Context, env *Env) (string, error) {
	const fallback = "I'm not sure how many games came out for that one."
	d, ok := device(env)
	if !ok {
		return fallback, nil
	}
	n, err := g.catalog.GameCount(ctx, g.Platforms(d)...)
	if err != nil {
		return g.miss(ctx, GameCount, err, fallback)
	}
	return fmt.Sprintf("I know %d games that were sold for the %s.", n, g.DisplayName(d)), nil
}

// ConsoleSales totals global sales for the device.
func (g *Games) ConsoleSales(ctx context.Context, env *Env) (string, error) {
	const fallback = "I don't have sales numbers for that one."
	d, ok := device(env)
	if !ok {
		return fallback, nil
	}
	total, err := g.catalog.TotalSales(ctx, g.Platforms(d)...)
	if err != nil {
		return g.miss(ctx, ConsoleSales, err, fallback)
	}
	return fmt.Sprintf("Games for the %s sold %.1f million copies in total.", g.DisplayName(d), total), nil
}

// BestSeller names the best seller for a platform argument, or the device.
func (g *Games) BestSeller(ctx context.Context, env *Env) (string, error) {
	const fallback = "I can't tell which game sold best there."
	d, ok := device(env)
	if !ok {
		return fallback, nil
	}
	best, err := g.catalog.BestSeller(ctx, g.Platforms(d)...)
	if err != nil {
		return g.miss(ctx, BestSeller, err, fallback)
	}
	return fmt.Sprintf("The best seller on the %s is %s, with %.2f million copies.", g.DisplayName(d), best.Name, best.GlobalSales), nil
}

// YearRange tells when the first and last games for the device came out.
func (g *Games) YearRange(ctx context.Context, env *Env) (string, error) {
	const fallback = "I don't know when games came out for that one."
	d, ok := device(env)
	if !ok {
		return fallback, nil
	}
	first, last, err := g.catalog.YearRange(ctx, g.Platforms(d)...)
	if err != nil {
		return g.miss(ctx, YearRange, err, fallback)
	}
	if first == last {
		return fmt.Sprintf("Every %s game I know came out in %d.", g.DisplayName(d), first), nil
	}
	return fmt.Sprintf("Games came out for the %s from %d to %d, that's %d years.", g.DisplayName(d), first, last, last-first), nil
}

func favGame(env *Env) (string, bool) {
	if name := strings.TrimSpace(env.Arg(0)); name != "" {
		return name, true
	}
	return env.Vars.String(VarFavGame)
}

// GameGenre looks up the genre of the user's favorite game and remembers it.
func (g *Games) GameGenre(ctx context.Context, env *Env) (string, error) {
	const fallback = "I haven't heard of that one, but it sounds fun."
	name, ok := favGame(env)
	if !ok {
		return fallback, nil
	}
	genre, err := g.catalog.GenreOf(ctx, name)
	if err != nil {
		return g.miss(ctx, GameGenre, err, fallback)
	}
	env.Vars[VarGenre] = genre
	return fmt.Sprintf("Oh, %s is a great %s game.", name, strings.ToLower(genre)), nil
}

// GameSales reports how many copies the user's favorite game sold.
func (g *Games) GameSales(ctx context.Context, env *Env) (string, error) {
	const fallback = "I don't know how well that one sold."
	name, ok := favGame(env)
	if !ok {
		return fallback, nil
	}
	sales, err := g.catalog.SalesFor(ctx, name)
	if err != nil {
		return g.miss(ctx, GameSales, err, fallback)
	}
	return fmt.Sprintf("%s sold %.2f million copies worldwide.", name, sales), nil
}

// Recommend suggests a game for the session's device, or any platform when
// the device is unknown.
func (g *Games) Recommend(ctx context.Context, env *Env) (string, error) {
	q := ports.Query{MinSales: g.minSales}
	if d, ok := device(env); ok {
		q.Platforms = g.Platforms(d)
	}
	pick, ok, err := g.pick(ctx, env, q)
	if err != nil || !ok {
		return NoRecommendation, err
	}
	return fmt.Sprintf("You should try %s.", pick.Describe()), nil
}

// RecommendGenre suggests a game in the genre of the user's favorite game.
func (g *Games) RecommendGenre(ctx context.Context, env *Env) (string, error) {
	genre, ok := env.Vars.String(VarGenre)
	if a := strings.TrimSpace(env.Arg(0)); a != "" {
		genre, ok = a, true
	}
	if !ok {
		return g.Recommend(ctx, env)
	}
	pick, ok, err := g.pick(ctx, env, ports.Query{Genre: genre, MinSales: g.minSales})
	if err != nil || !ok {
		return NoRecommendation, err
	}
	return fmt.Sprintf("If you like %s games, you should try %s.", strings.ToLower(genre), pick.Describe()), nil
}

func (g *Games) pick(ctx context.Context, env *Env, q ports.Query) (domain.GameRecord, bool, error) {
	pool, err := g.catalog.Games(ctx, q)
	if err != nil {
		return domain.GameRecord{}, false, err
	}
	if env.Recommended == nil {
		env.Recommended = make(domain.Set)
	}
	pick, ok := g.rec.Pick(pool, env.Recommended)
	if !ok {
		return pick, false, nil
	}
	env.Vars[VarRecommendation] = pick.Name
	return pick, true, nil
}

// Brands lists the top-level brands the assistant knows about.
func (g *Games) Brands(_ context.Context, _ *Env) (string, error) {
	if len(g.brands) == 0 {
		return "I know about a lot of consoles.", nil
	}
	names := make([]string, len(g.brands))
	for i, b := range g.brands {
		names[i] = g.DisplayName(b)
	}
	return "I know about " + list(names) + ".", nil
}

func list(items []string) string {
	switch len(items) {
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
