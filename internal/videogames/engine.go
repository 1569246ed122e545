package videogames

import (
	"log/slog"

	"github.com/aretw0/arcade"
	"github.com/aretw0/arcade/internal/logging"
	"github.com/aretw0/arcade/pkg/macro"
	"github.com/aretw0/arcade/pkg/ontology"
	"github.com/aretw0/arcade/pkg/ports"
)

// Options wires the video game conversation to its collaborators.
// Zero values fall back to the embedded ontology and dataset.
type Options struct {
	Catalog     ports.Catalog
	Ontology    *ontology.Ontology
	Recommender *macro.Recommender
	MinSales    float64
	Logger      *slog.Logger
}

// Macros builds a registry holding the video game macros over c.
func Macros(c ports.Catalog, o *ontology.Ontology, logger *slog.Logger, extra ...macro.GamesOption) *macro.Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	opts := []macro.GamesOption{
		macro.WithConsoles(consoles),
		macro.WithDisplayNames(displayNames),
		macro.WithGamesLogger(logger),
	}
	if o != nil {
		opts = append(opts, macro.WithBrands(o.Brands()))
	}
	opts = append(opts, extra...)

	r := macro.NewRegistry()
	macro.NewGames(c, opts...).Register(r)
	return r
}

// NewEngine builds the video game conversation engine. RESTART is the
// fallback state used once the user runs out of retries.
func NewEngine(o Options, extra ...arcade.Option) (*arcade.Engine, error) {
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	if o.Ontology == nil {
		ont, err := Ontology()
		if err != nil {
			return nil, err
		}
		o.Ontology = ont
	}
	if o.Catalog == nil {
		c, err := SampleCatalog()
		if err != nil {
			return nil, err
		}
		o.Catalog = c
	}

	var gamesOpts []macro.GamesOption
	if o.Recommender != nil {
		gamesOpts = append(gamesOpts, macro.WithRecommender(o.Recommender))
	}
	if o.MinSales > 0 {
		gamesOpts = append(gamesOpts, macro.WithMinSales(o.MinSales))
	}

	opts := []arcade.Option{
		arcade.WithName("videogames"),
		arcade.WithLogger(o.Logger),
		arcade.WithOntology(o.Ontology),
		arcade.WithMacros(Macros(o.Catalog, o.Ontology, o.Logger, gamesOpts...)),
		arcade.WithFallbackState(Restart.ID()),
	}
	return arcade.New(Graph(), append(opts, extra...)...)
}
