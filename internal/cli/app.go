package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/arcade"
	"github.com/aretw0/arcade/internal/config"
	"github.com/aretw0/arcade/internal/logging"
	"github.com/aretw0/arcade/internal/videogames"
	"github.com/aretw0/arcade/pkg/adapters/file"
	"github.com/aretw0/arcade/pkg/adapters/memory"
	redisadapter "github.com/aretw0/arcade/pkg/adapters/redis"
	"github.com/aretw0/arcade/pkg/catalog"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/macro"
	"github.com/aretw0/arcade/pkg/observability"
	"github.com/aretw0/arcade/pkg/ontology"
	"github.com/aretw0/arcade/pkg/persistence/middleware"
	"github.com/aretw0/arcade/pkg/ports"
	"github.com/aretw0/arcade/pkg/session"
)

// Store selects the session backend.
type Store string

const (
	StoreMemory Store = "memory"
	StoreFile   Store = "file"
	StoreRedis  Store = "redis"
)

// Options are the command-line choices layered over the environment config.
type Options struct {
	// GraphPath loads a YAML or JSON graph instead of the built-in video game graph.
	GraphPath string
	// Fallback is the fallback state of a custom graph.
	Fallback string
	// SessionDir is the directory of the file store.
	SessionDir string
	Store      Store
	Debug      bool
}

// App bundles everything a command needs to hold a conversation.
type App struct {
	Engine   *arcade.Engine
	Sessions *session.Manager
	Catalog  ports.Catalog
	Ontology *ontology.Ontology
	Registry *prometheus.Registry
	Logger   *slog.Logger

	closers []func() error
}

// NewApp wires the engine, its data and the session store from cfg and opts.
// The caller must Close the App.
func NewApp(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	logger, err := newLogger(cfg.LogLevel, opts.Debug)
	if err != nil {
		return nil, err
	}
	a := &App{Logger: logger, Registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if a.Catalog, err = a.openCatalog(cfg); err != nil {
		return nil, err
	}
	if a.Ontology, err = loadOntology(cfg.OntologyPath); err != nil {
		return nil, err
	}

	a.Registry.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(a.Registry)
	hooks := metrics.Hooks()
	if opts.Debug {
		hooks = hooks.Merge(observability.LoggingHooks(logger))
	}

	engineOpts := []arcade.Option{
		arcade.WithLogger(logger),
		arcade.WithLifecycleHooks(hooks),
		arcade.WithMissLimit(cfg.MaxMisses),
		arcade.WithCaptureLimit(cfg.CaptureWords),
		arcade.WithUnknownValue(cfg.Unknown),
	}
	if a.Engine, err = a.newEngine(cfg, opts, engineOpts); err != nil {
		return nil, err
	}

	if a.Sessions, err = a.openSessions(ctx, cfg, opts, metrics); err != nil {
		return nil, err
	}
	return a, nil
}

func newLogger(level string, debug bool) (*slog.Logger, error) {
	if debug {
		return logging.New(slog.LevelDebug), nil
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(lvl), nil
}

func (a *App) openCatalog(cfg *config.Config) (ports.Catalog, error) {
	switch {
	case cfg.CatalogDir != "":
		b, err := catalog.OpenBadger(catalog.BadgerOptions{Dir: cfg.CatalogDir, Logger: a.Logger})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, b.Close)
		if b.Len() == 0 {
			return nil, fmt.Errorf("catalog %s is empty, run 'arcade catalog import' first", cfg.CatalogDir)
		}
		return b, nil
	case cfg.DataPath != "":
		return catalog.LoadCSV(cfg.DataPath)
	default:
		return videogames.SampleCatalog()
	}
}

func loadOntology(path string) (*ontology.Ontology, error) {
	if path == "" {
		return videogames.Ontology()
	}
	return ontology.Load(path)
}

func (a *App) newEngine(cfg *config.Config, opts Options, engineOpts []arcade.Option) (*arcade.Engine, error) {
	rec := macro.NewRecommender(macro.WithAttempts(cfg.RecommendAttempts))
	if opts.GraphPath == "" {
		return videogames.NewEngine(videogames.Options{
			Catalog:     a.Catalog,
			Ontology:    a.Ontology,
			Recommender: rec,
			MinSales:    cfg.MinSales,
			Logger:      a.Logger,
		}, engineOpts...)
	}

	g, err := file.LoadGraph(opts.GraphPath)
	if err != nil {
		return nil, err
	}
	macros := videogames.Macros(a.Catalog, a.Ontology, a.Logger,
		macro.WithRecommender(rec), macro.WithMinSales(cfg.MinSales))
	engineOpts = append(engineOpts,
		arcade.WithName(opts.GraphPath),
		arcade.WithOntology(a.Ontology),
		arcade.WithMacros(macros),
	)
	if opts.Fallback != "" {
		engineOpts = append(engineOpts, arcade.WithFallbackState(domain.StateID(opts.Fallback)))
	}
	return arcade.New(g, engineOpts...)
}

func (a *App) openSessions(ctx context.Context, cfg *config.Config, opts Options, metrics *observability.Metrics) (*session.Manager, error) {
	kind := opts.Store
	if kind == "" {
		kind = StoreMemory
		if cfg.Redis.Enabled() {
			kind = StoreRedis
		}
	}

	var (
		store      ports.SessionStore
		managerOpt = []session.Option{session.WithLogger(a.Logger)}
	)
	switch kind {
	case StoreMemory:
		store = memory.NewStore()
	case StoreFile:
		store = file.NewStore(opts.SessionDir)
	case StoreRedis:
		if !cfg.Redis.Enabled() {
			return nil, errors.New("redis store selected but ARCADE_REDIS_URL is not set")
		}
		client, err := cfg.Redis.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		store = redisadapter.NewFromClient(client,
			redisadapter.WithPrefix(cfg.Redis.Prefix),
			redisadapter.WithTTL(cfg.Redis.TTL),
		)
		managerOpt = append(managerOpt, session.WithLocker(redisadapter.NewLocker(client, cfg.Redis.Prefix)))
	default:
		return nil, fmt.Errorf("unknown session store %q (memory, file, redis)", kind)
	}

	mws := []middleware.Middleware{middleware.Instrument(metrics)}
	active, fallback, err := cfg.EncryptionKeys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		enc, err := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}

	a.Logger.Debug("Session store ready", "store", kind, "encrypted", active != nil)
	return session.NewManager(middleware.Chain(store, mws...), managerOpt...), nil
}

// Close releases the catalog database and the Redis client.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
