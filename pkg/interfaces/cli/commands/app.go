package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/vsinha/bakeryplan/pkg/application/services/deduction"
	"github.com/vsinha/bakeryplan/pkg/application/services/orchestration"
	"github.com/vsinha/bakeryplan/pkg/application/services/planning"
	"github.com/vsinha/bakeryplan/pkg/config"
	"github.com/vsinha/bakeryplan/pkg/domain/repositories"
	"github.com/vsinha/bakeryplan/pkg/infrastructure/events"
	"github.com/vsinha/bakeryplan/pkg/infrastructure/metrics"
	"github.com/vsinha/bakeryplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/bakeryplan/pkg/infrastructure/repositories/gormstore"
	"github.com/vsinha/bakeryplan/pkg/infrastructure/repositories/memory"
)

// App wires the stores, planner and committer selected by the configuration
type App struct {
	Orchestrator *orchestration.ProductionOrchestrator
	Events       *events.InMemoryEventStore
	Metrics      *metrics.Recorder

	cfg      *config.Config
	db       *gorm.DB
	supplies *memory.SupplyRepository
}

type stores struct {
	products repositories.ProductRepository
	recipes  repositories.RecipeRepository
	supplies repositories.SupplyRepository
	orders   repositories.OrderRepository
}

// NewApp builds the application for one command invocation
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		cfg:     cfg,
		Events:  events.NewInMemoryEventStore(),
		Metrics: metrics.NewRecorder(),
	}

	var s stores
	var err error
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		s, err = app.openPostgres()
	default:
		s, err = app.openMemory()
	}
	if err != nil {
		return nil, err
	}

	if err := app.Events.Subscribe(events.AllProductionEvents, &events.HandlerFunc{
		Types: events.AllProductionEvents,
		Fn:    logEvent,
	}); err != nil {
		return nil, fmt.Errorf("failed to subscribe event logger: %w", err)
	}

	planner := planning.NewPlannerWithConfig(s.products, s.recipes, s.supplies, planning.PlannerConfig{
		ResolveConcurrency: cfg.ResolveConcurrency,
		Metrics:            app.Metrics,
	})
	committer := deduction.NewCommitter(s.supplies, deduction.Config{
		MaxRetries:  cfg.CommitMaxRetries,
		BackoffBase: cfg.CommitBackoffBase,
		BackoffMax:  cfg.CommitBackoffMax,
		Metrics:     app.Metrics,
		Events:      app.Events,
	})
	app.Orchestrator = orchestration.NewProductionOrchestrator(planner, committer, orchestration.Options{
		Orders: s.orders,
		Events: app.Events,
	})

	log.Debug().
		Str("driver", cfg.StoreDriver).
		Str("data_dir", cfg.DataDir).
		Msg("application ready")
	return app, nil
}

func (a *App) openMemory() (stores, error) {
	data, err := csv.NewLoader().LoadDataDir(a.cfg.DataDir)
	if err != nil {
		return stores{}, fmt.Errorf("failed to load data directory: %w", err)
	}

	catalog := memory.NewCatalogRepository(len(data.Products), len(data.Recipes))
	if err := catalog.LoadProducts(data.Products); err != nil {
		return stores{}, err
	}
	if err := catalog.LoadRecipeLines(data.Recipes); err != nil {
		return stores{}, err
	}
	a.supplies = memory.NewSupplyRepository()
	if err := a.supplies.LoadSupplies(data.Supplies); err != nil {
		return stores{}, err
	}
	orders := memory.NewOrderRepository()
	if err := orders.LoadOrders(data.Orders); err != nil {
		return stores{}, err
	}

	log.Debug().
		Int("products", len(data.Products)).
		Int("supplies", len(data.Supplies)).
		Int("recipe_lines", len(data.Recipes)).
		Int("orders", len(data.Orders)).
		Msg("loaded data directory")
	return stores{products: catalog, recipes: catalog, supplies: a.supplies, orders: orders}, nil
}

func (a *App) openPostgres() (stores, error) {
	db, err := gormstore.Open(a.cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}
	a.db = db
	catalog := gormstore.NewCatalogRepository(db)
	return stores{
		products: catalog,
		recipes:  catalog,
		supplies: gormstore.NewSupplyRepository(db),
		orders:   gormstore.NewOrderRepository(db),
	}, nil
}

// Persist writes in-memory stock back to the data directory. Postgres
// commits are already durable.
func (a *App) Persist(ctx context.Context) error {
	if a.supplies == nil {
		return nil
	}
	supplies, err := a.supplies.ListSupplies(ctx)
	if err != nil {
		return err
	}
	filename := filepath.Join(a.cfg.DataDir, csv.SuppliesFile)
	if err := csv.NewLoader().WriteSupplies(filename, supplies); err != nil {
		return fmt.Errorf("failed to persist stock: %w", err)
	}
	log.Info().Str("file", filename).Msg("stock written back to data directory")
	return nil
}

// Close flushes metrics and releases the database connection
func (a *App) Close() error {
	if a.cfg.MetricsTextfile != "" {
		if err := a.Metrics.WriteToTextfile(a.cfg.MetricsTextfile); err != nil {
			log.Warn().Err(err).Str("file", a.cfg.MetricsTextfile).Msg("failed to write metrics")
		}
	}
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

func logEvent(event events.Event) error {
	log.Debug().
		Str("type", event.Type()).
		Str("stream", event.StreamID()).
		Time("at", event.Timestamp()).
		Msg("event recorded")
	return nil
}
