package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"NewsroomStats/internal/aggregate"
	"NewsroomStats/internal/config"
	"NewsroomStats/internal/department"
	"NewsroomStats/internal/infrastructure/httpapi"
	"NewsroomStats/internal/infrastructure/jsonfile"
	"NewsroomStats/internal/infrastructure/mongostore"
	"NewsroomStats/internal/infrastructure/scheduler"
	"NewsroomStats/internal/infrastructure/storage"
	"NewsroomStats/internal/infrastructure/telegram"
	"NewsroomStats/internal/logging"
	"NewsroomStats/internal/period"
	"NewsroomStats/internal/report"
	"NewsroomStats/internal/source"
	"NewsroomStats/internal/usecase"
)

// Source kinds accepted in source.kind.
const (
	SourceMongo    = "mongo"
	SourcePostgres = "postgres"
	SourceJSONFile = "jsonfile"
)

// Application wires configs to use cases and lifecycle orchestration.
// Database connections are opened on first use.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	engine *aggregate.Engine

	mongoClient *mongo.Client
	db          *sql.DB
	dashboard   *usecase.Dashboard
}

// New builds the application without touching any database.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	resolver := department.NewResolver(department.Tables{
		ByReporter: cfg.Departments.ByReporter,
		ByID:       cfg.Departments.ByID,
	}, cfg.Departments.Unknown)

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		engine: aggregate.NewEngine(resolver),
	}
}

// Serve runs the HTTP API until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	dashboard, src, err := a.buildDashboard(ctx)
	if err != nil {
		return err
	}

	server, err := httpapi.NewServer(httpapi.ServerDeps{
		Source:            src,
		Dashboard:         dashboard,
		Logger:            a.logger.With("component", "http"),
		RequestsPerSecond: a.cfg.Server.RequestsPerSecond,
		Burst:             a.cfg.Server.Burst,
	})
	if err != nil {
		return err
	}
	return server.Serve(ctx, a.cfg.Server.Addr)
}

// Collect snapshots recent articles once, or on every scheduler tick when
// watch is set.
func (a *Application) Collect(ctx context.Context, watch bool) error {
	collector, err := a.buildCollector(ctx)
	if err != nil {
		return err
	}

	if !watch {
		_, err := collector.Collect(ctx, time.Now().In(a.cfg.Scheduler.Location()))
		return err
	}

	driver := scheduler.NewTickerScheduler(a.cfg.Scheduler.Interval, a.cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, collector, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("collector scheduled", "interval", a.cfg.Scheduler.Interval)

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// ReportOptions selects one ranking table for the terminal.
type ReportOptions struct {
	Granularity string
	GroupBy     string
	Period      string
	Department  string
	Sort        string
	Direction   string
	// Format is table or csv.
	Format string
	// Notify also sends the weekly digest via Telegram.
	Notify bool
}

// Report renders one ranking table to w.
func (a *Application) Report(ctx context.Context, opts ReportOptions, w io.Writer) error {
	granularity, err := period.ParseGranularity(opts.Granularity)
	if err != nil {
		return err
	}
	groupBy, err := aggregate.ParseGroupBy(opts.GroupBy)
	if err != nil {
		return err
	}
	dir, err := aggregate.ParseDirection(opts.Direction)
	if err != nil {
		return err
	}
	sortColumn := aggregate.Column(opts.Sort)
	if sortColumn == "" {
		sortColumn = aggregate.ColumnTotalViews
	}

	dashboard, _, err := a.buildDashboard(ctx)
	if err != nil {
		return err
	}
	view, err := dashboard.Table(ctx, usecase.TableRequest{
		Granularity: granularity,
		GroupBy:     groupBy,
		Period:      opts.Period,
		Department:  opts.Department,
		Sort:        sortColumn,
		Direction:   dir,
	})
	if err != nil {
		return err
	}

	switch opts.Format {
	case "", "table":
		err = report.Table(w, view.Period, view.Groups, groupBy)
	case "csv":
		err = report.CSV(w, view.Period, view.Groups, groupBy)
	default:
		err = fmt.Errorf("unknown report format %q", opts.Format)
	}
	if err != nil {
		return err
	}

	if !opts.Notify {
		return nil
	}
	notifier := telegram.NewNotifier(a.cfg.Notifications.Telegram.BotToken, a.cfg.Notifications.Telegram.ChatID)
	if !notifier.Configured() {
		return errors.New("telegram notifications are not configured")
	}
	digest := usecase.NewDigest(dashboard, notifier, a.cfg.Dashboard.DigestTop, a.logger.With("component", "digest"))
	return digest.Publish(ctx, time.Now())
}

// Close releases every opened connection.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect mongo: %w", err))
		}
		a.mongoClient = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		a.db = nil
	}
	return errors.Join(errs...)
}

func (a *Application) buildDashboard(ctx context.Context) (*usecase.Dashboard, *source.Defaults, error) {
	registry, err := a.buildRegistry(ctx)
	if err != nil {
		return nil, nil, err
	}
	named, err := registry.Resolve(a.cfg.Source.Kind)
	if err != nil {
		return nil, nil, err
	}

	src := source.NewDefaults(named, a.cfg.Source.Limit, a.cfg.Source.Lookback, a.logger.With("component", "source", "kind", named.Name()))
	if a.dashboard == nil {
		a.dashboard = usecase.NewDashboard(usecase.DashboardDeps{
			Source:            src,
			Engine:            a.engine,
			CacheTTL:          a.cfg.Dashboard.CacheTTL,
			KeepTotalOnFilter: a.cfg.Dashboard.KeepTotal(),
			TrackedKeys:       a.cfg.Dashboard.TrackedKeys,
			ChartMonths:       a.cfg.Dashboard.ChartMonths,
			ExcludeCategories: a.cfg.Dashboard.ExcludeCategories,
			Logger:            a.logger.With("component", "dashboard"),
		})
	}
	return a.dashboard, src, nil
}

// buildRegistry registers the file source and the configured database
// source. Unknown kinds are reported by Registry.Resolve.
func (a *Application) buildRegistry(ctx context.Context) (*source.Registry, error) {
	registry := source.NewRegistry()
	registry.Register(jsonfile.NewSource(a.cfg.Source.File))

	switch a.cfg.Source.Kind {
	case SourceMongo:
		client, err := a.mongo(ctx)
		if err != nil {
			return nil, err
		}
		collection := client.Database(a.cfg.Mongo.Database).Collection(a.cfg.Mongo.Collection)
		registry.Register(mongostore.NewArticleSource(collection, mongostore.SourceOptions{
			RequireRef: a.cfg.Mongo.RequireRef,
			Timeout:    a.cfg.Mongo.Timeout,
		}, a.logger.With("component", "source.mongo")))
	case SourcePostgres:
		db, err := a.postgres()
		if err != nil {
			return nil, err
		}
		registry.Register(storage.NewNewsInfoRepository(db))
	}
	return registry, nil
}

func (a *Application) buildCollector(ctx context.Context) (*usecase.Collector, error) {
	db, err := a.postgres()
	if err != nil {
		return nil, err
	}
	client, err := a.mongo(ctx)
	if err != nil {
		return nil, err
	}

	collection := client.Database(a.cfg.Mongo.Database).Collection(a.cfg.Mongo.SnapshotCollection)
	return usecase.NewCollector(usecase.CollectorDeps{
		Feed:   storage.NewNewsInfoRepository(db),
		Store:  mongostore.NewSnapshotStore(collection, a.cfg.Mongo.Timeout),
		Window: a.cfg.Collector.Window,
		Logger: a.logger.With("component", "collector"),
	}), nil
}

func (a *Application) mongo(ctx context.Context) (*mongo.Client, error) {
	if a.mongoClient != nil {
		return a.mongoClient, nil
	}
	client, err := mongostore.Connect(ctx, a.cfg.Mongo.URI, a.cfg.Mongo.Timeout)
	if err != nil {
		return nil, err
	}
	a.mongoClient = client
	return client, nil
}

func (a *Application) postgres() (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := storage.Open(a.cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}
