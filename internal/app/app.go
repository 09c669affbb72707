package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/config"
	stocksvc "github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/stock"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/closer"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

type app struct {
	di     *di
	server *http.Server
}

func New(ctx context.Context) (*app, error) {
	a := &app{}

	if err := a.init(ctx); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *app) Run(ctx context.Context) error { return a.run(ctx) }

func (a *app) init(ctx context.Context) error {
	inits := []func(context.Context) error{
		a.initConfig,
		a.initLogger,
		a.initCloser,
		a.initDI,
		a.initTables,
		a.initStock,
		a.initServer,
	}

	for _, initFn := range inits {
		if err := initFn(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) initConfig(_ context.Context) error {
	return config.Load()
}

func (a *app) initLogger(_ context.Context) error {
	return logger.Init(
		config.C().Logger.Level(),
		config.C().Logger.AsJSON(),
	)
}

func (a *app) initCloser(_ context.Context) error {
	closer.SetLogger(logger.L())
	return nil
}

func (a *app) initDI(_ context.Context) error {
	a.di = NewDI()
	return nil
}

func (a *app) initTables(ctx context.Context) error {
	if !a.di.UsesPostgres() {
		return nil
	}

	if err := a.di.Migrator(ctx).Up(); err != nil {
		logger.Error(ctx, "failed to apply migrations", logger.ErrorF(err))
		return err
	}
	return nil
}

func (a *app) initStock(ctx context.Context) error {
	if !config.C().Dispatch.SeedStock() {
		return nil
	}

	if err := stocksvc.Bootstrap(ctx, a.di.StockService(ctx), stocksvc.DefaultOpeningBalances()); err != nil {
		logger.Error(ctx, "failed to load opening stock", logger.ErrorF(err))
		return err
	}
	return nil
}

func (a *app) initServer(ctx context.Context) error {
	cfg := config.C()

	r := a.di.Router(ctx)
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Logger,
	)

	a.di.OrderHandler(ctx).Register(r)
	a.di.DispatchHandler(ctx).Register(r)
	a.di.StockHandler(ctx).Register(r)

	health := a.di.HealthHandler(ctx)
	r.HandleFunc("/health", health.HealthCheck)
	r.HandleFunc("/ready", health.Ready)
	r.Handle("/metrics", promhttp.HandlerFor(a.di.Registry(ctx), promhttp.HandlerOpts{}))

	a.server = &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.ReadTimeout(),
	}
	closer.AddNamed("HTTP server", a.server.Shutdown)

	return nil
}

func (a *app) run(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)

	if config.C().Kafka.Enabled() {
		eg.Go(func() error {
			logger.Info(egCtx,
				"🚀 approval consumer running",
				logger.Strings("kafka_brokers", config.C().Kafka.Brokers()),
			)
			return a.di.ApprovalConsumer(egCtx).RunApprovalConsume(egCtx)
		})
	}

	eg.Go(func() error {
		logger.Info(egCtx,
			"🚀 dispatch server listening",
			logger.String("address", config.C().Server.Address()),
		)
		err := a.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	// Shutdown stops the HTTP server, so it runs on a signal or on the first failure.
	eg.Go(func() error {
		<-egCtx.Done()
		gracefulShutdown()
		return nil
	})

	if err := eg.Wait(); err != nil {
		return err
	}
	return nil
}

//nolint:contextcheck
func gracefulShutdown() {
	ctx, cancel := context.WithTimeout(
		context.Background(), // do not inherit cancellation from ctx
		config.C().Server.ShutdownTimeout(),
	)
	defer cancel()

	err := closer.CloseAll(ctx)
	if err != nil {
		logger.Error(ctx, "❌ Error during server shutdown", logger.ErrorF(err))
		logger.Error(ctx, "❌😵‍💫 Server stopped")
		return
	}
	logger.Info(ctx, "✅ Server stopped")
}
