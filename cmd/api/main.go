package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"bookstore/pkg/api"
	"bookstore/pkg/catalog"
	"bookstore/pkg/catalog/cache"
	catmem "bookstore/pkg/catalog/memory"
	"bookstore/pkg/catalog/sqlstore"
	"bookstore/pkg/config"
	"bookstore/pkg/logger"
	"bookstore/pkg/order"
	ordmem "bookstore/pkg/order/memory"
	"bookstore/pkg/order/mysql"
	pg "bookstore/pkg/order/postgres"
	"bookstore/pkg/otel"
	"bookstore/pkg/session"

	_ "bookstore/docs"
)

const serviceName = "bookstore"

// @title Bookstore API
// @version 1.0
// @description Catalog and order placement for the bookstore
// @host localhost:8443
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in cookie
// @name session_id
func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.FromEnv()
	level, lerr := logger.ParseLevel(cfg.LogLevel)
	log := logger.New(os.Stdout, level, serviceName, otel.GetTraceID)
	defer log.Sync()
	if err != nil {
		log.Error(ctx, "load config", "error", err)
		return err
	}
	if lerr != nil {
		log.Warn(ctx, "log level", "error", lerr)
	}

	tp, shutdownTracing, err := otel.InitTracing(log, otel.Config{
		ServiceName: serviceName,
		Host:        cfg.OtelHost,
		Probability: cfg.OtelProbability,
	})
	if err != nil {
		log.Error(ctx, "init tracing", "error", err)
		return err
	}
	defer shutdownTracing(context.Background())

	books, ledger, closeDB, err := openStores(ctx, cfg)
	if err != nil {
		log.Error(ctx, "open stores", "driver", cfg.StoreDriver, "error", err)
		return err
	}
	defer closeDB()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn(ctx, "redis unreachable", "addr", cfg.RedisAddr, "error", err)
	}

	books = cache.New(books, rdb, serviceName, cfg.CatalogCacheTTL, log)
	sessions := session.New(rdb, cfg.SessionTTL, cfg.Managers, cfg.Admins)
	orders := order.NewService(order.NewAggregator(books, ledger))

	srv := api.New(orders, books, sessions, log, tp.Tracer(serviceName))
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listen := httpServer.ListenAndServe
	if cfg.TLSCert != "" {
		listen = func() error { return httpServer.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey) }
	}
	log.Info(ctx, "listening", "addr", cfg.HTTPAddr, "tls", cfg.TLSCert != "")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	return serve(log, httpServer, listen, quit)
}

// serve runs listen until it fails or quit delivers a signal, in which case
// srv is shut down gracefully.
func serve(log *logger.Logger, srv *http.Server, listen func() error, quit <-chan os.Signal) error {
	ctx := context.Background()
	errc := make(chan error, 1)
	go func() { errc <- listen() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		log.Error(ctx, "server failed", "error", err)
		return err
	case sig := <-quit:
		log.Info(ctx, "shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "shutdown", "error", err)
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// openStores builds the catalog and the order ledger for the configured driver.
func openStores(ctx context.Context, cfg config.Config) (catalog.Store, order.Ledger, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		return catmem.New(), ordmem.New(), func() {}, nil
	}

	var (
		db     *sql.DB
		ledger interface {
			order.Ledger
			Migrate(context.Context) error
		}
		err error
	)
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if db, err = sql.Open("postgres", cfg.DatabaseURL); err != nil {
			return nil, nil, nil, err
		}
		ledger = pg.New(db)
	case config.DriverMySQL:
		if db, err = mysql.Open(cfg.DatabaseURL); err != nil {
			return nil, nil, nil, err
		}
		ledger = mysql.New(db)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	if err := ledger.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	books, err := sqlstore.New(db, cfg.StoreDriver)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	if err := books.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return books, ledger, func() { db.Close() }, nil
}
