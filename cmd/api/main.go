// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kosbaliku/internal/adapter/cache"
	"kosbaliku/internal/adapter/maps"
	"kosbaliku/internal/adapter/storage"
	"kosbaliku/internal/config"
	"kosbaliku/internal/domain/geo"
	"kosbaliku/internal/server"
	"kosbaliku/internal/service/places"
	"kosbaliku/internal/service/search"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("service stopped with error", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	catalog, err := config.LoadCatalog(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("failed to load facility catalog: %w", err)
	}

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	natsConn, err := initNATS(cfg.NATS, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsConn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	placesCache := cache.NewRedisCache(redisClient, cfg.Redis.KeyPrefix)
	if err := placesCache.Ping(ctx); err != nil {
		// The places gateway works uncached
		logger.Warn("redis unavailable, places cache disabled", zap.Error(err))
		placesCache = nil
	}

	// Initialize storage adapters
	listingStore := storage.NewListingStore(db)

	limits := geo.RadiusLimits{
		Min:     cfg.Search.MinRadius,
		Max:     cfg.Search.MaxRadius,
		Default: cfg.Search.DefaultRadius,
	}

	// Initialize services
	fetcher := search.NewFetcher(
		listingStore,
		listingStore,
		search.FetcherConfig{PageSize: cfg.Search.PageSize},
		logger.Named("fetcher"),
	)

	sessionManager := search.NewSessionManager(
		fetcher,
		natsConn,
		search.SessionManagerConfig{
			EventsTopic:     cfg.Search.EventsTopic,
			SessionTTL:      cfg.Search.SessionTTL,
			JanitorInterval: cfg.Search.JanitorInterval,
			MaxSessions:     cfg.Search.MaxSessions,
			Limits:          limits,
			PageSize:        cfg.Search.PageSize,
			Catalog:         catalog,
		},
		logger.Named("sessions"),
	)

	var placesService server.PlacesService
	if cfg.Maps.APIKey != "" {
		provider, err := maps.NewGoogleProvider(maps.GoogleConfig{
			APIKey: cfg.Maps.APIKey,
			RegionCenter: geo.Location{
				Latitude:  cfg.Maps.RegionLatitude,
				Longitude: cfg.Maps.RegionLongitude,
			},
			AutocompleteRadius: cfg.Maps.AutocompleteRadius,
			Country:            cfg.Maps.Country,
			Language:           cfg.Maps.Language,
		})
		if err != nil {
			return fmt.Errorf("failed to create maps provider: %w", err)
		}

		var c places.Cache
		if placesCache != nil {
			c = placesCache
		}

		placesService = places.NewService(provider, c, places.ServiceConfig{
			AutocompleteTTL: cfg.Maps.AutocompleteTTL,
			PlaceTTL:        cfg.Maps.PlaceTTL,
			TravelTTL:       cfg.Maps.TravelTTL,
			MinInputLength:  cfg.Maps.MinInputLength,
			LookupTimeout:   cfg.Server.RequestTimeout,
		}, logger.Named("places"))
	} else {
		logger.Warn("maps API key not set, places endpoints disabled")
	}

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, cfg.Search, server.Dependencies{
		Store:    listingStore,
		Fetcher:  fetcher,
		Sessions: sessionManager,
		Places:   placesService,
		Catalog:  catalog,
		NATS:     natsConn,
		Logger:   logger.Named("http"),
	})

	// Start HTTP server
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server",
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal
	var runErr error
	select {
	case <-shutdown:
		logger.Info("shutdown signal received")
	case runErr = <-serverErr:
		logger.Error("HTTP server error", zap.Error(runErr))
	}

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	logger.Info("shutting down services")

	err = multierr.Combine(
		runErr,
		httpServer.Shutdown(shutdownCtx),
		sessionManager.Stop(shutdownCtx),
		natsConn.Drain(),
	)

	logger.Info("shutdown complete")
	return err
}

// newLogger builds a development logger in development and a JSON production logger otherwise
func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build(zap.Fields(zap.String("env", cfg.Environment)))
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.Name("kosbaliku-api"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
