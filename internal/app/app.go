package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/zonewatch/internal/availability"
	"github.com/MrSnakeDoc/zonewatch/internal/config"
	"github.com/MrSnakeDoc/zonewatch/internal/httpserver"
	"github.com/MrSnakeDoc/zonewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/zonewatch/internal/index"
	"github.com/MrSnakeDoc/zonewatch/internal/logger"
	"github.com/MrSnakeDoc/zonewatch/internal/metrics"
	"github.com/MrSnakeDoc/zonewatch/internal/redis"
	"github.com/MrSnakeDoc/zonewatch/internal/scheduler"
	"github.com/MrSnakeDoc/zonewatch/internal/servicegroup"
	redisstore "github.com/MrSnakeDoc/zonewatch/internal/store/redis"
	"github.com/MrSnakeDoc/zonewatch/internal/version"
	"github.com/MrSnakeDoc/zonewatch/internal/zones"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	warmer      *scheduler.CacheWarmer
	reloader    *scheduler.TopologyReloader
	reaper      *scheduler.ServiceReaper
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	redisClient, err := redis.New(context.Background(), redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Error("failed to connect to redis", logger.Error(err))
		os.Exit(1)
	}

	store := redisstore.NewStore(redisClient)

	// Metrics on a dedicated registry, with the runtime collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWithRegistry(registry)

	zoneCache := index.NewZoneCache(cfg.ZoneCacheTTL)
	m.RegisterZoneCache(zoneCache)

	resolver := availability.NewResolver(store, zoneCache, cfg.DefaultZone, cfg.InternalZone)
	liveness := servicegroup.NewDriver(cfg.ServiceDownTime)
	aggregator := zones.New(cfg.InternalZone)

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	warmer := scheduler.NewCacheWarmer(resolver, loggerClient.With(logger.String("component", "cache_warmer")))

	reloader := scheduler.NewTopologyReloader(
		cfg.TopologyFile,
		store,
		resolver,
		m,
		loggerClient.With(logger.String("component", "topology_reloader")),
		cfg.ReloadInterval,
		reloadTrigger,
	)

	reaper := scheduler.NewServiceReaper(
		store,
		m,
		loggerClient.With(logger.String("component", "service_reaper")),
		cfg.ReapInterval,
		cfg.ReapThreshold,
	)

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		RateBurst:     cfg.RateBurst,
		RatePerMin:    cfg.RatePerMin,
		TopologyFile:  cfg.TopologyFile,
		Store:         store,
		Resolver:      resolver,
		Liveness:      liveness,
		Aggregator:    aggregator,
		ZoneCache:     zoneCache,
		Metrics:       m,
		Gatherer:      registry,
		ReloadTrigger: reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		warmer:      warmer,
		reloader:    reloader,
		reaper:      reaper,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting %s on %s", version.String(), a.cfg.ListenPort)
	a.logger.Info("zone settings",
		logger.String("default_zone", a.cfg.DefaultZone),
		logger.String("internal_zone", a.cfg.InternalZone),
		logger.Duration("service_down_time", a.cfg.ServiceDownTime))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Serve from what redis already holds until the topology file is read
	if err := a.warmer.Warm(ctx); err != nil {
		a.logger.Warn("failed to warm zone cache on startup, continuing cold",
			logger.Error(err))
	}

	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start topology reloader: %w", err)
	}
	a.logger.Info("topology reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval))

	if err := a.reaper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service reaper: %w", err)
	}
	a.logger.Info("service reaper started",
		logger.Duration("interval", a.cfg.ReapInterval),
		logger.Duration("threshold", a.cfg.ReapThreshold))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	a.reaper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Warn("failed to close redis", logger.Error(err))
	} else {
		a.logger.Info("✅ Redis closed cleanly")
	}

	_ = a.logger.Sync()
	a.logger.Info("✅ zonewatch stopped cleanly")
	return nil
}
