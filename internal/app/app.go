package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/linkmirror/linkmirror/internal/config"
	"github.com/linkmirror/linkmirror/internal/domain"
	"github.com/linkmirror/linkmirror/internal/httpserver"
	"github.com/linkmirror/linkmirror/internal/httpserver/deps"
	"github.com/linkmirror/linkmirror/internal/logger"
	"github.com/linkmirror/linkmirror/internal/redis"
	"github.com/linkmirror/linkmirror/internal/render"
	"github.com/linkmirror/linkmirror/internal/source"
	redisstore "github.com/linkmirror/linkmirror/internal/store/redis"
	"github.com/linkmirror/linkmirror/internal/sync"
	"github.com/linkmirror/linkmirror/internal/target"
	"github.com/linkmirror/linkmirror/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// The Redis side index is optional. When configured, fail fast if
	// unreachable; when absent, every resolve falls back to scanning.
	var redisClient *goredis.Client
	var index sync.Index
	if cfg.RedisAddr != "" {
		redisClient, err = redis.New(redis.ConnectOptions{
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
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		index = redisstore.NewStore(redisClient)
		loggerClient.Info("side index enabled",
			logger.String("addr", cfg.RedisAddr))
	} else {
		loggerClient.Info("side index not configured, resolver runs scan-only")
	}

	ghost, err := target.New(cfg.GhostURL, cfg.GhostAdminKey, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("invalid ghost configuration: %w", err)
	}

	omnivore := source.New(cfg.OmnivoreURL, cfg.OmnivoreToken, cfg.OmnivoreUsername, loggerClient)

	classifier := domain.Classifier{
		SyncLabel:    cfg.SyncLabel,
		ExcludeLabel: cfg.ExcludeLabel,
		ContentRule:  cfg.ContentRule,
	}
	renderer := render.New(cfg.Location, cfg.SummaryMarkerPrefix, cfg.SyncLabel)
	resolver := sync.NewResolver(ghost, index, cfg.SyncLabel, cfg.ScanLimit, loggerClient)
	executor := sync.NewExecutor(ghost, index, cfg.SyncLabel, loggerClient)
	orchestrator := sync.NewOrchestrator(omnivore, classifier, renderer, resolver, executor, loggerClient)

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		Orchestrator: orchestrator,
		RedisClient:  redisClient,
		GhostURL:     cfg.GhostURL,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting linkmirror v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("linkmirror %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ linkmirror stopped cleanly")
	return nil
}
