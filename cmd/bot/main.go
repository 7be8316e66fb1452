package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"

	"github.com/xlebussssshek/warehouse-bot/internal/adapter/handler"
	"github.com/xlebussssshek/warehouse-bot/internal/adapter/report"
	"github.com/xlebussssshek/warehouse-bot/internal/adapter/storage"
	"github.com/xlebussssshek/warehouse-bot/internal/config"
	"github.com/xlebussssshek/warehouse-bot/internal/core/service"
)

func main() {
	configPath := flag.String("config", "warehouse.yaml", "path to the config file")
	flag.Parse()
	migrateOnly := flag.Arg(0) == "migrate"

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// The migrate subcommand needs no Telegram credentials.
	if !migrateOnly {
		if err := cfg.Validate(); err != nil {
			logger.Error("invalid config", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logger.Error("failed to open mysql", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping mysql", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("connected to mysql")

	store := storage.NewMySQLAdapter(db)
	if err := store.Migrate(ctx); err != nil {
		logger.Error("schema migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// `warehouse-bot migrate` bootstraps the schema and exits. Useful for CI
	// or manual database setup.
	if migrateOnly {
		logger.Info("migration completed")
		return
	}

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("connected to redis")

	cache := storage.NewRedisAdapter(rdb)
	ledger := service.NewLedger(store, cache, logger)
	reports := report.NewWriter(cfg.Report.Dir)

	// Telegram poller
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Error("failed to connect telegram", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("authorized on telegram", slog.String("username", bot.Self.UserName))

	botHandler := handler.NewBotHandler(bot, ledger, reports, cache, cfg.Telegram.AllowedActors, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		botHandler.Run(ctx)
	}()

	// Admin HTTP API
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.NewHTTPHandler(ledger).Register(router)

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", slog.String("error", err.Error()))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("http server stopped")

	cancel()
	wg.Wait()
	logger.Info("telegram poller stopped")
}
