package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/app"
	"github.com/Freeeeeet/room_booking/internal/config"
	"github.com/Freeeeeet/room_booking/internal/controller"
	"github.com/Freeeeeet/room_booking/internal/notifier"
	"github.com/Freeeeeet/room_booking/internal/repository/memstore"
	"github.com/Freeeeeet/room_booking/internal/service"
	"github.com/Freeeeeet/room_booking/internal/storage"
)

func main() {
	var (
		addr        string
		envFile     string
		migrateOnly bool
	)
	pflag.StringVar(&addr, "addr", "", "HTTP listen address, overrides HTTP_ADDR")
	pflag.StringVar(&envFile, "env-file", ".env", "file with environment variables")
	pflag.BoolVar(&migrateOnly, "migrate-only", false, "apply database migrations and exit")
	pflag.Parse()

	cfg, err := config.Load(envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if addr != "" {
		cfg.HTTPAddr = addr
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, migrateOnly, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, migrateOnly bool, logger *zap.Logger) error {
	logger.Info("Starting room booking service",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.Storage),
		zap.String("timezone", cfg.Location.String()),
	)

	stores, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	if migrateOnly {
		logger.Info("Migrations done, exiting")
		return nil
	}

	var tgBot *bot.Bot
	if cfg.TelegramToken != "" {
		tgBot, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return err
		}
	}

	notify, closeNotify, err := buildNotifier(ctx, cfg, tgBot, logger)
	if err != nil {
		return err
	}
	defer closeNotify()

	uploader, uploadDir, err := buildUploader(cfg)
	if err != nil {
		return err
	}

	accounts := service.NewAccountService(stores.Accounts, cfg.AdminSubjects, logger)
	rooms := service.NewRoomService(stores, uploader, cfg.Location, logger)
	facilities := service.NewFacilityService(stores.Facilities, logger)
	bookings := service.NewBookingService(stores, notify, cfg.Location, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := controller.NewHandler(accounts, rooms, facilities, bookings, cfg.Location, logger)
	router := controller.NewRouter(controller.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		JWTSecret:   cfg.JWTSecret,
		UploadDir:   uploadDir,
	}, handler)

	scheduler := app.NewScheduler(bookings, cfg.StaleSweepInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if tgBot != nil {
		botController := controller.NewBotController(tgBot, accounts, bookings, cfg.Location, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands were not set", zap.Error(err))
		}
		go botController.Start(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received, shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.Stores, func(), error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return service.MemoryStores(memstore.New()), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return service.Stores{}, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return service.Stores{}, nil, err
	}
	logger.Info("Connected to database")

	migrator, err := app.NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		pool.Close()
		return service.Stores{}, nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return service.Stores{}, nil, err
	}

	return service.PostgresStores(pool), pool.Close, nil
}

func buildNotifier(ctx context.Context, cfg *config.Config, tgBot *bot.Bot, logger *zap.Logger) (service.Notifier, func(), error) {
	var (
		notifiers []notifier.Notifier
		closers   []func()
	)

	if tgBot != nil {
		if cfg.TelegramAdminChatID == 0 {
			logger.Warn("TELEGRAM_ADMIN_CHAT_ID is not set, admins get no approval requests in Telegram")
		}
		notifiers = append(notifiers, notifier.NewTelegram(tgBot, cfg.TelegramAdminChatID, cfg.Location, logger))
	}

	if cfg.RedisURL != "" {
		client, err := notifier.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { client.Close() })
		notifiers = append(notifiers, notifier.NewRedis(client, cfg.RedisChannel))
		logger.Info("Publishing booking events to redis", zap.String("channel", cfg.RedisChannel))
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if len(notifiers) == 0 {
		logger.Info("No notification channel configured")
		return notifier.Nop{}, closeAll, nil
	}
	return notifier.NewMulti(logger, notifiers...), closeAll, nil
}

// buildUploader returns the room image store and the directory to serve, if local
func buildUploader(cfg *config.Config) (service.Uploader, string, error) {
	if cfg.S3Enabled() {
		s3, err := storage.NewS3(cfg.AWSRegion, cfg.AWSAccessKey, cfg.AWSSecretKey, cfg.S3Bucket)
		if err != nil {
			return nil, "", err
		}
		return s3, "", nil
	}

	local, err := storage.NewLocal(cfg.UploadDir, cfg.BaseURL)
	if err != nil {
		return nil, "", err
	}
	return local, local.Dir(), nil
}
