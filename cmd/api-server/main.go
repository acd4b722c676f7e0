// cmd/api-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"assessment-backend/internal/common/config"
	"assessment-backend/internal/common/database"
	apperrors "assessment-backend/internal/common/errors"
	"assessment-backend/internal/common/logger"
	"assessment-backend/internal/common/observability"
	"assessment-backend/internal/common/storage"
	"assessment-backend/internal/handlers"
	"assessment-backend/internal/services/assessment"
	"assessment-backend/internal/services/fallback"
	"assessment-backend/internal/services/session"
	"assessment-backend/internal/services/uploads"
	"assessment-backend/pkg/catalog"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting api-server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("api-server")
	defer obs.Shutdown()

	// --- Object store ---
	var store storage.ObjectStore
	var presigner storage.Presigner
	switch cfg.Storage.Provider {
	case "memory":
		mem := storage.NewMemoryStore()
		store, presigner = mem, mem
		zapLog.Warn("Using in-memory object store; data will not survive a restart")
	default:
		var s3Store *storage.S3Store
		err = retryWithBackoff(func() error {
			var err error
			s3Store, err = storage.NewS3Store(context.Background(), storage.S3Options{
				Region:         cfg.Storage.S3.Region,
				Bucket:         cfg.Storage.S3.Bucket,
				Endpoint:       cfg.Storage.S3.Endpoint,
				ForcePathStyle: cfg.Storage.S3.ForcePathStyle,
			})
			return err
		}, 5, 2*time.Second, zapLog, "S3 client initialization")
		if err != nil {
			zapLog.Fatal("s3 client failed after retries", zap.Error(err))
		}
		store, presigner = s3Store, s3Store
		zapLog.Info("Object store connected successfully", zap.String("bucket", cfg.Storage.S3.Bucket))
	}

	// --- Fallback mirror (optional) ---
	var fb *fallback.Cache
	if cfg.Fallback.Enabled {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Fallback.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(context.Background())
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		fb = fallback.New(redis, store, log)
		zapLog.Info("Fallback mirror connected successfully")
	}

	// --- Question catalog ---
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err), zap.String("path", cfg.Catalog.Path))
	}
	zapLog.Info("Question catalog loaded",
		zap.String("version", cat.Version),
		zap.Int("organizationQuestions", cat.Total("organization")),
		zap.Int("employeeQuestions", cat.Total("employee")),
	)

	// --- Services ---
	assessments := assessment.NewStore(store, cat, fb, log)
	sessions := session.NewManager(assessments, log)
	broker := uploads.NewBroker(store, presigner, fb, uploads.Options{
		UploadURLTTL:   config.GetDuration(cfg.Uploads.UploadURLTTL),
		DownloadURLTTL: config.GetDuration(cfg.Uploads.DownloadURLTTL),
		MaxFileSize:    cfg.Uploads.MaxFileSize,
	}, log)
	errs := apperrors.NewErrorHandler(log)

	// --- HTTP surface ---
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
		BodyLimit:    int(cfg.Server.BodyLimitBytes),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
			}
			return errs.Respond(c, err)
		},
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	handlers.Register(app, handlers.Set{
		Assessment: handlers.NewAssessmentHandler(assessments, sessions, errs, log),
		Uploads:    handlers.NewUploadHandler(broker, errs, log),
		System:     handlers.NewSystemHandler(fb, errs, log),
	}, obs)

	// --- Metrics listener ---
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		zapLog.Info("Metrics listener starting", zap.String("addr", addr))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			zapLog.Error("metrics listener stopped", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		zapLog.Info("Shutting down api-server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zapLog.Error("shutdown error", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	zapLog.Info("API server listening", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		zapLog.Fatal("server stopped", zap.Error(err))
	}

	zapLog.Info("Server exited cleanly")
}
