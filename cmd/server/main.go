package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"basegraph.app/intake/common/id"
	"basegraph.app/intake/common/llm"
	"basegraph.app/intake/common/logger"
	"basegraph.app/intake/common/otel"
	"basegraph.app/intake/core/config"
	"basegraph.app/intake/core/db"
	"basegraph.app/intake/internal/http/middleware"
	httprouter "basegraph.app/intake/internal/http/router"
	"basegraph.app/intake/internal/intake"
	"basegraph.app/intake/internal/service"
	"basegraph.app/intake/internal/service/archive"
	"basegraph.app/intake/internal/service/issue_tracker"
	"basegraph.app/intake/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet, OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "intake starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(cfg.NodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Sessions.Backend == "redis" {
		redisOpts, err := redis.ParseURL(cfg.Sessions.RedisURL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		slog.InfoContext(ctx, "redis connected", "ttl", cfg.Sessions.TTL)
	}

	sessions, err := store.NewSessionStore(cfg.Sessions.Backend, redisClient, cfg.Sessions.TTL, slog.Default())
	if err != nil {
		slog.ErrorContext(ctx, "failed to create session store", "error", err)
		os.Exit(1)
	}

	var ledger store.ReportLedger
	if cfg.DB.Enabled() {
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()

		err = database.WithTx(ctx, func(tx pgx.Tx) error {
			return store.NewPGReportLedger(tx).EnsureSchema(ctx)
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to prepare report ledger", "error", err)
			os.Exit(1)
		}
		ledger = store.NewPGReportLedger(database.Pool())
		slog.InfoContext(ctx, "database connected, report ledger enabled")
	}

	processor, err := newProcessor(cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create llm client", "error", err)
		os.Exit(1)
	}

	archiver, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create archiver", "error", err)
		os.Exit(1)
	}
	if archiver != nil {
		slog.InfoContext(ctx, "archive enabled", "backend", archiver.Backend())
	} else {
		slog.WarnContext(ctx, "archive disabled, attachments will not be stored", "backend", cfg.Archive.Backend)
	}

	dispatcher := service.NewDispatcher(
		archiver,
		issue_tracker.NewResolver(cfg.Tickets),
		ledger,
		id.SnowflakeGenerator{},
		cfg.Tickets.Jira.Assignee,
	)
	services := service.NewServices(sessions, processor, dispatcher)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Recordings arrive base64 encoded in the body.
		ReadTimeout: 60 * time.Second,
		// A turn may retry the LLM call and then archive attachments.
		WriteTimeout: 3*cfg.LLM.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var shutdownErr *multierror.Error
	if err := server.Shutdown(shutdownCtx); err != nil {
		shutdownErr = multierror.Append(shutdownErr, fmt.Errorf("http server: %w", err))
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			shutdownErr = multierror.Append(shutdownErr, fmt.Errorf("otel: %w", err))
		}
	}

	if err := shutdownErr.ErrorOrNil(); err != nil {
		slog.ErrorContext(shutdownCtx, "shutdown finished with errors", "error", err)
		return
	}
	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func newProcessor(cfg config.Config) (*intake.Processor, error) {
	client, err := llm.NewClient(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
	})
	if err != nil {
		return nil, err
	}

	return intake.NewFromConfig(client, cfg.LLM, cfg.Intake), nil
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSOrigins))

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		ServiceName: cfg.OTel.ServiceName,
		Version:     cfg.OTel.ServiceVersion,
	})

	return router
}

const banner = `
██╗███╗   ██╗████████╗ █████╗ ██╗  ██╗███████╗
██║████╗  ██║╚══██╔══╝██╔══██╗██║ ██╔╝██╔════╝
██║██╔██╗ ██║   ██║   ███████║█████╔╝ █████╗
██║██║╚██╗██║   ██║   ██╔══██║██╔═██╗ ██╔══╝
██║██║ ╚████║   ██║   ██║  ██║██║  ██╗███████╗
╚═╝╚═╝  ╚═══╝   ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝
`
