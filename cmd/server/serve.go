package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/scopeguard/internal/config"
	"github.com/rpggio/scopeguard/internal/domain/activity"
	"github.com/rpggio/scopeguard/internal/domain/alert"
	"github.com/rpggio/scopeguard/internal/domain/meeting"
	"github.com/rpggio/scopeguard/internal/domain/project"
	"github.com/rpggio/scopeguard/internal/domain/scope"
	"github.com/rpggio/scopeguard/internal/llm"
	"github.com/rpggio/scopeguard/internal/mcp"
	"github.com/rpggio/scopeguard/internal/metrics"
	"github.com/rpggio/scopeguard/internal/sqlite"
	"github.com/rpggio/scopeguard/internal/transport"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(loadConfig func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API or the stdio MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}

			logger, closeLog, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			if cfg.Transport.Mode == "stdio" {
				return runStdio(ctx, logger, app)
			}
			return runHTTP(ctx, logger, app)
		},
	}
}

// application is the wired object graph shared by both transports.
type application struct {
	cfg      config.Config
	db       *sqlite.DB
	apiKeys  *sqlite.APIKeyRepository
	metrics  *metrics.Metrics
	services transport.Services
	mcp      *sdkmcp.Server
}

func newApplication(cfg config.Config, logger *slog.Logger) (*application, error) {
	db, err := openDatabase(cfg.DB.Path)
	if err != nil {
		return nil, err
	}

	llmClient, err := llm.NewClient(llm.Config{
		APIKey:             cfg.LLM.APIKey,
		BaseURL:            cfg.LLM.BaseURL,
		Model:              cfg.LLM.Model,
		TranscriptionModel: cfg.LLM.TranscriptionModel,
		TimeoutSeconds:     cfg.LLM.TimeoutSeconds,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	if !llmClient.Configured() {
		logger.Warn("no model API key configured; scope extraction and detection will fail")
	}

	m := metrics.New()
	extractor := scope.NewExtractor(llmClient, m, logger)
	detector := scope.NewDetector(llmClient, m, logger)

	projectRepo := sqlite.NewProjectRepository(db)
	meetingRepo := sqlite.NewMeetingRepository(db)
	alertRepo := sqlite.NewAlertRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	activitySvc := activity.NewService(activityRepo, logger)
	projectSvc := project.NewService(projectRepo, extractor, activitySvc, logger)
	meetingSvc := meeting.NewService(meetingRepo, projectSvc, detector, llmClient, activitySvc, logger)
	alertSvc := alert.NewService(alertRepo, activitySvc, logger)

	apiKeys := sqlite.NewAPIKeyRepository(db)
	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects: projectSvc,
			Meetings: meetingSvc,
			Alerts:   alertSvc,
			Activity: activitySvc,
		},
		Resolver:      apiKeys,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		DefaultUser:   cfg.Auth.DefaultUser,
		Version:       version,
		Logger:        logger,
	})

	return &application{
		cfg:     cfg,
		db:      db,
		apiKeys: apiKeys,
		metrics: m,
		services: transport.Services{
			Projects: projectSvc,
			Meetings: meetingSvc,
			Alerts:   alertSvc,
			Activity: activitySvc,
		},
		mcp: mcpServer,
	}, nil
}

func (a *application) Close() error {
	return a.db.Close()
}

// Handler returns the HTTP router with REST, MCP, health and metrics routes.
func (a *application) Handler(logger *slog.Logger) http.Handler {
	auth := transport.StaticUserMiddleware(a.cfg.Auth.DefaultUser)
	if a.cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(a.apiKeys, logger)
	}
	return transport.NewServer(transport.Config{
		Services:       a.services,
		Auth:           auth,
		Observer:       a.metrics,
		MetricsHandler: a.metrics.Handler(),
		MCP:            mcp.NewHTTPHandler(a.mcp),
		MaxUploadBytes: int64(a.cfg.Server.MaxUploadMB) << 20,
		Logger:         logger,
	})
}

func runStdio(ctx context.Context, logger *slog.Logger, app *application) error {
	logger.Info("starting stdio transport", "auth", "disabled", "user", app.cfg.Auth.DefaultUser)

	// Run blocks until stdin closes or ctx is canceled.
	if err := app.mcp.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func runHTTP(ctx context.Context, logger *slog.Logger, app *application) error {
	addr := fmt.Sprintf("%s:%d", app.cfg.Server.Host, app.cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           app.Handler(logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", addr, "auth", app.cfg.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openDatabase(path string) (*sqlite.DB, error) {
	if err := ensureDBDir(path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
