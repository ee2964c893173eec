package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/scopeguard/internal/domain/activity"
	"github.com/rpggio/scopeguard/internal/domain/alert"
	"github.com/rpggio/scopeguard/internal/domain/meeting"
	"github.com/rpggio/scopeguard/internal/domain/project"
)

// ProjectService is the project surface used by handlers.
type ProjectService interface {
	Create(ctx context.Context, userID string, req project.CreateRequest) (*project.Project, error)
	Get(ctx context.Context, userID, id string) (*project.Project, error)
	List(ctx context.Context, userID string) ([]project.ProjectSummary, error)
}

// MeetingService is the meeting surface used by handlers.
type MeetingService interface {
	Ingest(ctx context.Context, userID string, req meeting.IngestRequest) (*meeting.IngestResult, error)
	Reanalyze(ctx context.Context, userID, meetingID string) (*meeting.IngestResult, error)
	Get(ctx context.Context, userID, id string) (*meeting.Meeting, error)
	List(ctx context.Context, userID, projectID string) ([]meeting.Meeting, error)
}

// AlertService is the alert surface used by handlers.
type AlertService interface {
	List(ctx context.Context, userID string, opts alert.ListOptions) ([]alert.View, error)
	UpdateStatus(ctx context.Context, userID string, req alert.UpdateStatusRequest) (*alert.View, error)
}

// ActivityService is the activity surface used by handlers.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, userID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services groups the domain services behind the API.
type Services struct {
	Projects ProjectService
	Meetings MeetingService
	Alerts   AlertService
	Activity ActivityService
}

// HTTPObserver records request metrics.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// Config configures the HTTP router.
type Config struct {
	Services Services
	// Auth attaches a user to the request context. Without it every /api
	// request is rejected.
	Auth           func(http.Handler) http.Handler
	Observer       HTTPObserver
	MetricsHandler http.Handler
	// MCP is mounted at /mcp behind Auth when set.
	MCP            http.Handler
	MaxUploadBytes int64
	Logger         *slog.Logger
}

const defaultMaxUploadBytes = 25 << 20

// Server holds handler dependencies.
type Server struct {
	services  Services
	observer  HTTPObserver
	logger    *slog.Logger
	maxUpload int64
}

// NewServer creates an HTTP router with middleware and all routes.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	srv := &Server{
		services:  cfg.Services,
		observer:  cfg.Observer,
		logger:    logger,
		maxUpload: maxUpload,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(srv.observe)
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		if cfg.Auth != nil {
			r.Use(cfg.Auth)
		}

		r.Route("/api", func(r chi.Router) {
			r.Get("/dashboard", srv.handleDashboard)
			r.Get("/activity", srv.handleListActivity)

			r.Route("/projects", func(r chi.Router) {
				r.Post("/", srv.handleCreateProject)
				r.Get("/", srv.handleListProjects)
				r.Get("/{id}", srv.handleGetProject)
			})

			r.Route("/meetings", func(r chi.Router) {
				r.Post("/", srv.handleIngestMeeting)
				r.Get("/", srv.handleListMeetings)
				r.Get("/{id}", srv.handleGetMeeting)
				r.Post("/{id}/reanalyze", srv.handleReanalyzeMeeting)
			})

			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", srv.handleListAlerts)
				r.Patch("/", srv.handleUpdateAlert)
			})
		})

		if cfg.MCP != nil {
			r.Handle("/mcp", cfg.MCP)
			r.Handle("/mcp/*", cfg.MCP)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// observe logs each request and reports it by chi route pattern, so ids in
// paths don't explode metric cardinality.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}

		if s.observer != nil {
			s.observer.ObserveHTTP(r.Method, route, status, elapsed)
		}
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", elapsed.Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
