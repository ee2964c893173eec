package mcp

import (
	"context"
	"log/slog"
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/scopeguard/internal/domain/activity"
	"github.com/rpggio/scopeguard/internal/domain/alert"
	"github.com/rpggio/scopeguard/internal/domain/meeting"
	"github.com/rpggio/scopeguard/internal/domain/project"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, userID string, req project.CreateRequest) (*project.Project, error)
	List(ctx context.Context, userID string) ([]project.ProjectSummary, error)
	Get(ctx context.Context, userID, id string) (*project.Project, error)
}

// MeetingService defines meeting operations needed by MCP.
type MeetingService interface {
	Ingest(ctx context.Context, userID string, req meeting.IngestRequest) (*meeting.IngestResult, error)
	Reanalyze(ctx context.Context, userID, meetingID string) (*meeting.IngestResult, error)
	List(ctx context.Context, userID, projectID string) ([]meeting.Meeting, error)
}

// AlertService defines alert operations needed by MCP.
type AlertService interface {
	List(ctx context.Context, userID string, opts alert.ListOptions) ([]alert.View, error)
	UpdateStatus(ctx context.Context, userID string, req alert.UpdateStatusRequest) (*alert.View, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, userID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects ProjectService
	Meetings MeetingService
	Alerts   AlertService
	Activity ActivityService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      UserResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	DefaultUser   string
	Version       string
	Logger        *slog.Logger
}

// DefaultUser owns all data when auth is disabled.
const DefaultUser = "default"

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	defaultUser := cfg.DefaultUser
	if defaultUser == "" {
		defaultUser = DefaultUser
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "scopeguard",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	// stdio is local-only and never authenticates
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver, logger))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware(defaultUser))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}

// NewHTTPHandler serves server over the streamable HTTP transport.
func NewHTTPHandler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, nil)
}
