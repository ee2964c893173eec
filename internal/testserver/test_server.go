// Package testserver runs the full stack in-process for end-to-end tests.
package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

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
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server  *httptest.Server
	DB      *sqlite.DB
	LLM     *FakeLLM
	Metrics *metrics.Metrics
	Token   string
	UserID  string

	apiKeys *sqlite.APIKeyRepository
}

// Option adjusts the stack before it starts.
type Option func(*options)

type options struct {
	maxUploadBytes int64
}

// WithMaxUploadBytes caps multipart uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(o *options) { o.maxUploadBytes = n }
}

// New starts the HTTP API and MCP endpoint with a fake model service and an
// API key for userID.
func New(t *testing.T, userID string, opts ...Option) *TestServer {
	t.Helper()
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	fake := NewFakeLLM(t)
	client, err := llm.NewClient(llm.Config{APIKey: "test-key", BaseURL: fake.URL()},
		llm.WithRetryBackoff(0, 0),
	)
	require.NoError(t, err)

	m := metrics.New()
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	projectSvc := project.NewService(sqlite.NewProjectRepository(db), scope.NewExtractor(client, m, nil), activitySvc, nil)
	meetingSvc := meeting.NewService(sqlite.NewMeetingRepository(db), projectSvc, scope.NewDetector(client, m, nil), client, activitySvc, nil)
	alertSvc := alert.NewService(sqlite.NewAlertRepository(db), activitySvc, nil)

	apiKeys := sqlite.NewAPIKeyRepository(db)
	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects: projectSvc,
			Meetings: meetingSvc,
			Alerts:   alertSvc,
			Activity: activitySvc,
		},
		Resolver:      apiKeys,
		AuthEnabled:   true,
		TransportMode: "http",
	})

	router := transport.NewServer(transport.Config{
		Services: transport.Services{
			Projects: projectSvc,
			Meetings: meetingSvc,
			Alerts:   alertSvc,
			Activity: activitySvc,
		},
		Auth:           transport.AuthMiddleware(apiKeys, nil),
		Observer:       m,
		MetricsHandler: m.Handler(),
		MCP:            mcp.NewHTTPHandler(mcpServer),
		MaxUploadBytes: o.maxUploadBytes,
	})
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:  server,
		DB:      db,
		LLM:     fake,
		Metrics: m,
		UserID:  userID,
		apiKeys: apiKeys,
	}
	ts.Token = ts.AddAPIKey(t, userID)

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey issues another token, for userID or a different user.
func (ts *TestServer) AddAPIKey(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := ts.apiKeys.Create(context.Background(), userID, "test")
	require.NoError(t, err)
	return token
}
