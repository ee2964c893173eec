package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/scopeguard/internal/domain/activity"
	"github.com/rpggio/scopeguard/internal/domain/alert"
	"github.com/rpggio/scopeguard/internal/domain/meeting"
	"github.com/rpggio/scopeguard/internal/domain/project"
	"github.com/rpggio/scopeguard/internal/llm"
	"github.com/stretchr/testify/require"
)

type stubProjects struct {
	created project.CreateRequest
	list    []project.ProjectSummary
	err     error
}

func (s *stubProjects) Create(_ context.Context, userID string, req project.CreateRequest) (*project.Project, error) {
	s.created = req
	if s.err != nil {
		return nil, s.err
	}
	return &project.Project{ID: "p1", UserID: userID, Name: req.Name, ScopeStatus: project.ScopeExtracted}, nil
}

func (s *stubProjects) Get(_ context.Context, userID, id string) (*project.Project, error) {
	if s.err != nil {
		return nil, s.err
	}
	if id != "p1" {
		return nil, project.ErrProjectNotFound
	}
	return &project.Project{ID: "p1", UserID: userID, Name: "Website Redesign"}, nil
}

func (s *stubProjects) List(context.Context, string) ([]project.ProjectSummary, error) {
	return s.list, s.err
}

type stubMeetings struct {
	ingested meeting.IngestRequest
	err      error
}

func (s *stubMeetings) Ingest(_ context.Context, _ string, req meeting.IngestRequest) (*meeting.IngestResult, error) {
	s.ingested = req
	if s.err != nil {
		return nil, s.err
	}
	return &meeting.IngestResult{
		Meeting: &meeting.Meeting{ID: "m1", ProjectID: req.ProjectID, Title: "Kickoff", AnalysisState: meeting.StateAnalyzed, AnalysisRun: 1},
		Alerts:  []alert.Alert{{ID: "a1", MeetingID: "m1", RequestText: "Build a mobile app", Reason: "excluded", Status: alert.StatusNew, AnalysisRun: 1}},
	}, nil
}

func (s *stubMeetings) Reanalyze(_ context.Context, _, meetingID string) (*meeting.IngestResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &meeting.IngestResult{Meeting: &meeting.Meeting{ID: meetingID, AnalysisRun: 2}, Alerts: []alert.Alert{}}, nil
}

func (s *stubMeetings) Get(_ context.Context, _, id string) (*meeting.Meeting, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &meeting.Meeting{ID: id, ProjectID: "p1"}, nil
}

func (s *stubMeetings) List(_ context.Context, _, projectID string) ([]meeting.Meeting, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []meeting.Meeting{{ID: "m1", ProjectID: projectID}}, nil
}

type stubAlerts struct {
	mu      sync.Mutex
	listed  []alert.ListOptions
	updated alert.UpdateStatusRequest
	err     error
}

func (s *stubAlerts) List(_ context.Context, _ string, opts alert.ListOptions) ([]alert.View, error) {
	s.mu.Lock()
	s.listed = append(s.listed, opts)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return []alert.View{{Alert: alert.Alert{ID: "a1", Status: alert.StatusNew}}}, nil
}

func (s *stubAlerts) UpdateStatus(_ context.Context, _ string, req alert.UpdateStatusRequest) (*alert.View, error) {
	s.updated = req
	if s.err != nil {
		return nil, s.err
	}
	return &alert.View{Alert: alert.Alert{ID: req.ID, Status: alert.Status(req.Status)}}, nil
}

type stubActivity struct {
	opts activity.ListActivityOptions
}

func (s *stubActivity) GetRecentActivity(_ context.Context, _ string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	s.opts = opts
	return []activity.ActivityEntry{{ID: 1, ActivityType: activity.TypeProjectCreated, Summary: "created"}}, nil
}

type recordingObserver struct {
	mu     sync.Mutex
	routes []string
}

func (o *recordingObserver) ObserveHTTP(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes = append(o.routes, fmt.Sprintf("%s %s %d", method, route, status))
}

type fixture struct {
	projects *stubProjects
	meetings *stubMeetings
	alerts   *stubAlerts
	activity *stubActivity
	observer *recordingObserver
	server   *httptest.Server
}

func newFixture(t *testing.T, maxUpload int64) *fixture {
	t.Helper()
	f := &fixture{
		projects: &stubProjects{},
		meetings: &stubMeetings{},
		alerts:   &stubAlerts{},
		activity: &stubActivity{},
		observer: &recordingObserver{},
	}
	resolver := &testResolver{tokenToUser: map[string]string{"token": "user1"}}
	router := NewServer(Config{
		Services: Services{
			Projects: f.projects,
			Meetings: f.meetings,
			Alerts:   f.alerts,
			Activity: f.activity,
		},
		Auth:           AuthMiddleware(resolver, nil),
		Observer:       f.observer,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("metrics")) }),
		MCP:            http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusAccepted) }),
		MaxUploadBytes: maxUpload,
	})
	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (f *fixture) doJSON(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	return f.do(t, method, path, reader, "application/json")
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHTTPServer_Health(t *testing.T) {
	f := newFixture(t, 0)

	resp, err := http.Get(f.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_RequiresAuth(t *testing.T) {
	f := newFixture(t, 0)

	for _, path := range []string{"/api/projects", "/api/dashboard", "/mcp"} {
		resp, err := http.Get(f.server.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestHTTPServer_MountsMCP(t *testing.T) {
	f := newFixture(t, 0)
	resp := f.doJSON(t, http.MethodPost, "/mcp", `{}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestHTTPServer_CreateProject(t *testing.T) {
	f := newFixture(t, 0)

	resp := f.doJSON(t, http.MethodPost, "/api/projects", `{"name":"Website Redesign","contract_text":"Build 5 pages."}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "Website Redesign", f.projects.created.Name)
	require.Equal(t, "Build 5 pages.", f.projects.created.ContractText)

	body := decodeBody[map[string]project.Project](t, resp)
	require.Equal(t, "p1", body["project"].ID)
}

func TestHTTPServer_CreateProject_BadJSON(t *testing.T) {
	f := newFixture(t, 0)

	resp := f.doJSON(t, http.MethodPost, "/api/projects", `{"name":`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[ErrorBody](t, resp)
	require.Equal(t, "INVALID_INPUT", body.Code)
}

func TestHTTPServer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "invalid", err: fmt.Errorf("%w: name required", project.ErrInvalidInput), status: http.StatusBadRequest, code: "INVALID_INPUT"},
		{name: "not found", err: project.ErrProjectNotFound, status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "upstream", err: &llm.UpstreamError{Op: "chat completion", StatusCode: 503}, status: http.StatusBadGateway, code: "UPSTREAM_UNAVAILABLE"},
		{name: "internal", err: fmt.Errorf("disk on fire"), status: http.StatusInternalServerError, code: "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0)
			f.projects.err = tt.err

			resp := f.doJSON(t, http.MethodPost, "/api/projects", `{"name":"x","contract_text":"y"}`)
			require.Equal(t, tt.status, resp.StatusCode)
			body := decodeBody[ErrorBody](t, resp)
			require.Equal(t, tt.code, body.Code)
			require.NotContains(t, body.Error, "disk on fire")
		})
	}
}

func TestHTTPServer_GetProjectDetail(t *testing.T) {
	f := newFixture(t, 0)

	resp := f.doJSON(t, http.MethodGet, "/api/projects/p1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decodeBody[ProjectDetail](t, resp)
	require.Equal(t, "p1", detail.Project.ID)
	require.Len(t, detail.Meetings, 1)
	require.Len(t, detail.Alerts, 1)
	require.Equal(t, []alert.ListOptions{{ProjectID: "p1"}}, f.alerts.listed)

	resp = f.doJSON(t, http.MethodGet, "/api/projects/other", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPServer_IngestMeetingJSON(t *testing.T) {
	f := newFixture(t, 0)

	resp := f.doJSON(t, http.MethodPost, "/api/meetings", `{"project_id":"p1","title":"Kickoff","transcript":"Can you add a mobile app?"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "p1", f.meetings.ingested.ProjectID)
	require.Equal(t, "Can you add a mobile app?", f.meetings.ingested.Transcript)
	require.Nil(t, f.meetings.ingested.Audio)

	body := decodeBody[MeetingResponse](t, resp)
	require.Equal(t, "m1", body.Meeting.ID)
	require.Len(t, body.Alerts, 1)
}

func multipartBody(t *testing.T, fields map[string]string, audio []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if audio != nil {
		part, err := writer.CreateFormFile("audio", "call.mp3")
		require.NoError(t, err)
		_, err = part.Write(audio)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestHTTPServer_IngestMeetingMultipart(t *testing.T) {
	f := newFixture(t, 0)

	body, contentType := multipartBody(t, map[string]string{"project_id": "p1", "title": "Call"}, []byte("fake-audio"))
	resp := f.do(t, http.MethodPost, "/api/meetings", body, contentType)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req := f.meetings.ingested
	require.Equal(t, "p1", req.ProjectID)
	require.Equal(t, "Call", req.Title)
	require.NotNil(t, req.Audio)
	require.Equal(t, "call.mp3", req.Audio.Filename)
	require.Equal(t, []byte("fake-audio"), req.Audio.Data)
}

func TestHTTPServer_IngestMeetingMultipartWithoutAudio(t *testing.T) {
	f := newFixture(t, 0)

	body, contentType := multipartBody(t, map[string]string{"project_id": "p1", "transcript": "hello"}, nil)
	resp := f.do(t, http.MethodPost, "/api/meetings", body, contentType)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Nil(t, f.meetings.ingested.Audio)
	require.Equal(t, "hello", f.meetings.ingested.Transcript)
}

func TestHTTPServer_IngestMeetingTooLarge(t *testing.T) {
	f := newFixture(t, 1024)

	body, contentType := multipartBody(t, map[string]string{"project_id": "p1"}, bytes.Repeat([]byte("a"), 4096))
	resp := f.do(t, http.MethodPost, "/api/meetings", body, contentType)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	require.Equal(t, "PAYLOAD_TOO_LARGE", decodeBody[ErrorBody](t, resp).Code)
}

func TestHTTPServer_IngestMeetingTranscriptionFailed(t *testing.T) {
	f := newFixture(t, 0)
	f.meetings.err = fmt.Errorf("%w: %w", meeting.ErrTranscriptionFailed, &llm.UpstreamError{Op: "audio transcription", StatusCode: 500})

	body, contentType := multipartBody(t, map[string]string{"project_id": "p1"}, []byte("fake-audio"))
	resp := f.do(t, http.MethodPost, "/api/meetings", body, contentType)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.Equal(t, "TRANSCRIPTION_FAILED", decodeBody[ErrorBody](t, resp).Code)
}

func TestHTTPServer_Reanalyze(t *testing.T) {
	f := newFixture(t, 0)

	resp := f.doJSON(t, http.MethodPost, "/api/meetings/m9/reanalyze", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[MeetingResponse](t, resp)
	require.Equal(t, "m9", body.Meeting.ID)

	f.meetings.err = meeting.ErrNoScope
	resp = f.doJSON(t, http.MethodPost, "/api/meetings/m9/reanalyze", "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "NO_SCOPE", decodeBody[ErrorBody](t, resp).Code)
}

func TestHTTPServer_ListAlerts(t *testing.T) {
	f := newFixture(t, 0)

	resp := f.doJSON(t, http.MethodGet, "/api/alerts?project_id=p1&status=NEW&limit=10", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []alert.ListOptions{{ProjectID: "p1", Status: alert.StatusNew, Limit: 10}}, f.alerts.listed)

	resp = f.doJSON(t, http.MethodGet, "/api/alerts?limit=abc", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPServer_UpdateAlert(t *testing.T) {
	f := newFixture(t, 0)

	resp := f.doJSON(t, http.MethodPatch, "/api/alerts", `{"id":"a1","status":"billed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, alert.UpdateStatusRequest{ID: "a1", Status: "billed"}, f.alerts.updated)

	f.alerts.err = alert.ErrAlertNotFound
	resp = f.doJSON(t, http.MethodPatch, "/api/alerts", `{"id":"zzz","status":"billed"}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPServer_Dashboard(t *testing.T) {
	f := newFixture(t, 0)
	f.projects.list = []project.ProjectSummary{{Project: project.Project{ID: "p1"}, MeetingCount: 2, NewAlerts: 1}}

	resp := f.doJSON(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Projects     []project.ProjectSummary `json:"projects"`
		RecentAlerts []alert.View             `json:"recent_alerts"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Projects, 1)
	require.Len(t, body.RecentAlerts, 1)
	require.Equal(t, []alert.ListOptions{{Status: alert.StatusNew, Limit: 5}}, f.alerts.listed)
}

func TestHTTPServer_Activity(t *testing.T) {
	f := newFixture(t, 0)

	resp := f.doJSON(t, http.MethodGet, "/api/activity?project_id=p1&type=project_created&limit=3", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "p1", f.activity.opts.ProjectID)
	require.Equal(t, 3, f.activity.opts.Limit)
	require.NotNil(t, f.activity.opts.ActivityType)
	require.Equal(t, activity.TypeProjectCreated, *f.activity.opts.ActivityType)
}

func TestHTTPServer_ObservesRoutePattern(t *testing.T) {
	f := newFixture(t, 0)

	resp := f.doJSON(t, http.MethodGet, "/api/projects/p1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	f.observer.mu.Lock()
	defer f.observer.mu.Unlock()
	require.Contains(t, f.observer.routes, "GET /api/projects/{id} 200")
}
