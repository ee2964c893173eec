package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/scopeguard/internal/domain/activity"
	"github.com/rpggio/scopeguard/internal/domain/alert"
	"github.com/rpggio/scopeguard/internal/domain/meeting"
	"github.com/rpggio/scopeguard/internal/domain/project"
	"golang.org/x/sync/errgroup"
)

const (
	maxJSONBodyBytes   = 2 << 20
	dashboardAlertSize = 5
)

type createProjectBody struct {
	Name         string `json:"name"`
	ContractText string `json:"contract_text"`
}

type ingestMeetingBody struct {
	ProjectID  string `json:"project_id"`
	Title      string `json:"title"`
	Transcript string `json:"transcript"`
}

type updateAlertBody struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ProjectDetail is the project page: the project, its meetings and its
// current alerts.
type ProjectDetail struct {
	Project  *project.Project  `json:"project"`
	Meetings []meeting.Meeting `json:"meetings"`
	Alerts   []alert.View      `json:"alerts"`
}

// MeetingResponse is returned by ingestion and re-analysis.
type MeetingResponse struct {
	Meeting *meeting.Meeting `json:"meeting"`
	Alerts  []alert.Alert    `json:"alerts"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	var body createProjectBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}

	proj, err := s.services.Projects.Create(r.Context(), userID, project.CreateRequest{
		Name:         body.Name,
		ContractText: body.ContractText,
	})
	if err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"project": proj})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	projects, err := s.services.Projects.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	proj, err := s.services.Projects.Get(ctx, userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}

	detail := ProjectDetail{Project: proj}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		meetings, err := s.services.Meetings.List(gctx, userID, proj.ID)
		detail.Meetings = meetings
		return err
	})
	g.Go(func() error {
		alerts, err := s.services.Alerts.List(gctx, userID, alert.ListOptions{ProjectID: proj.ID})
		detail.Alerts = alerts
		return err
	})
	if err := g.Wait(); err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleIngestMeeting(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	req, err := s.parseIngest(w, r)
	if err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}

	result, err := s.services.Meetings.Ingest(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, MeetingResponse{Meeting: result.Meeting, Alerts: result.Alerts})
}

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	meetings, err := s.services.Meetings.List(r.Context(), userID, r.URL.Query().Get("project_id"))
	if err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meetings": meetings})
}

func (s *Server) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	m, err := s.services.Meetings.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}
	alerts, err := s.services.Alerts.List(r.Context(), userID, alert.ListOptions{MeetingID: m.ID})
	if err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meeting": m, "alerts": alerts})
}

func (s *Server) handleReanalyzeMeeting(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	result, err := s.services.Meetings.Reanalyze(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MeetingResponse{Meeting: result.Meeting, Alerts: result.Alerts})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}

	alerts, err := s.services.Alerts.List(r.Context(), userID, alert.ListOptions{
		ProjectID: query.Get("project_id"),
		MeetingID: query.Get("meeting_id"),
		Status:    alert.Status(strings.ToLower(strings.TrimSpace(query.Get("status")))),
		Limit:     limit,
	})
	if err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func (s *Server) handleUpdateAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	var body updateAlertBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}

	view, err := s.services.Alerts.UpdateStatus(r.Context(), userID, alert.UpdateStatusRequest{
		ID:     body.ID,
		Status: body.Status,
	})
	if err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alert": view})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}

	var (
		projects []project.ProjectSummary
		recent   []alert.View
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		projects, err = s.services.Projects.List(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.services.Alerts.List(ctx, userID, alert.ListOptions{Status: alert.StatusNew, Limit: dashboardAlertSize})
		return err
	})
	if err := g.Wait(); err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects, "recent_alerts": recent})
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}
	opts := activity.ListActivityOptions{ProjectID: query.Get("project_id"), Limit: limit}
	if meetingID := query.Get("meeting_id"); meetingID != "" {
		opts.MeetingID = &meetingID
	}
	if typ := query.Get("type"); typ != "" {
		activityType := activity.ActivityType(typ)
		opts.ActivityType = &activityType
	}

	entries, err := s.services.Activity.GetRecentActivity(r.Context(), userID, opts)
	if err != nil {
		writeServiceError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity": entries})
}

// parseIngest accepts multipart/form-data (project_id, title, transcript,
// audio file) or a JSON body without audio.
func (s *Server) parseIngest(w http.ResponseWriter, r *http.Request) (meeting.IngestRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var body ingestMeetingBody
		if err := decodeJSON(w, r, &body); err != nil {
			return meeting.IngestRequest{}, err
		}
		return meeting.IngestRequest{ProjectID: body.ProjectID, Title: body.Title, Transcript: body.Transcript}, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		if isTooLarge(err) {
			return meeting.IngestRequest{}, fmt.Errorf("%w: upload exceeds %d bytes", errPayloadTooLarge, s.maxUpload)
		}
		return meeting.IngestRequest{}, fmt.Errorf("%w: invalid multipart form: %v", errBadRequest, err)
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	req := meeting.IngestRequest{
		ProjectID:  r.FormValue("project_id"),
		Title:      r.FormValue("title"),
		Transcript: r.FormValue("transcript"),
	}

	file, header, err := r.FormFile("audio")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return req, nil
	case err != nil:
		return meeting.IngestRequest{}, fmt.Errorf("%w: invalid audio part: %v", errBadRequest, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return meeting.IngestRequest{}, fmt.Errorf("%w: reading audio: %v", errBadRequest, err)
	}
	req.Audio = &meeting.Audio{
		Data:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}
	return req, nil
}

func (s *Server) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if isTooLarge(err) {
			return fmt.Errorf("%w: body exceeds %d bytes", errPayloadTooLarge, int64(maxJSONBodyBytes))
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", errBadRequest)
		}
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return nil
}

// isTooLarge detects a tripped MaxBytesReader. Some multipart paths drop the
// error type, so the message is checked too.
func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", errBadRequest)
	}
	return limit, nil
}
