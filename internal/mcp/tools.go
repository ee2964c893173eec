package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/scopeguard/internal/domain/activity"
	"github.com/rpggio/scopeguard/internal/domain/alert"
	"github.com/rpggio/scopeguard/internal/domain/meeting"
	"github.com/rpggio/scopeguard/internal/domain/project"
)

// userHandler is a tool body that runs on behalf of an authenticated user.
type userHandler[In any] func(ctx context.Context, userID string, in In) (any, error)

// addTool registers a tool whose result is returned as JSON text. Domain
// errors become tool errors carrying an APIError code.
func addTool[In any](server *sdkmcp.Server, tool *sdkmcp.Tool, fn userHandler[In]) {
	sdkmcp.AddTool(server, tool, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
		userID := getUserID(ctx)
		if userID == "" {
			return nil, nil, &APIError{Code: "UNAUTHORIZED", Message: "no authenticated user"}
		}
		out, err := fn(ctx, userID, in)
		if err != nil {
			return nil, nil, MapError(err)
		}
		data, err := json.Marshal(out)
		if err != nil {
			return nil, nil, fmt.Errorf("encode result: %w", err)
		}
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		}, nil, nil
	})
}

func registerTools(server *sdkmcp.Server, svc Services) {
	addTool(server, &sdkmcp.Tool{
		Name:        "ping",
		Description: "Check connectivity and show the authenticated user",
	}, func(_ context.Context, userID string, _ PingParams) (any, error) {
		return PingResponse{Status: "ok", UserID: userID}, nil
	})

	// Projects
	addTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Create a project from a contract and extract its scope summary",
	}, func(ctx context.Context, userID string, in CreateProjectParams) (any, error) {
		proj, err := svc.Projects.Create(ctx, userID, project.CreateRequest{Name: in.Name, ContractText: in.ContractText})
		if err != nil {
			return nil, err
		}
		return ProjectResponse{Project: proj}, nil
	})

	addTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List projects with meeting and new alert counts, newest first",
	}, func(ctx context.Context, userID string, _ ListProjectsParams) (any, error) {
		projects, err := svc.Projects.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		if projects == nil {
			projects = []project.ProjectSummary{}
		}
		return ProjectListResponse{Projects: projects}, nil
	})

	addTool(server, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get a project including its contract and scope summary",
	}, func(ctx context.Context, userID string, in GetProjectParams) (any, error) {
		proj, err := svc.Projects.Get(ctx, userID, in.ID)
		if err != nil {
			return nil, err
		}
		return ProjectResponse{Project: proj}, nil
	})

	// Meetings
	addTool(server, &sdkmcp.Tool{
		Name:        "ingest_meeting",
		Description: "Add a meeting transcript or recording to a project and flag out-of-scope requests",
	}, func(ctx context.Context, userID string, in IngestMeetingParams) (any, error) {
		req := meeting.IngestRequest{ProjectID: in.ProjectID, Title: in.Title, Transcript: in.Transcript}
		if encoded := strings.TrimSpace(in.AudioBase64); encoded != "" {
			data, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return nil, fmt.Errorf("%w: audio_base64 is not valid base64", meeting.ErrInvalidInput)
			}
			req.Audio = &meeting.Audio{Data: data, Filename: in.AudioFilename}
		}
		result, err := svc.Meetings.Ingest(ctx, userID, req)
		if err != nil {
			return nil, err
		}
		return meetingResponse(result), nil
	})

	addTool(server, &sdkmcp.Tool{
		Name:        "list_meetings",
		Description: "List the meetings of a project, newest first",
	}, func(ctx context.Context, userID string, in ListMeetingsParams) (any, error) {
		meetings, err := svc.Meetings.List(ctx, userID, in.ProjectID)
		if err != nil {
			return nil, err
		}
		if meetings == nil {
			meetings = []meeting.Meeting{}
		}
		return MeetingListResponse{Meetings: meetings}, nil
	})

	addTool(server, &sdkmcp.Tool{
		Name:        "reanalyze_meeting",
		Description: "Run scope detection on a meeting again, replacing its current alerts",
	}, func(ctx context.Context, userID string, in ReanalyzeMeetingParams) (any, error) {
		result, err := svc.Meetings.Reanalyze(ctx, userID, in.ID)
		if err != nil {
			return nil, err
		}
		return meetingResponse(result), nil
	})

	// Alerts
	addTool(server, &sdkmcp.Tool{
		Name:        "list_alerts",
		Description: "List current scope alerts, newest first",
	}, func(ctx context.Context, userID string, in ListAlertsParams) (any, error) {
		alerts, err := svc.Alerts.List(ctx, userID, alert.ListOptions{
			ProjectID: in.ProjectID,
			MeetingID: in.MeetingID,
			Status:    alert.Status(strings.ToLower(strings.TrimSpace(in.Status))),
			Limit:     in.Limit,
		})
		if err != nil {
			return nil, err
		}
		if alerts == nil {
			alerts = []alert.View{}
		}
		return AlertListResponse{Alerts: alerts}, nil
	})

	addTool(server, &sdkmcp.Tool{
		Name:        "update_alert_status",
		Description: "Set an alert's status to new, reviewed or billed",
	}, func(ctx context.Context, userID string, in UpdateAlertStatusParams) (any, error) {
		view, err := svc.Alerts.UpdateStatus(ctx, userID, alert.UpdateStatusRequest{ID: in.ID, Status: in.Status})
		if err != nil {
			return nil, err
		}
		return AlertResponse{Alert: view}, nil
	})

	// Activity
	addTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "List recent activity, newest first",
	}, func(ctx context.Context, userID string, in GetRecentActivityParams) (any, error) {
		opts := activity.ListActivityOptions{ProjectID: in.ProjectID, Limit: in.Limit}
		if in.MeetingID != "" {
			opts.MeetingID = &in.MeetingID
		}
		if in.Type != "" {
			typ := activity.ActivityType(in.Type)
			opts.ActivityType = &typ
		}
		entries, err := svc.Activity.GetRecentActivity(ctx, userID, opts)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []activity.ActivityEntry{}
		}
		return ActivityResponse{Activity: entries}, nil
	})
}

func meetingResponse(result *meeting.IngestResult) MeetingResponse {
	alerts := result.Alerts
	if alerts == nil {
		alerts = []alert.Alert{}
	}
	return MeetingResponse{Meeting: result.Meeting, Alerts: alerts, Outcome: string(result.Outcome)}
}
