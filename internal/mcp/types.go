package mcp

import (
	"github.com/rpggio/scopeguard/internal/domain/activity"
	"github.com/rpggio/scopeguard/internal/domain/alert"
	"github.com/rpggio/scopeguard/internal/domain/meeting"
	"github.com/rpggio/scopeguard/internal/domain/project"
)

type PingParams struct{}

type CreateProjectParams struct {
	Name         string `json:"name" jsonschema:"Project display name"`
	ContractText string `json:"contract_text" jsonschema:"Full text of the contract or statement of work"`
}

type ListProjectsParams struct{}

type GetProjectParams struct {
	ID string `json:"id" jsonschema:"Project ID"`
}

type IngestMeetingParams struct {
	ProjectID     string `json:"project_id" jsonschema:"Project the meeting belongs to"`
	Title         string `json:"title,omitempty" jsonschema:"Meeting title (defaults to Untitled Meeting)"`
	Transcript    string `json:"transcript,omitempty" jsonschema:"Meeting transcript text; takes precedence over audio"`
	AudioBase64   string `json:"audio_base64,omitempty" jsonschema:"Base64-encoded audio recording to transcribe"`
	AudioFilename string `json:"audio_filename,omitempty" jsonschema:"File name of the recording, used to infer its format"`
}

type ListMeetingsParams struct {
	ProjectID string `json:"project_id" jsonschema:"Project ID"`
}

type ReanalyzeMeetingParams struct {
	ID string `json:"id" jsonschema:"Meeting ID"`
}

type ListAlertsParams struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"Only alerts for this project"`
	MeetingID string `json:"meeting_id,omitempty" jsonschema:"Only alerts for this meeting"`
	Status    string `json:"status,omitempty" jsonschema:"Only alerts with this status: new, reviewed or billed"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of alerts"`
}

type UpdateAlertStatusParams struct {
	ID     string `json:"id" jsonschema:"Alert ID"`
	Status string `json:"status" jsonschema:"New status: new, reviewed or billed"`
}

type GetRecentActivityParams struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"Only activity for this project"`
	MeetingID string `json:"meeting_id,omitempty" jsonschema:"Only activity for this meeting"`
	Type      string `json:"type,omitempty" jsonschema:"Only activity of this type"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of entries"`
}

type PingResponse struct {
	Status string `json:"status"`
	UserID string `json:"user_id"`
}

type ProjectResponse struct {
	Project *project.Project `json:"project"`
}

type ProjectListResponse struct {
	Projects []project.ProjectSummary `json:"projects"`
}

type MeetingResponse struct {
	Meeting *meeting.Meeting `json:"meeting"`
	Alerts  []alert.Alert    `json:"alerts"`
	Outcome string           `json:"outcome,omitempty"`
}

type MeetingListResponse struct {
	Meetings []meeting.Meeting `json:"meetings"`
}

type AlertListResponse struct {
	Alerts []alert.View `json:"alerts"`
}

type AlertResponse struct {
	Alert *alert.View `json:"alert"`
}

type ActivityResponse struct {
	Activity []activity.ActivityEntry `json:"activity"`
}
