package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `scopeguard watches freelance projects for scope creep.

Core concepts:
- Project: a client engagement. Its contract is read once at creation and reduced to a scope summary
  (deliverables, exclusions, constraints). The summary never changes afterwards.
- Meeting: a transcript (or transcribed audio) attached to a project. Each analysis compares the
  transcript against the project's scope summary.
- Alert: one request from a meeting that falls outside the scope. Status is new, reviewed or billed.

Default workflow:
1) create_project with the full contract text; check scope_status in the result.
2) ingest_meeting with a transcript; the response lists any alerts raised.
3) list_alerts (status=new) to triage; update_alert_status to mark reviewed or billed.
4) reanalyze_meeting if analysis failed or the model was unavailable.

Docs:
- scopeguard://docs/index
- scopeguard://docs/scope-statuses
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "scopeguard://docs/index",
		Name:        "docs_index",
		Title:       "scopeguard docs index",
		Description: "Tool overview and the order to call them in.",
		Content: `# scopeguard tools

| Tool | Purpose |
|------|---------|
| ` + "`create_project`" + ` | Store a contract and extract its scope summary. |
| ` + "`list_projects`" + ` | Projects with meeting counts and new alert counts. |
| ` + "`get_project`" + ` | One project including its scope summary. |
| ` + "`ingest_meeting`" + ` | Add a transcript (or base64 audio) and detect out-of-scope requests. |
| ` + "`list_meetings`" + ` | Meetings of a project, newest first. |
| ` + "`reanalyze_meeting`" + ` | Run detection again; earlier alerts for the meeting are superseded. |
| ` + "`list_alerts`" + ` | Current alerts, filtered by project, meeting or status. |
| ` + "`update_alert_status`" + ` | Set an alert to new, reviewed or billed. |
| ` + "`get_recent_activity`" + ` | Audit trail of extraction, ingestion and review events. |

Alerts are only raised against the scope summary. A project whose summary could not be
extracted still accepts meetings, but they are stored with analysis_state "skipped".
`,
	},
	{
		URI:         "scopeguard://docs/scope-statuses",
		Name:        "scope_statuses",
		Title:       "Scope and analysis states",
		Description: "What scope_status and analysis_state values mean and what to do about them.",
		Content: `# Scope status (projects)

- ` + "`extracted`" + `: the summary was read from the contract.
- ` + "`degraded`" + `: the model answered with an unusable payload; the summary is empty, so
  meetings are analyzed against nothing and will usually raise no alerts.
- ` + "`failed`" + `: the model could not be reached; the project has no summary and meetings are skipped.
  Create the project again once the model service is back.

# Analysis state (meetings)

- ` + "`analyzed`" + `: detection ran; alerts belong to the meeting's analysis_run.
- ` + "`analysis_failed`" + `: detection could not run; earlier alerts (if any) stay current.
  Call ` + "`reanalyze_meeting`" + `.
- ` + "`skipped`" + `: the project has no scope summary.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
