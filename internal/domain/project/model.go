package project

import (
	"time"

	"github.com/rpggio/scopeguard/internal/domain/scope"
)

// ScopeStatus records how scope extraction ended for a project.
type ScopeStatus string

const (
	ScopeNone      ScopeStatus = "none"
	ScopeExtracted ScopeStatus = "extracted"
	ScopeDegraded  ScopeStatus = "degraded"
	ScopeFailed    ScopeStatus = "failed"
)

// Project is a client engagement with its contract and extracted scope.
// ScopeSummary is set once at creation and never changed afterwards.
type Project struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Name         string         `json:"name"`
	ContractText *string        `json:"contract_text"`
	ScopeSummary *scope.Summary `json:"scope_summary"`
	ScopeStatus  ScopeStatus    `json:"scope_status"`
	ScopeError   string         `json:"scope_error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// HasScope reports whether meetings for this project can be analyzed.
func (p *Project) HasScope() bool {
	return p != nil && p.ScopeSummary != nil
}

// ProjectSummary is a project plus counts for listing
type ProjectSummary struct {
	Project
	MeetingCount int `json:"meeting_count"`
	NewAlerts    int `json:"new_alerts"`
}
