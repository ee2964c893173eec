package mocks

import (
	"context"

	"github.com/rpggio/scopeguard/internal/domain/activity"
	"github.com/rpggio/scopeguard/internal/domain/alert"
	"github.com/rpggio/scopeguard/internal/domain/meeting"
	"github.com/rpggio/scopeguard/internal/domain/project"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, userID string, proj *project.Project) error {
	args := m.Called(ctx, userID, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, userID, id string) (*project.Project, error) {
	args := m.Called(ctx, userID, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, userID string) ([]project.ProjectSummary, error) {
	args := m.Called(ctx, userID)
	if list, ok := args.Get(0).([]project.ProjectSummary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// MeetingRepository is a mock for meeting.Repository.
type MeetingRepository struct {
	mock.Mock
}

func (m *MeetingRepository) Create(ctx context.Context, userID string, mt *meeting.Meeting) error {
	args := m.Called(ctx, userID, mt)
	return args.Error(0)
}

func (m *MeetingRepository) Get(ctx context.Context, userID, id string) (*meeting.Meeting, error) {
	args := m.Called(ctx, userID, id)
	if mt, ok := args.Get(0).(*meeting.Meeting); ok {
		return mt, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MeetingRepository) List(ctx context.Context, userID, projectID string) ([]meeting.Meeting, error) {
	args := m.Called(ctx, userID, projectID)
	if list, ok := args.Get(0).([]meeting.Meeting); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MeetingRepository) UpdateAnalysis(ctx context.Context, userID string, mt *meeting.Meeting) error {
	args := m.Called(ctx, userID, mt)
	return args.Error(0)
}

func (m *MeetingRepository) CompleteAnalysis(ctx context.Context, userID string, mt *meeting.Meeting, alerts []alert.Alert) error {
	args := m.Called(ctx, userID, mt, alerts)
	return args.Error(0)
}

// AlertRepository is a mock for alert.Repository.
type AlertRepository struct {
	mock.Mock
}

func (m *AlertRepository) Get(ctx context.Context, userID, id string) (*alert.View, error) {
	args := m.Called(ctx, userID, id)
	if view, ok := args.Get(0).(*alert.View); ok {
		return view, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AlertRepository) List(ctx context.Context, userID string, opts alert.ListOptions) ([]alert.View, error) {
	args := m.Called(ctx, userID, opts)
	if list, ok := args.Get(0).([]alert.View); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AlertRepository) UpdateStatus(ctx context.Context, userID, id string, status alert.Status) error {
	args := m.Called(ctx, userID, id, status)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, userID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, userID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, userID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, userID, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
