package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/scopeguard/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	entry1 := &activity.ActivityEntry{
		ProjectID:    "p1",
		ActivityType: activity.TypeProjectCreated,
		Summary:      "Created project",
		CreatedAt:    baseTime,
	}
	entry2 := &activity.ActivityEntry{
		ProjectID:    "p1",
		MeetingID:    stringPtr("m1"),
		ActivityType: activity.TypeMeetingIngested,
		Summary:      "Ingested meeting",
		Details:      `{"transcribed":false}`,
		CreatedAt:    baseTime.Add(time.Second),
	}

	require.NoError(t, repo.Log(ctx, "user1", entry1))
	require.NoError(t, repo.Log(ctx, "user1", entry2))
	require.NotZero(t, entry2.ID)

	entries, err := repo.List(ctx, "user1", activity.ListActivityOptions{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entry2.ActivityType, entries[0].ActivityType)
	require.Equal(t, "m1", *entries[0].MeetingID)
	require.Equal(t, `{"transcribed":false}`, entries[0].Details)
	require.Equal(t, entry1.ActivityType, entries[1].ActivityType)
	require.Nil(t, entries[1].MeetingID)
}

func TestActivityRepository_FiltersAndUserIsolation(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)

	alertID := "a1"
	require.NoError(t, repo.Log(ctx, "user1", &activity.ActivityEntry{
		ProjectID: "p1", MeetingID: stringPtr("m1"), AlertID: &alertID,
		ActivityType: activity.TypeAlertStatusChanged, Summary: "Marked alert billed",
	}))
	require.NoError(t, repo.Log(ctx, "user1", &activity.ActivityEntry{
		ProjectID: "p1", ActivityType: activity.TypeScopeExtracted, Summary: "Extracted",
	}))
	require.NoError(t, repo.Log(ctx, "user2", &activity.ActivityEntry{
		ProjectID: "p2", ActivityType: activity.TypeProjectCreated, Summary: "Created",
	}))

	typ := activity.TypeAlertStatusChanged
	entries, err := repo.List(ctx, "user1", activity.ListActivityOptions{ActivityType: &typ})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a1", *entries[0].AlertID)

	entries, err = repo.List(ctx, "user1", activity.ListActivityOptions{MeetingID: stringPtr("m1")})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries, err = repo.List(ctx, "user2", activity.ListActivityOptions{ProjectID: "p1"})
	require.NoError(t, err)
	require.Empty(t, entries)

	entries, err = repo.List(ctx, "user1", activity.ListActivityOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
