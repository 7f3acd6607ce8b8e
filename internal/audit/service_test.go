package audit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-auth/aegis/jobs"
)

func newTestService(repo Repository) *Service {
	svc := NewService(repo, nil, nil, 30*24*time.Hour)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func seedEvents(t *testing.T, svc *Service, n int) {
	t.Helper()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		kind := KindPasswordLogin
		if i%2 == 0 {
			kind = KindUserRegistered
		}
		err := svc.Record(context.Background(), Event{
			Kind:       kind,
			Outcome:    OutcomeOK,
			Email:      fmt.Sprintf("user%d@example.com", i%3),
			UserID:     int64(i%3 + 1),
			OccurredAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
}

func TestRecordAssignsDefaults(t *testing.T) {
	repo := NewMemRepository()
	svc := newTestService(repo)

	err := svc.Record(context.Background(), Event{Kind: KindPasswordLogin, Email: "user@example.com"})
	require.NoError(t, err)

	result, err := svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	require.Len(t, result.Events, 1)

	got := result.Events[0]
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", got.ID.String())
	assert.Equal(t, OutcomeOK, got.Outcome)
	assert.Equal(t, time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC), got.OccurredAt)
}

func TestRecordRequiresKind(t *testing.T) {
	svc := newTestService(NewMemRepository())

	err := svc.Record(context.Background(), Event{Email: "user@example.com"})
	require.Error(t, err)
}

func TestTimelinePaging(t *testing.T) {
	repo := NewMemRepository()
	svc := newTestService(repo)
	seedEvents(t, svc, 25)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, result.Events, 10)
	assert.True(t, result.Paging.HasNext)
	assert.Equal(t, 1, result.Paging.Page)
	assert.Equal(t, 10, result.Paging.PageSize)

	// Newest first.
	first := result.Events[0]
	last := result.Events[len(result.Events)-1]
	assert.True(t, first.OccurredAt.After(last.OccurredAt))

	result, err = svc.Timeline(context.Background(), TimelineFilters{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, result.Events, 5)
	assert.False(t, result.Paging.HasNext)
}

func TestTimelineClampsPageSize(t *testing.T) {
	repo := NewMemRepository()
	svc := newTestService(repo)
	seedEvents(t, svc, 5)

	result, err := svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	assert.Equal(t, 20, result.Paging.PageSize)

	result, err = svc.Timeline(context.Background(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 50, result.Paging.PageSize)
}

func TestTimelineEmptyPageReturnsSlice(t *testing.T) {
	svc := newTestService(NewMemRepository())

	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 9})
	require.NoError(t, err)
	assert.NotNil(t, result.Events)
	assert.Empty(t, result.Events)
	assert.False(t, result.Paging.HasNext)
}

func TestTimelineFilters(t *testing.T) {
	repo := NewMemRepository()
	svc := newTestService(repo)
	seedEvents(t, svc, 12)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Kind: KindUserRegistered})
	require.NoError(t, err)
	require.NotEmpty(t, result.Events)
	for _, e := range result.Events {
		assert.Equal(t, KindUserRegistered, e.Kind)
	}

	result, err = svc.Timeline(context.Background(), TimelineFilters{Email: "user1@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Events)
	for _, e := range result.Events {
		assert.Equal(t, "user1@example.com", e.Email)
	}
}

func TestPruneRemovesExpiredEvents(t *testing.T) {
	repo := NewMemRepository()
	svc := newTestService(repo)

	old := Event{Kind: KindPasswordLogin, Email: "old@example.com", OccurredAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	recent := Event{Kind: KindPasswordLogin, Email: "recent@example.com", OccurredAt: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, svc.Record(context.Background(), old))
	require.NoError(t, svc.Record(context.Background(), recent))

	removed, err := svc.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	result, err := svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "recent@example.com", result.Events[0].Email)
}

func TestHandleAuthEventTask(t *testing.T) {
	repo := NewMemRepository()
	svc := newTestService(repo)

	task, err := jobs.NewAuthEventTask(jobs.AuthEventPayload{
		Kind:    KindBiometricLogin,
		Outcome: OutcomeDenied,
		Email:   "user@example.com",
		UserID:  7,
		At:      time.Date(2025, 6, 14, 8, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, svc.HandleAuthEventTask(context.Background(), task))

	result, err := svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	got := result.Events[0]
	assert.Equal(t, KindBiometricLogin, got.Kind)
	assert.Equal(t, OutcomeDenied, got.Outcome)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, time.Date(2025, 6, 14, 8, 30, 0, 0, time.UTC), got.OccurredAt)
}

func TestHandleAuthEventTaskSkipsMalformedPayload(t *testing.T) {
	svc := newTestService(NewMemRepository())

	task := asynq.NewTask(jobs.TaskTypeAuthEvent, []byte("{not json"))
	err := svc.HandleAuthEventTask(context.Background(), task)
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandlePruneTask(t *testing.T) {
	repo := NewMemRepository()
	svc := newTestService(repo)
	require.NoError(t, svc.Record(context.Background(), Event{
		Kind:       KindPasswordLogin,
		Email:      "old@example.com",
		OccurredAt: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	}))

	require.NoError(t, svc.HandlePruneTask(context.Background(), jobs.NewPruneAuthEventsTask()))

	result, err := svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	assert.Empty(t, result.Events)
}
