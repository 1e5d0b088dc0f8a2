package repository

import (
	"testing"
	"time"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRepo(t *testing.T) *MatchRepository {
	t.Helper()
	repo, err := NewMatchRepository(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveAndListRuns(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	runs := []*models.MatchRun{
		{ID: "r1", FoundItemID: "found-1", CandidateCount: 2, MatchCount: 2, Provider: "gemini", Status: "ok", DurationMillis: 1200, StartedAt: base},
		{ID: "r2", FoundItemID: "found-2", CandidateCount: 2, Provider: "gemini", Status: "failed", ErrorMessage: "boom", DurationMillis: 300, StartedAt: base.Add(time.Minute)},
		{ID: "r3", SessionID: "s1", FoundItemID: "found-1", Provider: "gemini", Status: "empty", StartedAt: base.Add(2 * time.Minute)},
	}
	for _, run := range runs {
		require.NoError(t, repo.SaveRun(run))
	}

	all, err := repo.ListRuns("", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r3", all[0].ID, "newest first")
	assert.Equal(t, "s1", all[0].SessionID)

	forFound, err := repo.ListRuns("found-1", 10)
	require.NoError(t, err)
	require.Len(t, forFound, 2)

	limited, err := repo.ListRuns("", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	failed, err := repo.ListRuns("found-2", 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "boom", failed[0].ErrorMessage)
}

func TestStats(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.SaveRun(&models.MatchRun{ID: "a", FoundItemID: "f", Provider: "p", Status: "ok", DurationMillis: 100, StartedAt: time.Now()}))
	require.NoError(t, repo.SaveRun(&models.MatchRun{ID: "b", FoundItemID: "f", Provider: "p", Status: "ok", DurationMillis: 300, StartedAt: time.Now()}))
	require.NoError(t, repo.SaveNotification(&models.Notification{LostItemID: "lost-1", OwnerName: "Jane", Message: "m", Acknowledged: time.Now()}))

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats["total"])
	assert.InDelta(t, 200.0, stats["avg_duration_ms"], 0.001)
	assert.Equal(t, map[string]int{"ok": 2}, stats["by_status"])
	assert.Equal(t, 1, stats["notifications"])
}

func TestNotifications(t *testing.T) {
	repo := newTestRepo(t)

	n := &models.Notification{
		SessionID:    "s1",
		FoundItemID:  "found-1",
		LostItemID:   "lost-1",
		OwnerName:    "Jane Doe",
		Message:      "A notification has been sent to Jane Doe",
		Acknowledged: time.Now(),
	}
	require.NoError(t, repo.SaveNotification(n))
	assert.NotZero(t, n.ID)

	got, err := repo.ListNotifications("lost-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Jane Doe", got[0].OwnerName)
	assert.Equal(t, "found-1", got[0].FoundItemID)

	none, err := repo.ListNotifications("lost-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}
