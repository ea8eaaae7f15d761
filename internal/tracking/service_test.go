package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&BrowserSession{}, &UrlActivity{}))

	return NewService(gdb, NewCategorizer(DefaultKeywords()))
}

func ptr[T any](v T) *T { return &v }

func TestResolveSessionCreatesActive(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	session, err := s.ResolveSession(ctx, "c1", SessionPayload{
		BrowserName:    "Chrome",
		BrowserVersion: ptr("120.0"),
		WindowCount:    ptr(2),
		TabCount:       ptr(7),
	})
	require.NoError(t, err)

	assert.NotZero(t, session.ID)
	assert.Equal(t, "c1", session.ClientID)
	assert.Equal(t, "Chrome", session.BrowserName)
	assert.Equal(t, "120.0", session.BrowserVersion)
	assert.True(t, session.IsActive)
	assert.False(t, session.SessionStart.IsZero())
}

func TestResolveSessionIdempotent(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	first, err := s.ResolveSession(ctx, "c1", SessionPayload{BrowserName: "Chrome"})
	require.NoError(t, err)
	second, err := s.ResolveSession(ctx, "c1", SessionPayload{BrowserName: "Chrome"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, s.db.Model(&BrowserSession{}).
		Where("client_id = ? AND browser_name = ? AND is_active = ?", "c1", "Chrome", true).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestResolveSessionMergesLatestMetadata(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.ResolveSession(ctx, "c1", SessionPayload{
		BrowserName: "Chrome",
		WindowCount: ptr(1),
		TabCount:    ptr(3),
	})
	require.NoError(t, err)

	updated, err := s.ResolveSession(ctx, "c1", SessionPayload{
		BrowserName:  "Chrome",
		WindowCount:  ptr(2),
		TabCount:     ptr(9),
		WindowTitles: []string{"Inbox", "Docs"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, updated.WindowCount)
	assert.Equal(t, 9, updated.TabCount)
	assert.JSONEq(t, `["Inbox","Docs"]`, string(updated.WindowTitles))
}

func TestResolveSessionEndClosesSession(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	start := time.Now().Add(-10 * time.Minute).Truncate(time.Second)
	_, err := s.ResolveSession(ctx, "c1", SessionPayload{
		BrowserName: "Firefox",
		StartTime:   ptr(start),
	})
	require.NoError(t, err)

	end := start.Add(5 * time.Minute)
	closed, err := s.ResolveSession(ctx, "c1", SessionPayload{
		BrowserName: "Firefox",
		EndTime:     ptr(end),
	})
	require.NoError(t, err)

	assert.False(t, closed.IsActive)
	require.NotNil(t, closed.SessionEnd)
	assert.Equal(t, 300, closed.TotalDuration)

	// next ping starts a fresh session
	fresh, err := s.ResolveSession(ctx, "c1", SessionPayload{BrowserName: "Firefox"})
	require.NoError(t, err)
	assert.NotEqual(t, closed.ID, fresh.ID)
	assert.True(t, fresh.IsActive)
}

func TestResolveSessionSuppliedDurationWins(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	start := time.Now().Add(-10 * time.Minute)
	_, err := s.ResolveSession(ctx, "c1", SessionPayload{BrowserName: "Chrome", StartTime: ptr(start)})
	require.NoError(t, err)

	closed, err := s.ResolveSession(ctx, "c1", SessionPayload{
		BrowserName:   "Chrome",
		EndTime:       ptr(start.Add(2 * time.Minute)),
		TotalDuration: ptr(90),
	})
	require.NoError(t, err)
	assert.Equal(t, 90, closed.TotalDuration)
}

func TestRecordActivityRequiresURL(t *testing.T) {
	s := newTestService(t)

	_, err := s.RecordActivity(context.Background(), "c1", ActivityPayload{BrowserName: "Chrome"})
	assert.ErrorIs(t, err, ErrURLRequired)
}

func TestRecordActivityCreatesSessionWhenMissing(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	activity, err := s.RecordActivity(ctx, "c1", ActivityPayload{
		URL:         "https://mail.google.com/inbox",
		BrowserName: "Chrome",
		Title:       ptr("Inbox"),
	})
	require.NoError(t, err)

	assert.Equal(t, "mail.google.com", activity.Domain)
	assert.Equal(t, CategoryWork, activity.ActivityCategory)
	assert.NotZero(t, activity.BrowserSessionID)

	var session BrowserSession
	require.NoError(t, s.db.First(&session, activity.BrowserSessionID).Error)
	assert.Equal(t, "Chrome", session.BrowserName)
	assert.True(t, session.IsActive)
}

func TestRecordActivityDedupWithinWindow(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }

	first, err := s.RecordActivity(ctx, "c1", ActivityPayload{
		URL:         "https://mail.google.com/inbox",
		BrowserName: "Chrome",
		Title:       ptr("Inbox"),
	})
	require.NoError(t, err)

	// second ping 10s later updates the same row
	s.now = func() time.Time { return base.Add(10 * time.Second) }
	second, err := s.RecordActivity(ctx, "c1", ActivityPayload{
		URL:         "https://mail.google.com/inbox",
		BrowserName: "Chrome",
		Duration:    ptr(5),
		ScrollDepth: ptr(20),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Duration)
	assert.Equal(t, 20, second.ScrollDepth)
	assert.Equal(t, "Inbox", second.PageTitle)

	var count int64
	require.NoError(t, s.db.Model(&UrlActivity{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRecordActivityNewRowOutsideWindow(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }

	first, err := s.RecordActivity(ctx, "c1", ActivityPayload{
		URL:         "https://example.com/page",
		BrowserName: "Chrome",
	})
	require.NoError(t, err)

	// 65s later: a distinct revisit, not an update
	s.now = func() time.Time { return base.Add(65 * time.Second) }
	second, err := s.RecordActivity(ctx, "c1", ActivityPayload{
		URL:         "https://example.com/page",
		BrowserName: "Chrome",
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	var count int64
	require.NoError(t, s.db.Model(&UrlActivity{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestRecordActivitySameURLDifferentBrowsers(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	chrome, err := s.RecordActivity(ctx, "c1", ActivityPayload{
		URL:         "https://example.com/page",
		BrowserName: "Chrome",
	})
	require.NoError(t, err)

	firefox, err := s.RecordActivity(ctx, "c1", ActivityPayload{
		URL:         "https://example.com/page",
		BrowserName: "Firefox",
	})
	require.NoError(t, err)

	assert.NotEqual(t, chrome.ID, firefox.ID)
	assert.NotEqual(t, chrome.BrowserSessionID, firefox.BrowserSessionID)
}

func TestRecordActivityInactiveSetsVisitEnd(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	first, err := s.RecordActivity(ctx, "c1", ActivityPayload{
		URL:         "https://example.com/page",
		BrowserName: "Chrome",
	})
	require.NoError(t, err)

	end := time.Now()
	closed, err := s.RecordActivity(ctx, "c1", ActivityPayload{
		URL:         "https://example.com/page",
		BrowserName: "Chrome",
		IsActive:    ptr(false),
		EndTime:     ptr(end),
		Duration:    ptr(42),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, closed.ID)
	assert.False(t, closed.IsActive)
	require.NotNil(t, closed.VisitEnd)
	assert.Equal(t, 42, closed.Duration)
}

func TestIngestScenario(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }

	// first ping: session + work activity
	activity, err := s.RecordActivity(ctx, "c1", ActivityPayload{
		URL:         "https://mail.google.com/inbox",
		BrowserName: "Chrome",
		Title:       ptr("Inbox"),
	})
	require.NoError(t, err)
	assert.Equal(t, "mail.google.com", activity.Domain)
	assert.Equal(t, CategoryWork, activity.ActivityCategory)

	// second ping 5s later updates in place
	s.now = func() time.Time { return base.Add(5 * time.Second) }
	updated, err := s.RecordActivity(ctx, "c1", ActivityPayload{
		URL:         "https://mail.google.com/inbox",
		BrowserName: "Chrome",
		Duration:    ptr(5),
		ScrollDepth: ptr(20),
	})
	require.NoError(t, err)
	assert.Equal(t, activity.ID, updated.ID)
	assert.Equal(t, 5, updated.Duration)
	assert.Equal(t, 20, updated.ScrollDepth)

	// different URL in the same session: new row, suspicious
	gambling, err := s.RecordActivity(ctx, "c1", ActivityPayload{
		URL:         "https://sbobet88.com/live",
		BrowserName: "Chrome",
	})
	require.NoError(t, err)
	assert.NotEqual(t, activity.ID, gambling.ID)
	assert.Equal(t, activity.BrowserSessionID, gambling.BrowserSessionID)
	assert.Equal(t, "sbobet88.com", gambling.Domain)
	assert.Equal(t, CategorySuspicious, gambling.ActivityCategory)
}

func TestProcessBatchCounts(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	result, err := s.ProcessBatch(ctx, "c1",
		[]SessionPayload{
			{BrowserName: "Chrome"},
			{BrowserName: "Firefox"},
		},
		[]ActivityPayload{
			{URL: "https://github.com/acme/repo", BrowserName: "Chrome"},
		})
	require.NoError(t, err)

	assert.Equal(t, 2, result.BrowserSessions)
	assert.Equal(t, 1, result.URLActivities)
}

func TestProcessBatchStopsOnError(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	result, err := s.ProcessBatch(ctx, "c1", nil, []ActivityPayload{
		{URL: "https://github.com/acme/repo", BrowserName: "Chrome"},
		{BrowserName: "Chrome"}, // missing URL
	})
	assert.ErrorIs(t, err, ErrURLRequired)
	assert.Equal(t, 1, result.URLActivities)
}
