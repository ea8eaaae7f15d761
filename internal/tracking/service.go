package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DedupWindow is the recency threshold for collapsing repeat pings for the
// same URL into one activity row. Agents report on sub-minute intervals;
// without this window every poll would create a near-duplicate row.
const DedupWindow = 60 * time.Second

const unknownBrowser = "Unknown"

var ErrURLRequired = errors.New("url is required for url activity")

// SessionPayload carries one browser-session ping. Nil fields were omitted by
// the agent: on update they keep the stored value, on create they take the
// documented default (counts 0, start time "now", active true).
type SessionPayload struct {
	BrowserName    string
	BrowserVersion *string
	ExecutablePath *string
	WindowCount    *int
	TabCount       *int
	StartTime      *time.Time
	EndTime        *time.Time
	TotalDuration  *int
	IsActive       *bool
	WindowTitles   []string
}

// ActivityPayload carries one URL-visit ping, same nil semantics as
// SessionPayload.
type ActivityPayload struct {
	URL         string
	BrowserName string
	Title       *string
	TabID       *string
	StartTime   *time.Time
	EndTime     *time.Time
	Duration    *int
	ScrollDepth *int
	Clicks      *int
	Keystrokes  *int
	IsActive    *bool
	ReferrerURL *string
	Metadata    map[string]any
}

type BatchResult struct {
	BrowserSessions int `json:"browser_sessions"`
	URLActivities   int `json:"url_activities"`
}

// Service ingests browser telemetry: it resolves active sessions, categorizes
// visits and collapses rapid repeat pings into single activity rows. All
// find-or-create sequences are plain read-then-write; near-simultaneous pings
// for the same client can race and create duplicate active rows, which is
// accepted for this best-effort pipeline.
type Service struct {
	db          *gorm.DB
	categorizer *Categorizer
	now         func() time.Time
}

func NewService(db *gorm.DB, categorizer *Categorizer) *Service {
	return &Service{
		db:          db,
		categorizer: categorizer,
		now:         time.Now,
	}
}

// ResolveSession finds the active session for (client, browser) and merges the
// payload into it, or creates a new active session when none exists. A
// supplied end time closes the session: active flag cleared, total duration
// set to the supplied value or the start-to-end delta.
func (s *Service) ResolveSession(ctx context.Context, clientID string, p SessionPayload) (*BrowserSession, error) {
	browserName := p.BrowserName
	if browserName == "" {
		browserName = unknownBrowser
	}

	var session BrowserSession
	err := s.db.WithContext(ctx).
		Where("client_id = ? AND browser_name = ? AND is_active = ?", clientID, browserName, true).
		First(&session).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find active session: %w", err)
		}
		return s.createSession(ctx, clientID, browserName, p)
	}

	if p.WindowCount != nil {
		session.WindowCount = *p.WindowCount
	}
	if p.TabCount != nil {
		session.TabCount = *p.TabCount
	}
	if p.WindowTitles != nil {
		session.WindowTitles = marshalTitles(p.WindowTitles)
	}
	if p.BrowserVersion != nil {
		session.BrowserVersion = *p.BrowserVersion
	}
	session.IsActive = p.IsActive == nil || *p.IsActive

	if p.EndTime != nil {
		session.SessionEnd = p.EndTime
		session.IsActive = false
		if p.TotalDuration != nil {
			session.TotalDuration = *p.TotalDuration
		} else {
			session.TotalDuration = int(p.EndTime.Sub(session.SessionStart).Seconds())
		}
	} else if p.TotalDuration != nil {
		session.TotalDuration = *p.TotalDuration
	}

	if err := s.db.WithContext(ctx).Save(&session).Error; err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return &session, nil
}

func (s *Service) createSession(ctx context.Context, clientID, browserName string, p SessionPayload) (*BrowserSession, error) {
	session := BrowserSession{
		ClientID:       clientID,
		BrowserName:    browserName,
		BrowserVersion: unknownBrowser,
		SessionStart:   s.now(),
		IsActive:       true,
	}
	if p.BrowserVersion != nil {
		session.BrowserVersion = *p.BrowserVersion
	}
	if p.ExecutablePath != nil {
		session.BrowserExecutablePath = *p.ExecutablePath
	}
	if p.WindowCount != nil {
		session.WindowCount = *p.WindowCount
	}
	if p.TabCount != nil {
		session.TabCount = *p.TabCount
	}
	if p.StartTime != nil {
		session.SessionStart = *p.StartTime
	}
	if p.IsActive != nil {
		session.IsActive = *p.IsActive
	}
	if p.WindowTitles != nil {
		session.WindowTitles = marshalTitles(p.WindowTitles)
	}

	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	slog.Debug("Browser session created",
		"client_id", clientID,
		"browser_name", browserName,
		"session_id", session.ID)
	return &session, nil
}

// activeSession finds the active session an activity should attach to, or
// creates a bare one when the agent reported a visit before any session ping.
func (s *Service) activeSession(ctx context.Context, clientID, browserName string) (*BrowserSession, error) {
	if browserName == "" {
		browserName = unknownBrowser
	}

	var session BrowserSession
	err := s.db.WithContext(ctx).
		Where("client_id = ? AND browser_name = ? AND is_active = ?", clientID, browserName, true).
		First(&session).Error
	if err == nil {
		return &session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	return s.createSession(ctx, clientID, browserName, SessionPayload{})
}

// RecordActivity upserts a URL visit. A ping matching an active row for the
// same client, URL and session with visit_start inside the dedup window
// updates that row in place (category recomputed every update); anything else
// creates a new row. Scoping by session id keeps the same URL open in two
// browsers tracked as two independent visits.
func (s *Service) RecordActivity(ctx context.Context, clientID string, p ActivityPayload) (*UrlActivity, error) {
	if p.URL == "" {
		return nil, ErrURLRequired
	}

	domain := ExtractDomain(p.URL)
	title := ""
	if p.Title != nil {
		title = *p.Title
	}
	category := s.categorizer.Categorize(p.URL, domain, title)

	session, err := s.activeSession(ctx, clientID, p.BrowserName)
	if err != nil {
		return nil, err
	}

	recentCutoff := s.now().Add(-DedupWindow)
	var existing UrlActivity
	err = s.db.WithContext(ctx).
		Where("client_id = ? AND url = ? AND browser_session_id = ? AND is_active = ? AND visit_start >= ?",
			clientID, p.URL, session.ID, true, recentCutoff).
		Order("visit_start DESC").
		First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find recent activity: %w", err)
		}
		return s.createActivity(ctx, clientID, session.ID, domain, category, p)
	}

	if p.Duration != nil {
		existing.Duration = *p.Duration
	}
	if p.Title != nil {
		existing.PageTitle = *p.Title
	}
	if p.ScrollDepth != nil {
		existing.ScrollDepth = *p.ScrollDepth
	}
	if p.Clicks != nil {
		existing.Clicks = *p.Clicks
	}
	if p.Keystrokes != nil {
		existing.Keystrokes = *p.Keystrokes
	}
	existing.IsActive = p.IsActive == nil || *p.IsActive
	existing.ActivityCategory = category

	if p.IsActive != nil && !*p.IsActive && p.EndTime != nil {
		existing.VisitEnd = p.EndTime
	}

	if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}
	return &existing, nil
}

func (s *Service) createActivity(ctx context.Context, clientID string, sessionID uint, domain string, category Category, p ActivityPayload) (*UrlActivity, error) {
	activity := UrlActivity{
		ClientID:         clientID,
		BrowserSessionID: sessionID,
		URL:              p.URL,
		Domain:           domain,
		VisitStart:       s.now(),
		VisitEnd:         p.EndTime,
		IsActive:         true,
		ActivityCategory: category,
	}
	if p.Title != nil {
		activity.PageTitle = *p.Title
	}
	if p.TabID != nil {
		activity.TabID = *p.TabID
	}
	if p.StartTime != nil {
		activity.VisitStart = *p.StartTime
	}
	if p.Duration != nil {
		activity.Duration = *p.Duration
	}
	if p.ScrollDepth != nil {
		activity.ScrollDepth = *p.ScrollDepth
	}
	if p.Clicks != nil {
		activity.Clicks = *p.Clicks
	}
	if p.Keystrokes != nil {
		activity.Keystrokes = *p.Keystrokes
	}
	if p.IsActive != nil {
		activity.IsActive = *p.IsActive
	}
	if p.ReferrerURL != nil {
		activity.ReferrerURL = *p.ReferrerURL
	}
	if p.Metadata != nil {
		raw, err := json.Marshal(p.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal activity metadata: %w", err)
		}
		activity.Metadata = datatypes.JSON(raw)
	}

	if err := s.db.WithContext(ctx).Create(&activity).Error; err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}

	slog.Debug("URL activity created",
		"client_id", clientID,
		"session_id", sessionID,
		"domain", domain,
		"category", category)
	return &activity, nil
}

// ProcessBatch ingests a mixed batch of session and activity pings for one
// client. The first persistence error aborts the batch; already processed
// rows are not rolled back (at-least-once ingestion, agents re-send on
// failure).
func (s *Service) ProcessBatch(ctx context.Context, clientID string, sessions []SessionPayload, activities []ActivityPayload) (BatchResult, error) {
	var result BatchResult

	for _, sp := range sessions {
		if _, err := s.ResolveSession(ctx, clientID, sp); err != nil {
			return result, err
		}
		result.BrowserSessions++
	}

	for _, ap := range activities {
		if _, err := s.RecordActivity(ctx, clientID, ap); err != nil {
			return result, err
		}
		result.URLActivities++
	}

	return result, nil
}

func marshalTitles(titles []string) datatypes.JSON {
	raw, err := json.Marshal(titles)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
