package dto

import (
	"time"

	"github.com/Adi-Sumardi/tenjo-server/internal/tracking"
)

// SessionPayload is one browser-session ping as sent by the agent. Pointer
// fields distinguish "omitted" from zero values.
type SessionPayload struct {
	ClientID       string     `json:"client_id"`
	BrowserName    string     `json:"browser_name"`
	BrowserVersion *string    `json:"browser_version"`
	ExecutablePath *string    `json:"executable_path"`
	WindowCount    *int       `json:"window_count"`
	TabCount       *int       `json:"tab_count"`
	StartTime      *time.Time `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	TotalDuration  *int       `json:"total_duration"`
	IsActive       *bool      `json:"is_active"`
	WindowTitles   []string   `json:"window_titles"`
}

func (p SessionPayload) ToDomain() tracking.SessionPayload {
	return tracking.SessionPayload{
		BrowserName:    p.BrowserName,
		BrowserVersion: p.BrowserVersion,
		ExecutablePath: p.ExecutablePath,
		WindowCount:    p.WindowCount,
		TabCount:       p.TabCount,
		StartTime:      p.StartTime,
		EndTime:        p.EndTime,
		TotalDuration:  p.TotalDuration,
		IsActive:       p.IsActive,
		WindowTitles:   p.WindowTitles,
	}
}

// ActivityPayload is one URL-visit ping as sent by the agent.
type ActivityPayload struct {
	ClientID    string         `json:"client_id"`
	URL         string         `json:"url"`
	BrowserName string         `json:"browser_name"`
	Title       *string        `json:"title"`
	TabID       *string        `json:"tab_id"`
	StartTime   *time.Time     `json:"start_time"`
	EndTime     *time.Time     `json:"end_time"`
	Duration    *int           `json:"duration"`
	ScrollDepth *int           `json:"scroll_depth"`
	Clicks      *int           `json:"clicks"`
	Keystrokes  *int           `json:"keystrokes"`
	IsActive    *bool          `json:"is_active"`
	ReferrerURL *string        `json:"referrer_url"`
	Metadata    map[string]any `json:"metadata"`
}

func (p ActivityPayload) ToDomain() tracking.ActivityPayload {
	return tracking.ActivityPayload{
		URL:         p.URL,
		BrowserName: p.BrowserName,
		Title:       p.Title,
		TabID:       p.TabID,
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		Duration:    p.Duration,
		ScrollDepth: p.ScrollDepth,
		Clicks:      p.Clicks,
		Keystrokes:  p.Keystrokes,
		IsActive:    p.IsActive,
		ReferrerURL: p.ReferrerURL,
		Metadata:    p.Metadata,
	}
}

type BrowserTrackingRequest struct {
	ClientID        string            `json:"client_id"`
	BrowserSessions []SessionPayload  `json:"browser_sessions"`
	URLActivities   []ActivityPayload `json:"url_activities"`
}

type BrowserTrackingResponse struct {
	Status    string               `json:"status"`
	Processed tracking.BatchResult `json:"processed"`
	Timestamp time.Time            `json:"timestamp"`
}

type SessionStoredResponse struct {
	Status    string    `json:"status"`
	SessionID uint      `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

type ActivityStoredResponse struct {
	Status     string            `json:"status"`
	ActivityID uint              `json:"activity_id"`
	Category   tracking.Category `json:"category"`
	Timestamp  time.Time         `json:"timestamp"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
