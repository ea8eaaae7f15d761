package tracking

import (
	"time"

	"gorm.io/datatypes"
)

// BrowserSession is one span of a browser application being open on a client.
// At most one row per (client_id, browser_name) should be active at a time;
// this is enforced by the resolver's find-or-create, not a DB constraint, so
// concurrent pings can race and briefly leave two active rows.
type BrowserSession struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	ClientID              string         `gorm:"size:255;not null;index:idx_browser_sessions_client_active,priority:1" json:"client_id"`
	BrowserName           string         `gorm:"size:255;not null;index:idx_browser_sessions_client_active,priority:2" json:"browser_name"`
	BrowserVersion        string         `gorm:"size:255" json:"browser_version"`
	BrowserExecutablePath string         `gorm:"size:1024" json:"browser_executable_path,omitempty"`
	WindowCount           int            `json:"window_count"`
	TabCount              int            `json:"tab_count"`
	SessionStart          time.Time      `gorm:"not null;index" json:"session_start"`
	SessionEnd            *time.Time     `json:"session_end,omitempty"`
	TotalDuration         int            `json:"total_duration"`
	IsActive              bool           `gorm:"index:idx_browser_sessions_client_active,priority:3" json:"is_active"`
	WindowTitles          datatypes.JSON `json:"window_titles,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

func (BrowserSession) TableName() string { return "browser_sessions" }

// UrlActivity is one tracked visit to a URL within a browser session. Rapid
// repeat pings for the same URL collapse into one row via the dedup window.
type UrlActivity struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ClientID         string         `gorm:"size:255;not null;index:idx_url_activities_dedup,priority:1" json:"client_id"`
	BrowserSessionID uint           `gorm:"not null;index:idx_url_activities_dedup,priority:2" json:"browser_session_id"`
	URL              string         `gorm:"size:2048;not null" json:"url"`
	Domain           string         `gorm:"size:255;index" json:"domain"`
	PageTitle        string         `gorm:"size:1024" json:"page_title,omitempty"`
	TabID            string         `gorm:"size:255" json:"tab_id,omitempty"`
	VisitStart       time.Time      `gorm:"not null;index" json:"visit_start"`
	VisitEnd         *time.Time     `json:"visit_end,omitempty"`
	Duration         int            `json:"duration"`
	ScrollDepth      int            `json:"scroll_depth"`
	Clicks           int            `json:"clicks"`
	Keystrokes       int            `json:"keystrokes"`
	IsActive         bool           `gorm:"index:idx_url_activities_dedup,priority:3" json:"is_active"`
	ReferrerURL      string         `gorm:"size:2048" json:"referrer_url,omitempty"`
	Metadata         datatypes.JSON `json:"metadata,omitempty"`
	ActivityCategory Category       `gorm:"size:32;not null;default:work;index" json:"activity_category"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (UrlActivity) TableName() string { return "url_activities" }
