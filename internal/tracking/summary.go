package tracking

import (
	"context"
	"fmt"
	"time"
)

type BrowserUsage struct {
	BrowserName    string    `json:"browser_name"`
	SessionCount   int64     `json:"session_count"`
	TotalTime      int64     `json:"total_time"`
	AvgSessionTime float64   `json:"avg_session_time"`
	LastSession    time.Time `json:"last_session"`
}

type DomainUsage struct {
	Domain     string  `json:"domain"`
	VisitCount int64   `json:"visit_count"`
	TotalTime  int64   `json:"total_time"`
	AvgTime    float64 `json:"avg_time"`
}

type DailyUsage struct {
	Date          time.Time `json:"date"`
	Visits        int64     `json:"visits"`
	TotalTime     int64     `json:"total_time"`
	UniqueDomains int64     `json:"unique_domains"`
}

type SummaryTotals struct {
	Sessions          int64 `json:"sessions"`
	TotalBrowsingTime int64 `json:"total_browsing_time"`
	UniqueDomains     int   `json:"unique_domains"`
	TotalVisits       int   `json:"total_visits"`
}

type Summary struct {
	BrowserSessions  []BrowserUsage `json:"browser_sessions"`
	TopDomains       []DomainUsage  `json:"top_domains"`
	RecentActivities []UrlActivity  `json:"recent_activities"`
	DailyStats       []DailyUsage   `json:"daily_stats"`
	Totals           SummaryTotals  `json:"totals"`
}

// Summarize aggregates one client's browsing over [start, end]: per-browser
// session stats, top domains by time, the most recent activities and per-day
// usage.
func (s *Service) Summarize(ctx context.Context, clientID string, start, end time.Time) (*Summary, error) {
	summary := &Summary{}

	err := s.db.WithContext(ctx).
		Model(&BrowserSession{}).
		Select(`browser_name,
			COUNT(*) as session_count,
			COALESCE(SUM(total_duration), 0) as total_time,
			COALESCE(AVG(total_duration), 0) as avg_session_time,
			MAX(session_start) as last_session`).
		Where("client_id = ? AND session_start BETWEEN ? AND ?", clientID, start, end).
		Group("browser_name").
		Order("total_time DESC").
		Scan(&summary.BrowserSessions).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate browser sessions: %w", err)
	}

	err = s.db.WithContext(ctx).
		Model(&UrlActivity{}).
		Select(`domain,
			COUNT(*) as visit_count,
			COALESCE(SUM(duration), 0) as total_time,
			COALESCE(AVG(duration), 0) as avg_time`).
		Where("client_id = ? AND visit_start BETWEEN ? AND ?", clientID, start, end).
		Group("domain").
		Order("total_time DESC").
		Limit(20).
		Scan(&summary.TopDomains).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate top domains: %w", err)
	}

	err = s.db.WithContext(ctx).
		Where("client_id = ? AND visit_start BETWEEN ? AND ?", clientID, start, end).
		Order("visit_start DESC").
		Limit(50).
		Find(&summary.RecentActivities).Error
	if err != nil {
		return nil, fmt.Errorf("list recent activities: %w", err)
	}

	err = s.db.WithContext(ctx).
		Model(&UrlActivity{}).
		Select(`DATE(visit_start) as date,
			COUNT(*) as visits,
			COALESCE(SUM(duration), 0) as total_time,
			COUNT(DISTINCT domain) as unique_domains`).
		Where("client_id = ? AND visit_start BETWEEN ? AND ?", clientID, start, end).
		Group("DATE(visit_start)").
		Order("date DESC").
		Scan(&summary.DailyStats).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate daily stats: %w", err)
	}

	for _, b := range summary.BrowserSessions {
		summary.Totals.Sessions += b.SessionCount
		summary.Totals.TotalBrowsingTime += b.TotalTime
	}
	summary.Totals.UniqueDomains = len(summary.TopDomains)
	summary.Totals.TotalVisits = len(summary.RecentActivities)

	return summary, nil
}
