package dto

import (
	"time"

	"github.com/noah-isme/smart-student-hub/internal/aggregation"
)

// AnalyticsResponse is the faculty-wide activity breakdown.
type AnalyticsResponse struct {
	TotalActivities  int                         `json:"total_activities"`
	ByStatus         aggregation.StatusBreakdown `json:"by_status"`
	ByCategory       map[string]int              `json:"by_category"`
	ByDepartment     map[string]int              `json:"by_department"`
	RecentActivities []ActivityResponse          `json:"recent_activities"`
	GeneratedAt      time.Time                   `json:"generated_at"`
	CacheHit         bool                        `json:"cache_hit"`
}

// NewAnalyticsResponse converts an aggregation report into a DTO.
func NewAnalyticsResponse(report aggregation.AnalyticsReport, generatedAt time.Time) AnalyticsResponse {
	return AnalyticsResponse{
		TotalActivities:  report.TotalActivities,
		ByStatus:         report.ByStatus,
		ByCategory:       report.ByCategory,
		ByDepartment:     report.ByDepartment,
		RecentActivities: NewActivityResponseSlice(report.Recent),
		GeneratedAt:      generatedAt,
	}
}
