// Package aggregation derives statistics from a snapshot of activities.
//
// Every function is pure: it never mutates its input and returns the same
// output for the same sequence. Only approved activities earn points.
package aggregation

import (
	"sort"
	"strings"

	"github.com/noah-isme/smart-student-hub/internal/models"
)

// RecentLimit is how many activities the analytics report lists.
const RecentLimit = 10

// Stats summarises a student's activities across all statuses.
type Stats struct {
	Total       int            `json:"total"`
	Approved    int            `json:"approved"`
	Pending     int            `json:"pending"`
	Rejected    int            `json:"rejected"`
	TotalPoints int            `json:"total_points"`
	ByCategory  map[string]int `json:"by_category"`
}

// CategoryTally accumulates approved activities of one category.
type CategoryTally struct {
	Count  int `json:"count"`
	Points int `json:"points"`
}

// PortfolioStats summarises approved activities only.
type PortfolioStats struct {
	TotalActivities int                      `json:"total_activities"`
	TotalPoints     int                      `json:"total_points"`
	ByCategory      map[string]CategoryTally `json:"by_category"`
}

// StatusBreakdown counts activities per review status.
type StatusBreakdown struct {
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

// AnalyticsReport is the global breakdown shown to faculty.
type AnalyticsReport struct {
	TotalActivities int               `json:"total_activities"`
	ByStatus        StatusBreakdown   `json:"by_status"`
	ByCategory      map[string]int    `json:"by_category"`
	ByDepartment    map[string]int    `json:"by_department"`
	Recent          []models.Activity `json:"-"`
}

// Summarize counts activities per status and category and totals approved points.
func Summarize(activities []models.Activity) Stats {
	stats := Stats{ByCategory: map[string]int{}}

	for _, activity := range activities {
		stats.Total++
		switch activity.Status {
		case models.ActivityStatusApproved:
			stats.Approved++
		case models.ActivityStatusPending:
			stats.Pending++
		case models.ActivityStatusRejected:
			stats.Rejected++
		}
		stats.TotalPoints += activity.EarnedPoints()
		stats.ByCategory[string(activity.Category)]++
	}

	return stats
}

// PortfolioSummary tallies count and points per category over approved activities.
func PortfolioSummary(activities []models.Activity) PortfolioStats {
	summary := PortfolioStats{ByCategory: map[string]CategoryTally{}}

	for _, activity := range activities {
		if !activity.IsApproved() {
			continue
		}
		points := activity.EarnedPoints()
		summary.TotalActivities++
		summary.TotalPoints += points

		tally := summary.ByCategory[string(activity.Category)]
		tally.Count++
		tally.Points += points
		summary.ByCategory[string(activity.Category)] = tally
	}

	return summary
}

// Analytics builds the faculty-wide breakdown. Department comes from the
// activity's preloaded student; activities without one are not counted per department.
func Analytics(activities []models.Activity, recentLimit int) AnalyticsReport {
	report := AnalyticsReport{
		ByCategory:   map[string]int{},
		ByDepartment: map[string]int{},
	}

	for _, activity := range activities {
		report.TotalActivities++
		switch activity.Status {
		case models.ActivityStatusApproved:
			report.ByStatus.Approved++
		case models.ActivityStatusPending:
			report.ByStatus.Pending++
		case models.ActivityStatusRejected:
			report.ByStatus.Rejected++
		}
		report.ByCategory[string(activity.Category)]++

		if department := strings.TrimSpace(activity.Student.Department); department != "" {
			report.ByDepartment[department]++
		}
	}

	report.Recent = Recent(activities, recentLimit)

	return report
}

// Recent returns up to n activities ordered by creation time, newest first.
// Activities created at the same instant keep their input order.
func Recent(activities []models.Activity, n int) []models.Activity {
	if n <= 0 || len(activities) == 0 {
		return []models.Activity{}
	}

	ordered := make([]models.Activity, len(activities))
	copy(ordered, activities)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})

	if len(ordered) > n {
		ordered = ordered[:n]
	}
	return ordered
}

// SortByStartDesc orders activities by start date, most recent first, without touching the input.
func SortByStartDesc(activities []models.Activity) []models.Activity {
	ordered := make([]models.Activity, len(activities))
	copy(ordered, activities)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartDate.After(ordered[j].StartDate)
	})
	return ordered
}
