package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-student-hub/internal/models"
)

func activity(id uint, category models.ActivityCategory, status models.ActivityStatus, points int) models.Activity {
	return models.Activity{
		ID:        id,
		StudentID: 1,
		Title:     "Activity",
		Category:  category,
		Status:    status,
		Points:    points,
		CreatedAt: time.Date(2024, 1, int(id), 9, 0, 0, 0, time.UTC),
	}
}

func TestSummarizeCountsStatusesAndApprovedPoints(t *testing.T) {
	activities := []models.Activity{
		activity(1, models.CategoryConference, models.ActivityStatusApproved, 10),
		activity(2, models.CategoryConference, models.ActivityStatusPending, 5),
		activity(3, models.CategoryWorkshop, models.ActivityStatusApproved, 20),
	}

	stats := Summarize(activities)
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 2, stats.Approved)
	require.Equal(t, 1, stats.Pending)
	require.Equal(t, 0, stats.Rejected)
	require.Equal(t, 30, stats.TotalPoints)
	require.Equal(t, map[string]int{"conference": 2, "workshop": 1}, stats.ByCategory)
}

func TestSummarizeIgnoresPointsOnUnapprovedActivities(t *testing.T) {
	activities := []models.Activity{
		activity(1, models.CategoryProject, models.ActivityStatusRejected, 40),
		activity(2, models.CategoryProject, models.ActivityStatusPending, 15),
		activity(3, models.CategoryProject, models.ActivityStatusApproved, -3),
	}

	stats := Summarize(activities)
	require.Equal(t, 0, stats.TotalPoints)
	require.Equal(t, 1, stats.Rejected)
	require.Equal(t, 3, stats.ByCategory["project"])
}

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil)
	require.Zero(t, stats.Total)
	require.NotNil(t, stats.ByCategory)
	require.Empty(t, stats.ByCategory)
}

func TestPortfolioSummaryOnlyCountsApproved(t *testing.T) {
	activities := []models.Activity{
		activity(1, models.CategoryCompetition, models.ActivityStatusApproved, 50),
		activity(2, models.CategoryCompetition, models.ActivityStatusApproved, 25),
		activity(3, models.CategoryCompetition, models.ActivityStatusRejected, 100),
		activity(4, models.CategoryLeadership, models.ActivityStatusPending, 10),
		activity(5, models.CategoryLeadership, models.ActivityStatusApproved, 0),
	}

	summary := PortfolioSummary(activities)
	require.Equal(t, 3, summary.TotalActivities)
	require.Equal(t, 75, summary.TotalPoints)
	require.Equal(t, CategoryTally{Count: 2, Points: 75}, summary.ByCategory["competition"])
	require.Equal(t, CategoryTally{Count: 1, Points: 0}, summary.ByCategory["leadership"])
	require.Len(t, summary.ByCategory, 2)
}

func TestAnalyticsBreakdownAndDepartments(t *testing.T) {
	cs := models.Student{ID: 1, Department: "Computer Science"}
	ee := models.Student{ID: 2, Department: "Electrical"}

	activities := []models.Activity{
		activity(1, models.CategoryConference, models.ActivityStatusApproved, 10),
		activity(2, models.CategoryWorkshop, models.ActivityStatusPending, 0),
		activity(3, models.CategoryWorkshop, models.ActivityStatusRejected, 0),
		activity(4, models.CategoryOther, models.ActivityStatusPending, 0),
	}
	activities[0].Student = cs
	activities[1].Student = cs
	activities[2].Student = ee

	report := Analytics(activities, RecentLimit)
	require.Equal(t, 4, report.TotalActivities)
	require.Equal(t, StatusBreakdown{Approved: 1, Pending: 2, Rejected: 1}, report.ByStatus)
	require.Equal(t, map[string]int{"conference": 1, "workshop": 2, "other": 1}, report.ByCategory)
	require.Equal(t, map[string]int{"Computer Science": 2, "Electrical": 1}, report.ByDepartment)
	require.Len(t, report.Recent, 4)
	require.Equal(t, uint(4), report.Recent[0].ID)
}

func TestRecentLimitsAndKeepsInsertionOrderForTies(t *testing.T) {
	same := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	activities := make([]models.Activity, 0, 12)
	for i := 1; i <= 12; i++ {
		activities = append(activities, models.Activity{ID: uint(i), CreatedAt: same})
	}
	activities = append(activities, models.Activity{ID: 99, CreatedAt: same.Add(time.Hour)})

	recent := Recent(activities, RecentLimit)
	require.Len(t, recent, RecentLimit)
	require.Equal(t, uint(99), recent[0].ID)
	for i := 1; i < RecentLimit; i++ {
		require.Equal(t, uint(i), recent[i].ID)
	}
	require.Equal(t, uint(1), activities[0].ID, "input must not be reordered")
}

func TestSortByStartDesc(t *testing.T) {
	activities := []models.Activity{
		{ID: 1, StartDate: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 2, StartDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 3, StartDate: time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)},
	}

	ordered := SortByStartDesc(activities)
	require.Equal(t, []uint{2, 1, 3}, []uint{ordered[0].ID, ordered[1].ID, ordered[2].ID})
}
