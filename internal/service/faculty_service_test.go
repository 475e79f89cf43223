package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-student-hub/internal/aggregation"
	"github.com/noah-isme/smart-student-hub/internal/dto"
	"github.com/noah-isme/smart-student-hub/internal/models"
	"github.com/noah-isme/smart-student-hub/internal/repository"
)

func newFacultyService(f *lifecycleFixture, cache AggregateCache) FacultyService {
	svc := NewFacultyService(f.repo, repository.NewStudentRepository(f.db), f.audit, cache, newTestValidator(), testLogger())
	svc.(*facultyService).now = f.clock.Now
	return svc
}

func TestFacultyServicePendingQueue(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	seedReviewedActivities(t, f)
	svc := newFacultyService(f, nil)
	ctx := context.Background()

	pending, err := svc.Pending(ctx, f.as(f.faculty))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "DevFest", pending[0].Title)
	require.NotNil(t, pending[0].Student)
	require.Equal(t, f.student.Name, pending[0].Student.Name)

	_, err = svc.Pending(ctx, f.as(f.student))
	require.ErrorIs(t, err, ErrForbidden)
}

func TestFacultyServiceListFilters(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	seedReviewedActivities(t, f)
	_, err := f.service.Create(context.Background(), f.as(f.other), validDraft("Other conference"))
	require.NoError(t, err)

	svc := newFacultyService(f, nil)
	ctx := context.Background()

	all, err := svc.List(ctx, f.as(f.admin), dto.ActivityListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)

	approved, err := svc.List(ctx, f.as(f.admin), dto.ActivityListFilter{Status: "approved"})
	require.NoError(t, err)
	require.Len(t, approved, 2)

	conferences, err := svc.List(ctx, f.as(f.faculty), dto.ActivityListFilter{Category: "conference", StudentID: f.other.ID})
	require.NoError(t, err)
	require.Len(t, conferences, 1)
	require.Equal(t, "Other conference", conferences[0].Title)

	shouted, err := svc.List(ctx, f.as(f.admin), dto.ActivityListFilter{Status: " APPROVED "})
	require.NoError(t, err)
	require.Len(t, shouted, 2)

	_, err = svc.List(ctx, f.as(f.faculty), dto.ActivityListFilter{Status: "archived"})
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, map[string]string{"Status": "oneof"}, ValidationDetails(err))

	_, err = svc.List(ctx, f.as(f.faculty), dto.ActivityListFilter{Category: "party"})
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, map[string]string{"Category": "oneof"}, ValidationDetails(err))
}

func TestFacultyServiceStudentsSortedByName(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	seedUser(t, f.db, "Aaron Zed", models.RoleStudent, "Physics")

	students, err := newFacultyService(f, nil).Students(context.Background(), f.as(f.faculty))
	require.NoError(t, err)
	require.Len(t, students, 3)
	require.Equal(t, "Aaron Zed", students[0].Name)
	require.Equal(t, "Asha Rao", students[1].Name)
	require.Equal(t, "Bilal Khan", students[2].Name)
}

func TestFacultyServiceAnalytics(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	cache := NewAggregateCache(client, time.Minute, testLogger())
	f := newLifecycleFixture(t, cache)
	seedReviewedActivities(t, f)
	f.clock.Advance(time.Minute)
	_, err = f.service.Create(context.Background(), f.as(f.other), validDraft("Gear design"))
	require.NoError(t, err)

	svc := newFacultyService(f, cache)
	ctx := context.Background()

	report, err := svc.Analytics(ctx, f.as(f.faculty))
	require.NoError(t, err)
	require.False(t, report.CacheHit)
	require.Equal(t, 5, report.TotalActivities)
	require.Equal(t, aggregation.StatusBreakdown{Approved: 2, Pending: 2, Rejected: 1}, report.ByStatus)
	require.Equal(t, map[string]int{"Computer Science": 4, "Mechanical": 1}, report.ByDepartment)
	require.Equal(t, 3, report.ByCategory["conference"])
	require.Len(t, report.RecentActivities, 5)
	require.Equal(t, "Gear design", report.RecentActivities[0].Title)
	require.True(t, report.GeneratedAt.Equal(f.clock.Now()))

	cached, err := svc.Analytics(ctx, f.as(f.admin))
	require.NoError(t, err)
	require.True(t, cached.CacheHit)
	require.Equal(t, report.ByDepartment, cached.ByDepartment)

	_, err = f.service.Create(ctx, f.as(f.student), validDraft("Invalidates"))
	require.NoError(t, err)

	refreshed, err := svc.Analytics(ctx, f.as(f.faculty))
	require.NoError(t, err)
	require.False(t, refreshed.CacheHit)
	require.Equal(t, 6, refreshed.TotalActivities)

	_, err = svc.Analytics(ctx, f.as(f.student))
	require.ErrorIs(t, err, ErrForbidden)
}

func TestFacultyServiceHistory(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	ctx := context.Background()

	created, err := f.service.Create(ctx, f.as(f.student), validDraft("Audited"))
	require.NoError(t, err)
	_, err = f.service.Reject(ctx, f.as(f.faculty), created.ID, dto.ActivityRejectRequest{Reason: "blurry scan"})
	require.NoError(t, err)

	svc := newFacultyService(f, nil)
	history, err := svc.History(ctx, f.as(f.faculty), created.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	var rejection dto.AuditLogResponse
	for _, entry := range history {
		if entry.Action == "activity.rejected" {
			rejection = entry
		}
	}
	require.Equal(t, f.faculty.ID, rejection.ActorID)
	require.Equal(t, models.RoleFaculty, rejection.ActorRole)
	require.Equal(t, "blurry scan", rejection.Metadata["reason"])

	_, err = svc.History(ctx, f.as(f.student), created.ID)
	require.ErrorIs(t, err, ErrForbidden)
}
