package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/smart-student-hub/internal/dto"
	"github.com/noah-isme/smart-student-hub/internal/events"
	"github.com/noah-isme/smart-student-hub/internal/models"
	"github.com/noah-isme/smart-student-hub/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Student{}, &models.Activity{}, &models.AuditLog{}, &models.UploadRecord{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, role, department string) models.Student {
	t.Helper()

	user := models.Student{
		Name:       name,
		Email:      fmt.Sprintf("%s@campus.test", uuid.NewString()[:8]),
		Role:       role,
		Department: department,
		Semester:   3,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

type fakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ActivityReviewed
}

func (p *recordingPublisher) PublishReviewed(_ context.Context, event events.ActivityReviewed) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Published() []events.ActivityReviewed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.ActivityReviewed(nil), p.events...)
}

type lifecycleFixture struct {
	db        *gorm.DB
	repo      repository.ActivityRepository
	service   ActivityService
	audit     AuditService
	publisher *recordingPublisher
	clock     *fakeClock
	student   models.Student
	other     models.Student
	faculty   models.Student
	admin     models.Student
}

func newLifecycleFixture(t *testing.T, cache AggregateCache) *lifecycleFixture {
	t.Helper()

	db := setupServiceTestDB(t)
	repo := repository.NewActivityRepository(db)
	audit := NewAuditService(repository.NewAuditLogRepository(db), testLogger())
	publisher := &recordingPublisher{}
	clock := newFakeClock()

	svc := NewActivityService(repo, newTestValidator(), ActivityDependencies{
		Audit:  audit,
		Events: publisher,
		Cache:  cache,
	}, testLogger())
	svc.(*activityService).now = clock.Now

	return &lifecycleFixture{
		db:        db,
		repo:      repo,
		service:   svc,
		audit:     audit,
		publisher: publisher,
		clock:     clock,
		student:   seedUser(t, db, "Asha Rao", models.RoleStudent, "Computer Science"),
		other:     seedUser(t, db, "Bilal Khan", models.RoleStudent, "Mechanical"),
		faculty:   seedUser(t, db, "Dr. Mehta", models.RoleFaculty, "Computer Science"),
		admin:     seedUser(t, db, "Registrar", models.RoleAdmin, ""),
	}
}

func (f *lifecycleFixture) as(user models.Student) Principal {
	return Principal{ID: user.ID, Role: user.Role}
}

func (f *lifecycleFixture) stored(t *testing.T, id uint) models.Activity {
	t.Helper()
	var activity models.Activity
	require.NoError(t, f.db.First(&activity, id).Error)
	return activity
}

func validDraft(title string) dto.ActivityCreateRequest {
	return dto.ActivityCreateRequest{
		Title:       title,
		Description: "Presented a paper on distributed caching",
		Category:    string(models.CategoryConference),
		StartDate:   "2024-01-05",
		EndDate:     "2024-01-07",
	}
}
