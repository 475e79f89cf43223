package service

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/smart-student-hub/internal/aggregation"
	"github.com/noah-isme/smart-student-hub/internal/dto"
	"github.com/noah-isme/smart-student-hub/internal/models"
	"github.com/noah-isme/smart-student-hub/internal/observability"
	"github.com/noah-isme/smart-student-hub/internal/repository"
)

// DashboardRecentLimit bounds the recent activities shown on the student dashboard.
const DashboardRecentLimit = 5

// StudentService serves the student-facing read views and profile edits.
type StudentService interface {
	Profile(ctx context.Context, principal Principal) (dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, principal Principal, payload dto.ProfileUpdateRequest) (dto.ProfileResponse, error)
	Dashboard(ctx context.Context, principal Principal) (dto.StudentDashboardResponse, error)
	Portfolio(ctx context.Context, principal Principal, studentID uint) (dto.PortfolioResponse, error)
	Stats(ctx context.Context, principal Principal, studentID uint) (aggregation.Stats, error)
}

type studentService struct {
	students   repository.StudentRepository
	activities repository.ActivityRepository
	cache      AggregateCache
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
}

// NewStudentService builds the student read service. cache may be nil.
func NewStudentService(students repository.StudentRepository, activities repository.ActivityRepository, cache AggregateCache, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		students:   students,
		activities: activities,
		cache:      cache,
		validator:  validate,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) Profile(ctx context.Context, principal Principal) (dto.ProfileResponse, error) {
	student, err := s.loadStudent(ctx, "profile", principal.ID)
	if err != nil {
		return dto.ProfileResponse{}, err
	}

	return dto.NewProfileResponse(student), nil
}

func (s *studentService) UpdateProfile(ctx context.Context, principal Principal, payload dto.ProfileUpdateRequest) (dto.ProfileResponse, error) {
	const op = "update_profile"

	if err := s.validator.Struct(payload); err != nil {
		return dto.ProfileResponse{}, validatorFailure(op, err)
	}

	student, err := s.loadStudent(ctx, op, principal.ID)
	if err != nil {
		return dto.ProfileResponse{}, err
	}

	if payload.Name != nil {
		name := s.clean(*payload.Name)
		if name == "" {
			return dto.ProfileResponse{}, validationFailure(op, "name cannot be blank")
		}
		student.Name = name
	}
	if payload.Phone != nil {
		student.Phone = s.clean(*payload.Phone)
	}
	if payload.Semester != nil {
		student.Semester = *payload.Semester
	}
	if payload.Batch != nil {
		student.Batch = s.clean(*payload.Batch)
	}
	if payload.ProfilePicture != nil {
		student.ProfilePicture = strings.TrimSpace(*payload.ProfilePicture)
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return dto.ProfileResponse{}, infrastructure(op, err)
	}

	// Dashboard and portfolio embed the profile.
	if err := s.invalidate(ctx, student.ID); err != nil {
		return dto.ProfileResponse{}, infrastructure(op, err)
	}

	s.logger.Info().Uint("student_id", student.ID).Msg("profile updated")

	return dto.NewProfileResponse(student), nil
}

func (s *studentService) Dashboard(ctx context.Context, principal Principal) (dto.StudentDashboardResponse, error) {
	const op = "dashboard"
	cacheKey := s.cacheKey(ctx, viewDashboard, principal.ID)

	var cached dto.StudentDashboardResponse
	if s.lookup(ctx, viewDashboard, cacheKey, &cached) {
		return cached, nil
	}

	student, err := s.loadStudent(ctx, op, principal.ID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	activities, err := s.activities.Find(ctx, repository.ActivityFilter{StudentID: &student.ID})
	if err != nil {
		return dto.StudentDashboardResponse{}, infrastructure(op, err)
	}

	response := dto.StudentDashboardResponse{
		User:             dto.NewProfileResponse(student),
		Statistics:       dto.NewDashboardStatistics(aggregation.Summarize(activities)),
		RecentActivities: dto.NewActivityResponseSlice(aggregation.Recent(activities, DashboardRecentLimit)),
	}

	s.store(ctx, cacheKey, response)

	return response, nil
}

func (s *studentService) Portfolio(ctx context.Context, principal Principal, studentID uint) (dto.PortfolioResponse, error) {
	const op = "portfolio"
	if studentID == 0 {
		studentID = principal.ID
	}
	cacheKey := s.cacheKey(ctx, viewPortfolio, studentID)

	var cached dto.PortfolioResponse
	if s.lookup(ctx, viewPortfolio, cacheKey, &cached) {
		return cached, nil
	}

	student, err := s.loadStudent(ctx, op, studentID)
	if err != nil {
		return dto.PortfolioResponse{}, err
	}

	approved := models.ActivityStatusApproved
	activities, err := s.activities.Find(ctx, repository.ActivityFilter{StudentID: &student.ID, Status: &approved})
	if err != nil {
		return dto.PortfolioResponse{}, infrastructure(op, err)
	}

	response := dto.PortfolioResponse{
		Student:    dto.NewProfileResponse(student),
		Activities: dto.NewActivityResponseSlice(aggregation.SortByStartDesc(activities)),
		Statistics: aggregation.PortfolioSummary(activities),
	}

	s.store(ctx, cacheKey, response)

	return response, nil
}

func (s *studentService) Stats(ctx context.Context, principal Principal, studentID uint) (aggregation.Stats, error) {
	if studentID == 0 {
		studentID = principal.ID
	}
	cacheKey := s.cacheKey(ctx, viewStats, studentID)

	var cached aggregation.Stats
	if s.lookup(ctx, viewStats, cacheKey, &cached) {
		return cached, nil
	}

	activities, err := s.activities.Find(ctx, repository.ActivityFilter{StudentID: &studentID})
	if err != nil {
		return aggregation.Stats{}, infrastructure("stats", err)
	}

	stats := aggregation.Summarize(activities)
	s.store(ctx, cacheKey, stats)

	return stats, nil
}

func (s *studentService) loadStudent(ctx context.Context, op string, id uint) (models.Student, error) {
	if id == 0 {
		return models.Student{}, notFound(op, "student not found")
	}

	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, notFound(op, "student not found")
		}
		return models.Student{}, infrastructure(op, err)
	}

	return student, nil
}

// cacheKey pins the student's cache generation before the store is read. An
// empty key disables caching for the call.
func (s *studentService) cacheKey(ctx context.Context, view string, studentID uint) string {
	if s.cache == nil {
		return ""
	}
	key, err := s.cache.StudentKey(ctx, view, studentID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Str("view", view).Msg("aggregate cache unavailable, reading store")
		return ""
	}
	return key
}

func (s *studentService) lookup(ctx context.Context, view, key string, dest interface{}) bool {
	if key == "" {
		return false
	}
	if s.cache.Get(ctx, key, dest) {
		observability.AggregateCacheLookups().WithLabelValues(view, "hit").Inc()
		s.logger.Debug().Str("key", key).Msg("aggregate cache hit")
		return true
	}
	observability.AggregateCacheLookups().WithLabelValues(view, "miss").Inc()
	return false
}

func (s *studentService) store(ctx context.Context, key string, value interface{}) {
	if key != "" {
		s.cache.Set(ctx, key, value)
	}
}

func (s *studentService) invalidate(ctx context.Context, studentID uint) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateStudent(ctx, studentID)
}

func (s *studentService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}
