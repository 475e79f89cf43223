package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/smart-student-hub/internal/aggregation"
	"github.com/noah-isme/smart-student-hub/internal/dto"
	"github.com/noah-isme/smart-student-hub/internal/models"
	"github.com/noah-isme/smart-student-hub/internal/observability"
	"github.com/noah-isme/smart-student-hub/internal/repository"
)

// FacultyService powers the review queue and institution-wide reporting.
type FacultyService interface {
	Pending(ctx context.Context, principal Principal) ([]dto.ActivityResponse, error)
	List(ctx context.Context, principal Principal, filter dto.ActivityListFilter) ([]dto.ActivityResponse, error)
	Students(ctx context.Context, principal Principal) ([]dto.ProfileResponse, error)
	Analytics(ctx context.Context, principal Principal) (dto.AnalyticsResponse, error)
	History(ctx context.Context, principal Principal, activityID uint) ([]dto.AuditLogResponse, error)
}

type facultyService struct {
	activities repository.ActivityRepository
	students   repository.StudentRepository
	audit      AuditService
	cache      AggregateCache
	validator  *validator.Validate
	tracer     trace.Tracer
	logger     zerolog.Logger
	now        func() time.Time
}

// NewFacultyService constructs the faculty service. audit and cache may be nil.
func NewFacultyService(activities repository.ActivityRepository, students repository.StudentRepository, audit AuditService, cache AggregateCache, validate *validator.Validate, logger zerolog.Logger) FacultyService {
	return &facultyService{
		activities: activities,
		students:   students,
		audit:      audit,
		cache:      cache,
		validator:  validate,
		tracer:     observability.Tracer("service/faculty"),
		logger:     logger.With().Str("component", "faculty_service").Logger(),
		now:        time.Now,
	}
}

func (s *facultyService) Pending(ctx context.Context, principal Principal) ([]dto.ActivityResponse, error) {
	if !principal.CanReview() {
		return nil, forbidden("pending", "faculty or admin role required")
	}

	pending := models.ActivityStatusPending
	activities, err := s.activities.Find(ctx, repository.ActivityFilter{Status: &pending, WithStudent: true})
	if err != nil {
		return nil, infrastructure("pending", err)
	}

	return dto.NewActivityResponseSlice(activities), nil
}

func (s *facultyService) List(ctx context.Context, principal Principal, filter dto.ActivityListFilter) ([]dto.ActivityResponse, error) {
	const op = "list_all"
	if !principal.CanReview() {
		return nil, forbidden(op, "faculty or admin role required")
	}

	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	filter.Category = strings.TrimSpace(filter.Category)
	if err := s.validator.Struct(filter); err != nil {
		return nil, validatorFailure(op, err)
	}

	query := repository.ActivityFilter{WithStudent: true}
	if filter.Status != "" {
		status := models.ActivityStatus(filter.Status)
		query.Status = &status
	}
	if filter.Category != "" {
		category := models.ActivityCategory(filter.Category)
		query.Category = &category
	}

	if filter.StudentID != 0 {
		studentID := filter.StudentID
		query.StudentID = &studentID
	}

	activities, err := s.activities.Find(ctx, query)
	if err != nil {
		return nil, infrastructure(op, err)
	}

	return dto.NewActivityResponseSlice(activities), nil
}

func (s *facultyService) Students(ctx context.Context, principal Principal) ([]dto.ProfileResponse, error) {
	if !principal.CanReview() {
		return nil, forbidden("students", "faculty or admin role required")
	}

	students, err := s.students.ListByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, infrastructure("students", err)
	}

	return dto.NewProfileResponseSlice(students), nil
}

func (s *facultyService) Analytics(ctx context.Context, principal Principal) (dto.AnalyticsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.aggregate")
	defer span.End()

	if !principal.CanReview() {
		return dto.AnalyticsResponse{}, recordFailure(span, forbidden("analytics", "faculty or admin role required"))
	}

	var cacheKey string
	if s.cache != nil {
		key, err := s.cache.AnalyticsKey(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("aggregate cache unavailable, reading store")
		}
		cacheKey = key
	}

	if cacheKey != "" {
		span.SetAttributes(attribute.String("analytics.cache_key", cacheKey))
		var cached dto.AnalyticsResponse
		if s.cache.Get(ctx, cacheKey, &cached) {
			observability.AggregateCacheLookups().WithLabelValues(viewAnalytics, "hit").Inc()
			cached.CacheHit = true
			span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
			return cached, nil
		}
		observability.AggregateCacheLookups().WithLabelValues(viewAnalytics, "miss").Inc()
	}

	activities, err := s.activities.Find(ctx, repository.ActivityFilter{WithStudent: true})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_activities_failed")
		return dto.AnalyticsResponse{}, infrastructure("analytics", err)
	}

	report := aggregation.Analytics(activities, aggregation.RecentLimit)
	response := dto.NewAnalyticsResponse(report, s.now().UTC())
	span.SetAttributes(attribute.Int("analytics.activity_count", report.TotalActivities))

	if cacheKey != "" {
		s.cache.Set(ctx, cacheKey, response)
	}

	return response, nil
}

func (s *facultyService) History(ctx context.Context, principal Principal, activityID uint) ([]dto.AuditLogResponse, error) {
	if !principal.CanReview() {
		return nil, forbidden("history", "faculty or admin role required")
	}
	if s.audit == nil {
		return []dto.AuditLogResponse{}, nil
	}

	return s.audit.History(ctx, activityID)
}
