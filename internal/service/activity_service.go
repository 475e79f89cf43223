package service

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/smart-student-hub/internal/dto"
	"github.com/noah-isme/smart-student-hub/internal/events"
	"github.com/noah-isme/smart-student-hub/internal/models"
	"github.com/noah-isme/smart-student-hub/internal/observability"
	"github.com/noah-isme/smart-student-hub/internal/repository"
)

// ActivityService enforces the activity lifecycle: students create, edit and
// delete their own unapproved activities; faculty and admins approve or reject.
type ActivityService interface {
	Create(ctx context.Context, principal Principal, payload dto.ActivityCreateRequest) (dto.ActivityResponse, error)
	Get(ctx context.Context, principal Principal, id uint) (dto.ActivityResponse, error)
	ListMine(ctx context.Context, principal Principal) ([]dto.ActivityResponse, error)
	Update(ctx context.Context, principal Principal, id uint, payload dto.ActivityUpdateRequest) (dto.ActivityResponse, error)
	Delete(ctx context.Context, principal Principal, id uint) error
	Approve(ctx context.Context, principal Principal, id uint, payload dto.ActivityApproveRequest) (dto.ActivityResponse, error)
	Reject(ctx context.Context, principal Principal, id uint, payload dto.ActivityRejectRequest) (dto.ActivityResponse, error)
}

// ActivityDependencies groups the optional collaborators of the lifecycle service.
// Nil members are skipped.
type ActivityDependencies struct {
	Audit  AuditRecorder
	Events events.Publisher
	Cache  AggregateCache
}

type activityService struct {
	repo      repository.ActivityRepository
	validator *validator.Validate
	audit     AuditRecorder
	events    events.Publisher
	cache     AggregateCache
	sanitizer *bluemonday.Policy
	locks     *keyedMutex
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewActivityService constructs the lifecycle service.
func NewActivityService(repo repository.ActivityRepository, validate *validator.Validate, deps ActivityDependencies, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		validator: validate,
		audit:     deps.Audit,
		events:    deps.Events,
		cache:     deps.Cache,
		sanitizer: bluemonday.StrictPolicy(),
		locks:     newKeyedMutex(),
		tracer:    observability.Tracer("service/activity"),
		logger:    logger.With().Str("component", "activity_service").Logger(),
		now:       time.Now,
	}
}

func (s *activityService) Create(ctx context.Context, principal Principal, payload dto.ActivityCreateRequest) (dto.ActivityResponse, error) {
	const op = "create"
	ctx, span := s.startSpan(ctx, "activity.create", principal, 0)
	defer span.End()

	if !principal.IsStudent() {
		return dto.ActivityResponse{}, recordFailure(span, forbidden(op, "only students can record activities"))
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, recordFailure(span, validatorFailure(op, err))
	}

	start, err := parseDate(payload.StartDate)
	if err != nil {
		return dto.ActivityResponse{}, recordFailure(span, validationFailure(op, "start_date must be a date in YYYY-MM-DD format"))
	}

	var end *time.Time
	if strings.TrimSpace(payload.EndDate) != "" {
		parsed, err := parseDate(payload.EndDate)
		if err != nil {
			return dto.ActivityResponse{}, recordFailure(span, validationFailure(op, "end_date must be a date in YYYY-MM-DD format"))
		}
		end = &parsed
	}

	now := s.now().UTC()
	activity := models.Activity{
		StudentID:      principal.ID,
		Title:          s.clean(payload.Title),
		Description:    s.clean(payload.Description),
		Category:       models.ActivityCategory(strings.TrimSpace(payload.Category)),
		StartDate:      start,
		EndDate:        end,
		Venue:          s.clean(payload.Venue),
		Organizer:      s.clean(payload.Organizer),
		CertificateURL: strings.TrimSpace(payload.CertificateURL),
		DocumentURL:    strings.TrimSpace(payload.DocumentURL),
		Points:         0,
		Status:         models.ActivityStatusPending,
		Tags:           s.cleanTags(payload.Tags),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := checkActivity(op, activity); err != nil {
		return dto.ActivityResponse{}, recordFailure(span, err)
	}

	if err := s.repo.Insert(ctx, &activity); err != nil {
		return dto.ActivityResponse{}, recordFailure(span, infrastructure(op, err))
	}

	span.SetAttributes(attribute.Int64("activity.id", int64(activity.ID)))
	if err := s.afterMutation(ctx, op, principal, "created", activity); err != nil {
		return dto.ActivityResponse{}, recordFailure(span, err)
	}

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) Get(ctx context.Context, principal Principal, id uint) (dto.ActivityResponse, error) {
	const op = "get"

	activity, err := s.load(ctx, op, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	if activity.StudentID != principal.ID && !principal.CanReview() {
		return dto.ActivityResponse{}, notFound(op, "activity not found")
	}

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) ListMine(ctx context.Context, principal Principal) ([]dto.ActivityResponse, error) {
	if principal.ID == 0 {
		return nil, forbidden("list", "authentication required")
	}

	studentID := principal.ID
	activities, err := s.repo.Find(ctx, repository.ActivityFilter{StudentID: &studentID})
	if err != nil {
		return nil, infrastructure("list", err)
	}

	return dto.NewActivityResponseSlice(activities), nil
}

func (s *activityService) Update(ctx context.Context, principal Principal, id uint, payload dto.ActivityUpdateRequest) (dto.ActivityResponse, error) {
	const op = "update"
	ctx, span := s.startSpan(ctx, "activity.update", principal, id)
	defer span.End()

	unlock := s.locks.Lock(id)
	defer unlock()

	activity, err := s.load(ctx, op, id)
	if err != nil {
		return dto.ActivityResponse{}, recordFailure(span, err)
	}

	// Approved activities are frozen for every caller, owner or not.
	if activity.IsApproved() {
		return dto.ActivityResponse{}, recordFailure(span, invalidState(op, "approved activities cannot be edited"))
	}

	if activity.StudentID != principal.ID {
		return dto.ActivityResponse{}, recordFailure(span, notFound(op, "activity not found or unauthorized"))
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, recordFailure(span, validatorFailure(op, err))
	}

	if err := s.applyPatch(op, &activity, payload); err != nil {
		return dto.ActivityResponse{}, recordFailure(span, err)
	}

	if err := checkActivity(op, activity); err != nil {
		return dto.ActivityResponse{}, recordFailure(span, err)
	}

	activity.Status = models.ActivityStatusPending
	activity.ClearReview()
	activity.UpdatedAt = s.now().UTC()

	if err := s.replace(ctx, op, &activity); err != nil {
		return dto.ActivityResponse{}, recordFailure(span, err)
	}

	if err := s.afterMutation(ctx, op, principal, "updated", activity); err != nil {
		return dto.ActivityResponse{}, recordFailure(span, err)
	}

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) Delete(ctx context.Context, principal Principal, id uint) error {
	const op = "delete"
	ctx, span := s.startSpan(ctx, "activity.delete", principal, id)
	defer span.End()

	unlock := s.locks.Lock(id)
	defer unlock()

	activity, err := s.load(ctx, op, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return recordFailure(span, notFound(op, "activity not found or cannot be deleted"))
		}
		return recordFailure(span, err)
	}

	studentID := principal.ID
	approved := models.ActivityStatusApproved
	removed, err := s.repo.DeleteWhere(ctx, repository.ActivityFilter{
		ID:            &id,
		StudentID:     &studentID,
		ExcludeStatus: &approved,
	})
	if err != nil {
		return recordFailure(span, infrastructure(op, err))
	}

	if !removed {
		return recordFailure(span, notFound(op, "activity not found or cannot be deleted"))
	}

	// Metrics and audit carry the status the activity held when it was removed.
	return recordFailure(span, s.afterMutation(ctx, op, principal, "deleted", activity))
}

func (s *activityService) Approve(ctx context.Context, principal Principal, id uint, payload dto.ActivityApproveRequest) (dto.ActivityResponse, error) {
	const op = "approve"
	ctx, span := s.startSpan(ctx, "activity.approve", principal, id)
	defer span.End()

	if !principal.CanReview() {
		return dto.ActivityResponse{}, recordFailure(span, forbidden(op, "faculty or admin role required"))
	}

	points := 0
	if payload.Points != nil && *payload.Points > 0 {
		points = *payload.Points
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	activity, err := s.load(ctx, op, id)
	if err != nil {
		return dto.ActivityResponse{}, recordFailure(span, err)
	}

	now := s.now().UTC()
	reviewer := principal.ID
	activity.Status = models.ActivityStatusApproved
	activity.ApprovedBy = &reviewer
	activity.ApprovalDate = &now
	activity.Points = points
	activity.RejectionReason = ""
	activity.UpdatedAt = now

	if err := s.replace(ctx, op, &activity); err != nil {
		return dto.ActivityResponse{}, recordFailure(span, err)
	}

	span.SetAttributes(attribute.Int("activity.points", points))
	s.publishReview(ctx, activity)
	if err := s.afterMutation(ctx, op, principal, "approved", activity); err != nil {
		return dto.ActivityResponse{}, recordFailure(span, err)
	}

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) Reject(ctx context.Context, principal Principal, id uint, payload dto.ActivityRejectRequest) (dto.ActivityResponse, error) {
	const op = "reject"
	ctx, span := s.startSpan(ctx, "activity.reject", principal, id)
	defer span.End()

	if !principal.CanReview() {
		return dto.ActivityResponse{}, recordFailure(span, forbidden(op, "faculty or admin role required"))
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, recordFailure(span, validatorFailure(op, err))
	}

	reason := s.clean(payload.Reason)
	if reason == "" {
		return dto.ActivityResponse{}, recordFailure(span, validationFailure(op, "rejection reason is required"))
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	activity, err := s.load(ctx, op, id)
	if err != nil {
		return dto.ActivityResponse{}, recordFailure(span, err)
	}

	// Points stay as they were; aggregates ignore them once the status leaves approved.
	now := s.now().UTC()
	reviewer := principal.ID
	activity.Status = models.ActivityStatusRejected
	activity.RejectionReason = reason
	activity.ApprovedBy = &reviewer
	activity.ApprovalDate = &now
	activity.UpdatedAt = now

	if err := s.replace(ctx, op, &activity); err != nil {
		return dto.ActivityResponse{}, recordFailure(span, err)
	}

	s.publishReview(ctx, activity)
	if err := s.afterMutation(ctx, op, principal, "rejected", activity); err != nil {
		return dto.ActivityResponse{}, recordFailure(span, err)
	}

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) load(ctx context.Context, op string, id uint) (models.Activity, error) {
	activity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Activity{}, notFound(op, "activity not found")
		}
		return models.Activity{}, infrastructure(op, err)
	}
	return activity, nil
}

func (s *activityService) replace(ctx context.Context, op string, activity *models.Activity) error {
	if err := s.repo.Replace(ctx, activity.ID, activity); err != nil {
		if errors.Is(err, repository.ErrStaleActivity) {
			return invalidState(op, "activity was modified concurrently, reload and retry")
		}
		return infrastructure(op, err)
	}
	return nil
}

func (s *activityService) applyPatch(op string, activity *models.Activity, payload dto.ActivityUpdateRequest) error {
	if payload.Title != nil {
		activity.Title = s.clean(*payload.Title)
	}
	if payload.Description != nil {
		activity.Description = s.clean(*payload.Description)
	}
	if payload.Category != nil {
		activity.Category = models.ActivityCategory(strings.TrimSpace(*payload.Category))
	}
	if payload.StartDate != nil {
		start, err := parseDate(*payload.StartDate)
		if err != nil {
			return validationFailure(op, "start_date must be a date in YYYY-MM-DD format")
		}
		activity.StartDate = start
	}
	if payload.EndDate != nil {
		if strings.TrimSpace(*payload.EndDate) == "" {
			activity.EndDate = nil
		} else {
			end, err := parseDate(*payload.EndDate)
			if err != nil {
				return validationFailure(op, "end_date must be a date in YYYY-MM-DD format")
			}
			activity.EndDate = &end
		}
	}
	if payload.Venue != nil {
		activity.Venue = s.clean(*payload.Venue)
	}
	if payload.Organizer != nil {
		activity.Organizer = s.clean(*payload.Organizer)
	}
	if payload.CertificateURL != nil {
		activity.CertificateURL = strings.TrimSpace(*payload.CertificateURL)
	}
	if payload.DocumentURL != nil {
		activity.DocumentURL = strings.TrimSpace(*payload.DocumentURL)
	}
	if payload.Tags != nil {
		activity.Tags = s.cleanTags(*payload.Tags)
	}
	return nil
}

// afterMutation runs once a mutation is durable. A failed cache invalidation is
// returned so the mutation is never acknowledged while stale aggregates can
// still be served.
func (s *activityService) afterMutation(ctx context.Context, op string, principal Principal, action string, activity models.Activity) error {
	observability.ActivityTransitions().WithLabelValues(action, string(activity.Status)).Inc()

	if s.audit != nil {
		activityID := activity.ID
		metadata := map[string]interface{}{
			"student_id": activity.StudentID,
			"status":     string(activity.Status),
		}
		if action == "approved" {
			metadata["points"] = activity.Points
		}
		if action == "rejected" {
			metadata["reason"] = activity.RejectionReason
		}
		if err := s.audit.Record(ctx, AuditEntry{
			Actor:      principal,
			Action:     "activity." + action,
			EntityType: "activity",
			EntityID:   &activityID,
			Metadata:   metadata,
		}); err != nil {
			s.logger.Warn().Err(err).Uint("activity_id", activity.ID).Msg("failed to record audit entry")
		}
	}

	s.logger.Info().
		Uint("activity_id", activity.ID).
		Uint("actor_id", principal.ID).
		Str("status", string(activity.Status)).
		Msgf("activity %s", action)

	if s.cache == nil {
		return nil
	}
	if err := s.cache.InvalidateStudent(ctx, activity.StudentID); err != nil {
		s.logger.Error().Err(err).Uint("student_id", activity.StudentID).Msg("failed to invalidate aggregate cache")
		return infrastructure(op, err)
	}
	return nil
}

func (s *activityService) publishReview(ctx context.Context, activity models.Activity) {
	if s.events == nil {
		return
	}

	event := events.ActivityReviewed{
		ActivityID: activity.ID,
		StudentID:  activity.StudentID,
		Status:     string(activity.Status),
		Points:     activity.EarnedPoints(),
		Reason:     activity.RejectionReason,
		OccurredAt: s.now().UTC(),
	}
	if activity.ApprovedBy != nil {
		event.ReviewerID = *activity.ApprovedBy
	}

	if err := s.events.PublishReviewed(ctx, event); err != nil {
		s.logger.Warn().Err(err).Uint("activity_id", activity.ID).Msg("failed to publish review event")
	}
}

func (s *activityService) startSpan(ctx context.Context, name string, principal Principal, id uint) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, name)
	span.SetAttributes(
		attribute.Int64("activity.actor_id", int64(principal.ID)),
		attribute.String("activity.actor_role", normalizeRole(principal.Role)),
	)
	if id != 0 {
		span.SetAttributes(attribute.Int64("activity.id", int64(id)))
	}
	return ctx, span
}

func (s *activityService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

func (s *activityService) cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		value := s.clean(tag)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, value)
	}
	return cleaned
}

func checkActivity(op string, activity models.Activity) error {
	switch {
	case activity.Title == "":
		return validationFailure(op, "title is required")
	case activity.Description == "":
		return validationFailure(op, "description is required")
	case !activity.Category.Valid():
		return validationFailure(op, "category is not supported")
	case activity.StartDate.IsZero():
		return validationFailure(op, "start_date is required")
	case activity.EndDate != nil && activity.EndDate.Before(activity.StartDate):
		return validationFailure(op, "end_date must not be before start_date")
	}
	return nil
}

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dto.DateLayout, strings.TrimSpace(value), time.UTC)
}

func recordFailure(span trace.Span, err error) error {
	if err == nil {
		return nil
	}
	span.RecordError(err)
	switch {
	case errors.Is(err, ErrValidation):
		span.SetStatus(codes.Error, "validation_failed")
	case errors.Is(err, ErrNotFound):
		span.SetStatus(codes.Error, "not_found")
	case errors.Is(err, ErrInvalidState):
		span.SetStatus(codes.Error, "invalid_state")
	case errors.Is(err, ErrForbidden):
		span.SetStatus(codes.Error, "forbidden")
	default:
		span.SetStatus(codes.Error, "infrastructure_failure")
	}
	return err
}
