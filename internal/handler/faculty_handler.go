package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/smart-student-hub/internal/dto"
	"github.com/noah-isme/smart-student-hub/internal/service"
	"github.com/noah-isme/smart-student-hub/internal/utils"
)

// FacultyHandler exposes the review queue, review actions and reporting.
type FacultyHandler struct {
	activities service.ActivityService
	faculty    service.FacultyService
	logger     zerolog.Logger
}

// NewFacultyHandler constructs the handler.
func NewFacultyHandler(activities service.ActivityService, faculty service.FacultyService, logger zerolog.Logger) *FacultyHandler {
	return &FacultyHandler{
		activities: activities,
		faculty:    faculty,
		logger:     logger.With().Str("component", "faculty_handler").Logger(),
	}
}

// Register attaches faculty routes to the router group.
func (h *FacultyHandler) Register(router fiber.Router) {
	router.Get("/pending-activities", h.pending)
	router.Get("/all-activities", h.list)
	router.Put("/approve/:id", h.approve)
	router.Put("/reject/:id", h.reject)
	router.Get("/students", h.students)
	router.Get("/analytics", h.analytics)
	router.Get("/activities/:id/history", h.history)
}

func (h *FacultyHandler) pending(c *fiber.Ctx) error {
	activities, err := h.faculty.Pending(requestContext(c), principalFromContext(c))
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to list pending activities")
	}

	return utils.SendSuccess(c, "pending activities", activities)
}

func (h *FacultyHandler) list(c *fiber.Ctx) error {
	var filter dto.ActivityListFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid filters")
	}

	activities, err := h.faculty.List(requestContext(c), principalFromContext(c), filter)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to list activities")
	}

	return utils.SendSuccess(c, "activities", activities)
}

func (h *FacultyHandler) approve(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ActivityApproveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	activity, err := h.activities.Approve(requestContext(c), principalFromContext(c), id, payload)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to approve activity")
	}

	return utils.SendSuccess(c, "activity approved", activity)
}

func (h *FacultyHandler) reject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ActivityRejectRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	activity, err := h.activities.Reject(requestContext(c), principalFromContext(c), id, payload)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to reject activity")
	}

	return utils.SendSuccess(c, "activity rejected", activity)
}

func (h *FacultyHandler) students(c *fiber.Ctx) error {
	students, err := h.faculty.Students(requestContext(c), principalFromContext(c))
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to list students")
	}

	return utils.SendSuccess(c, "students", students)
}

func (h *FacultyHandler) analytics(c *fiber.Ctx) error {
	report, err := h.faculty.Analytics(requestContext(c), principalFromContext(c))
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to compute analytics")
	}

	if report.CacheHit {
		c.Set("X-Cache", "HIT")
	} else {
		c.Set("X-Cache", "MISS")
	}

	return utils.SendSuccess(c, "analytics", report)
}

func (h *FacultyHandler) history(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	entries, err := h.faculty.History(requestContext(c), principalFromContext(c), id)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to load activity history")
	}

	return utils.SendSuccess(c, "activity history", entries)
}
