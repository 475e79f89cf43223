package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/smart-student-hub/internal/dto"
	"github.com/noah-isme/smart-student-hub/internal/service"
	"github.com/noah-isme/smart-student-hub/internal/utils"
)

// ActivityHandler exposes the student side of the activity lifecycle.
type ActivityHandler struct {
	activities service.ActivityService
	students   service.StudentService
	logger     zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(activities service.ActivityService, students service.StudentService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activities: activities,
		students:   students,
		logger:     logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches activity routes to the router group. Mutations can be
// wrapped, typically with a rate limiter.
func (h *ActivityHandler) Register(router fiber.Router, mutationGuards ...fiber.Handler) {
	router.Get("/my-activities", h.listMine)
	router.Get("/stats/:studentId?", h.stats)
	router.Get("/:id", h.get)

	router.Post("/", withGuards(mutationGuards, h.create)...)
	router.Put("/:id", withGuards(mutationGuards, h.update)...)
	router.Delete("/:id", withGuards(mutationGuards, h.delete)...)
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	var payload dto.ActivityCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	activity, err := h.activities.Create(requestContext(c), principalFromContext(c), payload)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to create activity")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity created", activity)
}

func (h *ActivityHandler) listMine(c *fiber.Ctx) error {
	activities, err := h.activities.ListMine(requestContext(c), principalFromContext(c))
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to list activities")
	}

	return utils.SendSuccess(c, "activities", activities)
}

func (h *ActivityHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	activity, err := h.activities.Get(requestContext(c), principalFromContext(c), id)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to load activity")
	}

	return utils.SendSuccess(c, "activity", activity)
}

func (h *ActivityHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ActivityUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	activity, err := h.activities.Update(requestContext(c), principalFromContext(c), id, payload)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to update activity")
	}

	return utils.SendSuccess(c, "activity updated", activity)
}

func (h *ActivityHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.activities.Delete(requestContext(c), principalFromContext(c), id); err != nil {
		return writeServiceError(c, h.logger, err, "failed to delete activity")
	}

	return utils.SendSuccess(c, "activity deleted", nil)
}

func (h *ActivityHandler) stats(c *fiber.Ctx) error {
	studentID, err := parseOptionalUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	stats, err := h.students.Stats(requestContext(c), principalFromContext(c), studentID)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to compute statistics")
	}

	return utils.SendSuccess(c, "activity statistics", stats)
}
