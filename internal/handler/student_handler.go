package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/smart-student-hub/internal/dto"
	"github.com/noah-isme/smart-student-hub/internal/service"
	"github.com/noah-isme/smart-student-hub/internal/utils"
)

// StudentHandler serves profile, dashboard and portfolio views.
type StudentHandler struct {
	service service.StudentService
	logger  zerolog.Logger
}

// NewStudentHandler constructs a student handler.
func NewStudentHandler(service service.StudentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register wires student routes. selfOnly guards the routes that act on the caller's own record.
func (h *StudentHandler) Register(router fiber.Router, selfOnly fiber.Handler) {
	if selfOnly == nil {
		selfOnly = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Get("/profile", selfOnly, h.profile)
	router.Put("/profile", selfOnly, h.updateProfile)
	router.Get("/dashboard", selfOnly, h.dashboard)
	router.Get("/portfolio/:studentId?", h.portfolio)
}

func (h *StudentHandler) profile(c *fiber.Ctx) error {
	profile, err := h.service.Profile(requestContext(c), principalFromContext(c))
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to load profile")
	}

	return utils.SendSuccess(c, "profile", profile)
}

func (h *StudentHandler) updateProfile(c *fiber.Ctx) error {
	var payload dto.ProfileUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	profile, err := h.service.UpdateProfile(requestContext(c), principalFromContext(c), payload)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to update profile")
	}

	return utils.SendSuccess(c, "profile updated", profile)
}

func (h *StudentHandler) dashboard(c *fiber.Ctx) error {
	dashboard, err := h.service.Dashboard(requestContext(c), principalFromContext(c))
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to load dashboard")
	}

	return utils.SendSuccess(c, "dashboard", dashboard)
}

func (h *StudentHandler) portfolio(c *fiber.Ctx) error {
	studentID, err := parseOptionalUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	portfolio, err := h.service.Portfolio(requestContext(c), principalFromContext(c), studentID)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to load portfolio")
	}

	return utils.SendSuccess(c, "portfolio", portfolio)
}
