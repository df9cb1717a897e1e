package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillforge-go-api/internal/dto"
	"github.com/noah-isme/skillforge-go-api/internal/middleware"
	"github.com/noah-isme/skillforge-go-api/internal/service"
	"github.com/noah-isme/skillforge-go-api/internal/utils"
)

// ExamHandler manages exam and submission endpoints.
type ExamHandler struct {
	exams   service.ExamService
	grading service.GradingService
	results service.ResultService
	logger  zerolog.Logger
}

// NewExamHandler builds an exam handler instance.
func NewExamHandler(exams service.ExamService, grading service.GradingService, results service.ResultService, logger zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		exams:   exams,
		grading: grading,
		results: results,
		logger:  logger.With().Str("component", "exam_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ExamHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Post("/:id/submit", h.submit)
	router.Get("/:id/results", h.listResults)
}

func (h *ExamHandler) list(c *fiber.Ctx) error {
	courseID := strings.TrimSpace(c.Query("course_id"))
	if courseID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "course_id is required")
	}

	exams, err := h.exams.ListByCourse(c.Context(), courseID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exams retrieved", exams)
}

func (h *ExamHandler) create(c *fiber.Ctx) error {
	var payload dto.ExamCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	exam, err := h.exams.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exam created", exam)
}

func (h *ExamHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	role, _ := c.Locals("user_role").(string)
	includeAnswers := role == "instructor" || role == "admin"

	exam, err := h.exams.Get(c.Context(), id, includeAnswers)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam retrieved", exam)
}

func (h *ExamHandler) submit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.ExamSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.grading.Grade(c.Context(), id, userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	h.results.InvalidateUser(c.Context(), userID)

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exam submitted", result)
}

func (h *ExamHandler) listResults(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	results, err := h.results.ListByExam(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam results retrieved", results)
}

func (h *ExamHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.Is(err, service.ErrExamNotAvailable):
		return utils.SendError(c, fiber.StatusConflict, "exam not available")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
