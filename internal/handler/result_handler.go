package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillforge-go-api/internal/middleware"
	"github.com/noah-isme/skillforge-go-api/internal/service"
	"github.com/noah-isme/skillforge-go-api/internal/utils"
)

// ResultHandler serves exam results and their evaluations.
type ResultHandler struct {
	results service.ResultService
	logger  zerolog.Logger
}

// NewResultHandler builds a result handler instance.
func NewResultHandler(results service.ResultService, logger zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		results: results,
		logger:  logger.With().Str("component", "result_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ResultHandler) Register(router fiber.Router) {
	router.Get("/me", h.listMine)
	router.Get("/:id", h.get)
}

func (h *ResultHandler) listMine(c *fiber.Ctx) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	results, err := h.results.ListByUser(c.Context(), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "results retrieved", results)
}

func (h *ResultHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.results.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "result retrieved", result)
}

func (h *ResultHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrResultNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "result not found")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
