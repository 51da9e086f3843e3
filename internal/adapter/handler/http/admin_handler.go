package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dashride/referral-service/internal/domain/dto"
	domainErrors "github.com/dashride/referral-service/internal/domain/errors"
	"github.com/dashride/referral-service/internal/domain/repository"
	"github.com/dashride/referral-service/internal/middleware/auth"
	"github.com/dashride/referral-service/internal/usecase"
)

type AdminHandler struct {
	changeUsecase *usecase.ChangeRequestUsecase
	visitRepo     repository.VisitRepository
	logger        *zap.Logger
}

func NewAdminHandler(changeUsecase *usecase.ChangeRequestUsecase, visitRepo repository.VisitRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		changeUsecase: changeUsecase,
		visitRepo:     visitRepo,
		logger:        logger,
	}
}

// ListChangeRequests returns change requests for admin review.
func (h *AdminHandler) ListChangeRequests(c echo.Context) error {
	if admin, err := auth.RequireAdmin(c); admin == nil {
		return err
	}

	filters := dto.ListFilters{
		Status: c.QueryParam("status"),
		Limit:  parseIntParam(c.QueryParam("limit")),
		Offset: parseIntParam(c.QueryParam("offset")),
	}

	response, err := h.changeUsecase.List(c.Request().Context(), filters)
	if err != nil {
		h.logger.Error("Failed to list change requests", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to list change requests",
		})
	}

	return c.JSON(http.StatusOK, response)
}

// AdjudicateRequest is the request body for an admin decision
type AdjudicateRequest struct {
	Action      string  `json:"action" validate:"required,oneof=approve deny"`
	AdminReason *string `json:"admin_reason,omitempty"`
}

// Adjudicate applies an admin decision to a pending change request.
func (h *AdminHandler) Adjudicate(c echo.Context) error {
	admin, err := auth.RequireAdmin(c)
	if admin == nil {
		return err
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Request id must be a valid UUID",
		})
	}

	var req AdjudicateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	input := dto.AdjudicateInput{
		RequestID:   requestID,
		Action:      dto.AdjudicationAction(req.Action),
		AdminID:     admin.CustomerID.String(),
		AdminReason: req.AdminReason,
	}

	if err := h.changeUsecase.Adjudicate(c.Request().Context(), input); err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Change request not found",
			})
		case errors.Is(err, domainErrors.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Invalid adjudication action",
			})
		case errors.Is(err, domainErrors.ErrUnauthorized):
			return c.JSON(http.StatusForbidden, echo.Map{
				"error": "Admin role required",
			})
		default:
			h.logger.Error("Failed to adjudicate change request",
				zap.String("request_id", requestID.String()),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to adjudicate change request",
			})
		}
	}

	return c.NoContent(http.StatusNoContent)
}

// ListVisits returns the visit log for one session, for abuse review.
func (h *AdminHandler) ListVisits(c echo.Context) error {
	if admin, err := auth.RequireAdmin(c); admin == nil {
		return err
	}

	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "session_id query parameter required",
		})
	}

	filters := dto.ListFilters{
		Limit:  parseIntParam(c.QueryParam("limit")),
		Offset: parseIntParam(c.QueryParam("offset")),
	}
	filters.SetDefaults()

	events, total, err := h.visitRepo.ListBySession(c.Request().Context(), sessionID, filters)
	if err != nil {
		h.logger.Error("Failed to list visit events",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to list visit events",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"visits": events,
		"pagination": dto.PaginationInfo{
			Total:   total,
			Limit:   filters.Limit,
			Offset:  filters.Offset,
			HasMore: int64(filters.Offset+filters.Limit) < total,
		},
	})
}

func parseIntParam(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
