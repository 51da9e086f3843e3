package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dashride/referral-service/internal/domain/dto"
	"github.com/dashride/referral-service/internal/middleware/auth"
	"github.com/dashride/referral-service/internal/usecase"
)

type ChangeRequestHandler struct {
	usecase *usecase.ChangeRequestUsecase
	logger  *zap.Logger
}

func NewChangeRequestHandler(usecase *usecase.ChangeRequestUsecase, logger *zap.Logger) *ChangeRequestHandler {
	return &ChangeRequestHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// CreateChangeRequestRequest is the request body for filing a change request
type CreateChangeRequestRequest struct {
	ToRiderCode string  `json:"to_rider_code" validate:"required"`
	Reason      *string `json:"reason,omitempty"`
}

// Create files a rider change request for the authenticated customer.
func (h *ChangeRequestHandler) Create(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	var req CreateChangeRequestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	input := dto.CreateChangeRequestInput{
		CustomerID:  user.CustomerID,
		ToRiderCode: req.ToRiderCode,
		Reason:      req.Reason,
		IPAddress:   c.RealIP(),
		UserAgent:   c.Request().UserAgent(),
	}

	result, err := h.usecase.Create(c.Request().Context(), input)
	if err != nil {
		h.logger.Error("Failed to create change request",
			zap.String("customer_id", user.CustomerID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create change request",
		})
	}

	status := http.StatusOK
	if result.Status == dto.ChangeOutcomePending {
		status = http.StatusCreated
	}

	return c.JSON(status, result)
}

// GetLatest returns the caller's most recent change request.
func (h *ChangeRequestHandler) GetLatest(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	view, err := h.usecase.GetLatestForCustomer(c.Request().Context(), user.CustomerID)
	if err != nil {
		h.logger.Error("Failed to get latest change request",
			zap.String("customer_id", user.CustomerID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to get change request",
		})
	}
	if view == nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "No change request found",
		})
	}

	return c.JSON(http.StatusOK, view)
}
