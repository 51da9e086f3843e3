package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/dashride/referral-service/internal/domain/errors"
	"github.com/dashride/referral-service/internal/domain/model"
	"github.com/dashride/referral-service/internal/domain/repository"
	"github.com/dashride/referral-service/internal/middleware/auth"
	"github.com/dashride/referral-service/internal/pkg/identifier"
)

type RiderHandler struct {
	riderRepo repository.RiderRepository
	logger    *zap.Logger
}

func NewRiderHandler(riderRepo repository.RiderRepository, logger *zap.Logger) *RiderHandler {
	return &RiderHandler{
		riderRepo: riderRepo,
		logger:    logger,
	}
}

// GetByCode is the public landing-page lookup of the referring rider.
func (h *RiderHandler) GetByCode(c echo.Context) error {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))

	rider, err := h.riderRepo.GetByCode(c.Request().Context(), code)
	if err != nil {
		h.logger.Error("Failed to get rider",
			zap.String("code", code),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to get rider",
		})
	}
	if rider == nil || !rider.IsActive() {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Rider not found",
		})
	}

	// Public projection only; internal fields stay internal.
	return c.JSON(http.StatusOK, echo.Map{
		"code": rider.Code,
		"name": rider.Name,
	})
}

// CreateRiderRequest is the request body for rider onboarding
type CreateRiderRequest struct {
	Name string `json:"name" validate:"required"`
}

// Create onboards a rider and mints their referral code.
func (h *RiderHandler) Create(c echo.Context) error {
	if admin, err := auth.RequireAdmin(c); admin == nil {
		return err
	}

	var req CreateRiderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	code, err := identifier.NewRiderCode()
	if err != nil {
		h.logger.Error("Failed to mint rider code", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create rider",
		})
	}

	rider := &model.Rider{
		ID:     uuid.New(),
		Code:   code,
		Name:   req.Name,
		Status: model.RiderStatusActive,
	}

	if err := h.riderRepo.Create(c.Request().Context(), rider); err != nil {
		if errors.Is(err, domainErrors.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Rider code already taken",
			})
		}
		h.logger.Error("Failed to create rider",
			zap.String("code", code),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create rider",
		})
	}

	return c.JSON(http.StatusCreated, rider)
}
