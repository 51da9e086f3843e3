package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dashride/referral-service/internal/domain/dto"
	domainErrors "github.com/dashride/referral-service/internal/domain/errors"
	"github.com/dashride/referral-service/internal/middleware/auth"
	"github.com/dashride/referral-service/internal/usecase"
)

type VisitHandler struct {
	usecase *usecase.VisitUsecase
	logger  *zap.Logger
}

func NewVisitHandler(usecase *usecase.VisitUsecase, logger *zap.Logger) *VisitHandler {
	return &VisitHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// HandleVisit processes a referral link click. Anonymous visitors get the
// pending code and session id persisted as cookies for later confirmation;
// authenticated visitors get the attribution outcome directly.
func (h *VisitHandler) HandleVisit(c echo.Context) error {
	var customerID *uuid.UUID
	if user := auth.OptionalUser(c); user != nil {
		customerID = &user.CustomerID
	}

	var fingerprint *string
	if fp := c.QueryParam("fingerprint"); fp != "" {
		fingerprint = &fp
	}

	input := dto.VisitInput{
		RiderCode:         c.Param("code"),
		SessionID:         cookieValue(c, CookieReferralSession),
		IPAddress:         c.RealIP(),
		UserAgent:         c.Request().UserAgent(),
		DeviceFingerprint: fingerprint,
		CustomerID:        customerID,
	}

	result, err := h.usecase.HandleVisit(c.Request().Context(), input)
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Referral code required",
			})
		}
		h.logger.Error("Failed to handle referral visit",
			zap.String("rider_code", c.Param("code")),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to process referral visit",
		})
	}

	if result.Status == dto.VisitStatusCookieOnly && result.Pending != nil {
		setReferralCookie(c, CookieReferralSession, result.Pending.SessionID, result.Pending.ExpiresAt)
		setReferralCookie(c, CookieReferralCode, result.Pending.RiderCode, result.Pending.ExpiresAt)
	}

	return c.JSON(http.StatusOK, result)
}
