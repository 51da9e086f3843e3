package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dashride/referral-service/internal/domain/dto"
	"github.com/dashride/referral-service/internal/middleware/auth"
	"github.com/dashride/referral-service/internal/usecase"
)

type ReferralHandler struct {
	confirmation *usecase.ConfirmationUsecase
	resolver     *usecase.ResolverUsecase
	logger       *zap.Logger
}

func NewReferralHandler(confirmation *usecase.ConfirmationUsecase, resolver *usecase.ResolverUsecase, logger *zap.Logger) *ReferralHandler {
	return &ReferralHandler{
		confirmation: confirmation,
		resolver:     resolver,
		logger:       logger,
	}
}

// ConfirmPending consumes the referral cookies after signup/login. The code
// cookie is cleared whenever a code was presented, whatever the outcome.
func (h *ReferralHandler) ConfirmPending(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	input := dto.ConfirmInput{
		CustomerID: user.CustomerID,
		RiderCode:  cookieValue(c, CookieReferralCode),
		SessionID:  cookieValue(c, CookieReferralSession),
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
	}

	result, err := h.confirmation.ConfirmPending(c.Request().Context(), input)
	if err != nil {
		h.logger.Error("Failed to confirm pending referral",
			zap.String("customer_id", user.CustomerID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to confirm pending referral",
		})
	}

	if result.ClearCookie {
		clearReferralCookie(c, CookieReferralCode)
		clearReferralCookie(c, CookieReferralSession)
	}

	return c.JSON(http.StatusOK, result)
}

// GetAttribution returns the caller's current attribution.
func (h *ReferralHandler) GetAttribution(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	view, err := h.resolver.GetAttributionView(c.Request().Context(), user.CustomerID)
	if err != nil {
		h.logger.Error("Failed to get attribution",
			zap.String("customer_id", user.CustomerID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to get attribution",
		})
	}

	return c.JSON(http.StatusOK, view)
}

// ResolveRiderForOrder is the internal read path the order service calls at
// order creation to stamp which rider is credited.
func (h *ReferralHandler) ResolveRiderForOrder(c echo.Context) error {
	if caller, err := auth.RequireService(c); caller == nil {
		return err
	}

	customerID, err := uuid.Parse(c.QueryParam("customer_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "customer_id must be a valid UUID",
		})
	}

	orderAt := time.Now().UTC()
	if raw := c.QueryParam("order_at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "order_at must be RFC3339",
			})
		}
		orderAt = parsed
	}

	riderID, err := h.resolver.ResolveRiderForOrder(c.Request().Context(), customerID, orderAt)
	if err != nil {
		h.logger.Error("Failed to resolve rider for order",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to resolve rider",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"customer_id": customerID,
		"rider_id":    riderID,
	})
}
