package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/dashride/referral-service/internal/domain/dto"
	"github.com/dashride/referral-service/internal/domain/model"
	"github.com/dashride/referral-service/internal/domain/repository"
)

// ConfirmationUsecase finalizes a cookie-held pending attribution once the
// visitor authenticates
type ConfirmationUsecase struct {
	riderRepo       repository.RiderRepository
	attributionRepo repository.AttributionRepository
	logger          *zap.Logger
}

// NewConfirmationUsecase creates a new confirmation usecase
func NewConfirmationUsecase(
	riderRepo repository.RiderRepository,
	attributionRepo repository.AttributionRepository,
	logger *zap.Logger,
) *ConfirmationUsecase {
	return &ConfirmationUsecase{
		riderRepo:       riderRepo,
		attributionRepo: attributionRepo,
		logger:          logger,
	}
}

// ConfirmPending consumes the pending cookie code for a freshly authenticated
// customer. Whatever the outcome, a presented code is spent: ClearCookie is
// true so it can never be replayed. With no code the call is a pure no-op,
// which makes repeated invocation after the cookie is cleared harmless.
func (u *ConfirmationUsecase) ConfirmPending(ctx context.Context, input dto.ConfirmInput) (*dto.ConfirmResult, error) {
	code := strings.ToUpper(strings.TrimSpace(input.RiderCode))
	if code == "" {
		return &dto.ConfirmResult{
			Status:      dto.VisitStatusNoOp,
			ClearCookie: false,
		}, nil
	}

	rider, err := u.riderRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if rider == nil || !rider.IsActive() {
		u.logger.Info("pending referral code no longer resolves",
			zap.String("customer_id", input.CustomerID.String()),
			zap.String("rider_code", code))
		return &dto.ConfirmResult{
			Status:      dto.VisitStatusInvalidCode,
			ClearCookie: true,
		}, nil
	}

	status, reason, riderID, err := applyAttribution(ctx, u.attributionRepo, input.CustomerID, rider, model.AssignedViaLinkClick, u.logger)
	if err != nil {
		return nil, err
	}

	return &dto.ConfirmResult{
		Status:      status,
		Reason:      reason,
		RiderID:     riderID,
		ClearCookie: true,
	}, nil
}
