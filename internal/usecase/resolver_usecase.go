package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dashride/referral-service/internal/domain/dto"
	"github.com/dashride/referral-service/internal/domain/repository"
)

// ResolverUsecase answers "which rider gets credit for this order". It is a
// pure read path consulted at order creation; attribution changes after an
// order exists are never retroactive.
type ResolverUsecase struct {
	riderRepo       repository.RiderRepository
	attributionRepo repository.AttributionRepository
	logger          *zap.Logger
}

// NewResolverUsecase creates a new resolver usecase
func NewResolverUsecase(
	riderRepo repository.RiderRepository,
	attributionRepo repository.AttributionRepository,
	logger *zap.Logger,
) *ResolverUsecase {
	return &ResolverUsecase{
		riderRepo:       riderRepo,
		attributionRepo: attributionRepo,
		logger:          logger,
	}
}

// ResolveRiderForOrder returns the rider currently attributed to the
// customer, or nil when unattributed. Attribution is not historically
// versioned; the order timestamp is recorded for the audit log only.
func (u *ResolverUsecase) ResolveRiderForOrder(ctx context.Context, customerID uuid.UUID, orderAt time.Time) (*uuid.UUID, error) {
	attribution, err := u.attributionRepo.GetActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if attribution == nil || attribution.RiderID == nil {
		return nil, nil
	}

	u.logger.Debug("resolved rider for order",
		zap.String("customer_id", customerID.String()),
		zap.String("rider_id", attribution.RiderID.String()),
		zap.Time("order_at", orderAt))

	return attribution.RiderID, nil
}

// GetAttributionView returns the customer-facing projection of the current
// attribution, enriched with the rider's code and name.
func (u *ResolverUsecase) GetAttributionView(ctx context.Context, customerID uuid.UUID) (*dto.AttributionView, error) {
	attribution, err := u.attributionRepo.GetActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if attribution == nil {
		return &dto.AttributionView{CustomerID: customerID}, nil
	}

	view := &dto.AttributionView{
		CustomerID:  customerID,
		RiderID:     attribution.RiderID,
		AssignedVia: string(attribution.AssignedVia),
		AssignedAt:  &attribution.AssignedAt,
	}

	if attribution.RiderID != nil {
		rider, err := u.riderRepo.GetByID(ctx, *attribution.RiderID)
		if err != nil {
			return nil, err
		}
		if rider != nil {
			view.RiderCode = rider.Code
			view.RiderName = rider.Name
		}
	}

	return view, nil
}
