package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dashride/referral-service/internal/config"
	"github.com/dashride/referral-service/internal/domain/dto"
	domainErrors "github.com/dashride/referral-service/internal/domain/errors"
	"github.com/dashride/referral-service/internal/domain/model"
	"github.com/dashride/referral-service/internal/domain/repository"
)

// ChangeRequestUsecase manages the rider change request lifecycle
type ChangeRequestUsecase struct {
	riderRepo       repository.RiderRepository
	attributionRepo repository.AttributionRepository
	changeRepo      repository.ChangeRequestRepository
	policy          config.ReferralConfig
	logger          *zap.Logger
}

// NewChangeRequestUsecase creates a new change request usecase
func NewChangeRequestUsecase(
	riderRepo repository.RiderRepository,
	attributionRepo repository.AttributionRepository,
	changeRepo repository.ChangeRequestRepository,
	policy config.ReferralConfig,
	logger *zap.Logger,
) *ChangeRequestUsecase {
	return &ChangeRequestUsecase{
		riderRepo:       riderRepo,
		attributionRepo: attributionRepo,
		changeRepo:      changeRepo,
		policy:          policy,
		logger:          logger,
	}
}

// Create files a customer's request to switch rider. Preconditions are
// checked in order; the first failure wins:
// invalid code, no current referral, same rider, cooldown, one-shot allowance.
func (u *ChangeRequestUsecase) Create(ctx context.Context, input dto.CreateChangeRequestInput) (*dto.ChangeRequestResult, error) {
	code := strings.ToUpper(strings.TrimSpace(input.ToRiderCode))
	if code == "" {
		return &dto.ChangeRequestResult{Status: dto.ChangeOutcomeInvalidCode}, nil
	}

	rider, err := u.riderRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if rider == nil || !rider.IsActive() {
		return &dto.ChangeRequestResult{Status: dto.ChangeOutcomeInvalidCode}, nil
	}

	attribution, err := u.attributionRepo.GetActiveByCustomer(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if attribution == nil || attribution.RiderID == nil {
		return &dto.ChangeRequestResult{Status: dto.ChangeOutcomeNoCurrentReferral}, nil
	}

	if attribution.IsAttributedTo(rider.ID) {
		return &dto.ChangeRequestResult{Status: dto.ChangeOutcomeSameRider}, nil
	}

	now := time.Now().UTC()
	cooldownUntil, err := u.cooldownUntil(ctx, input.CustomerID, attribution)
	if err != nil {
		return nil, err
	}
	if now.Before(cooldownUntil) {
		return &dto.ChangeRequestResult{
			Status:        dto.ChangeOutcomeCooldown,
			CooldownUntil: &cooldownUntil,
		}, nil
	}

	used, err := u.changeRepo.CountByCustomer(ctx, input.CustomerID, u.policy.DeniedConsumesAllowance)
	if err != nil {
		return nil, err
	}
	if used > 0 {
		return &dto.ChangeRequestResult{
			Status: dto.ChangeOutcomeBlocked,
			Reason: dto.ReasonAlreadyRequested,
		}, nil
	}

	request := &model.ChangeRequest{
		ID:          uuid.New(),
		CustomerID:  input.CustomerID,
		FromRiderID: attribution.RiderID,
		ToRiderID:   rider.ID,
		Reason:      input.Reason,
		Status:      model.ChangeRequestStatusPending,
	}
	created, err := u.changeRepo.Create(ctx, request)
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost a race against a concurrent request by the same customer;
		// the allowance stays spent by the row that won.
		return &dto.ChangeRequestResult{
			Status: dto.ChangeOutcomeBlocked,
			Reason: dto.ReasonAlreadyRequested,
		}, nil
	}

	u.logger.Info("change request filed",
		zap.String("request_id", request.ID.String()),
		zap.String("customer_id", input.CustomerID.String()),
		zap.String("to_rider_id", rider.ID.String()))

	return &dto.ChangeRequestResult{
		Status:    dto.ChangeOutcomePending,
		RequestID: &request.ID,
	}, nil
}

// cooldownUntil derives the active cooldown boundary: the later of the last
// attribution assignment and the last denial, plus the configured window.
// Derived from fixed timestamps, so repeated failed attempts never extend it.
func (u *ChangeRequestUsecase) cooldownUntil(ctx context.Context, customerID uuid.UUID, attribution *model.Attribution) (time.Time, error) {
	until := attribution.AssignedAt.Add(u.policy.Cooldown())

	denied, err := u.changeRepo.LatestDenied(ctx, customerID)
	if err != nil {
		return time.Time{}, err
	}
	if denied != nil {
		deniedUntil := denied.UpdatedAt.Add(u.policy.Cooldown())
		if denied.CooldownUntil != nil {
			deniedUntil = *denied.CooldownUntil
		}
		if deniedUntil.After(until) {
			until = deniedUntil
		}
	}

	return until, nil
}

// Adjudicate applies an admin decision to a pending request. Non-pending
// requests are a silent no-op so double-submission stays harmless. Approval
// and the attribution rewrite commit in one store transaction.
func (u *ChangeRequestUsecase) Adjudicate(ctx context.Context, input dto.AdjudicateInput) error {
	if strings.TrimSpace(input.AdminID) == "" {
		return domainErrors.ErrUnauthorized
	}

	now := time.Now().UTC()

	var applied bool
	var err error
	switch input.Action {
	case dto.ActionApprove:
		applied, err = u.changeRepo.Approve(ctx, input.RequestID, input.AdminID, input.AdminReason, now)
	case dto.ActionDeny:
		applied, err = u.changeRepo.Deny(ctx, input.RequestID, input.AdminID, input.AdminReason, now, now.Add(u.policy.Cooldown()))
	default:
		return domainErrors.ErrInvalidInput
	}

	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return domainErrors.ErrNotFound
		}
		return err
	}

	if !applied {
		u.logger.Info("adjudication skipped, request not pending",
			zap.String("request_id", input.RequestID.String()),
			zap.String("action", string(input.Action)))
	}

	return nil
}

// GetLatestForCustomer returns the customer's most recent request, or nil.
func (u *ChangeRequestUsecase) GetLatestForCustomer(ctx context.Context, customerID uuid.UUID) (*dto.ChangeRequestView, error) {
	request, err := u.changeRepo.GetLatestByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, nil
	}
	view := toChangeRequestView(request)
	return &view, nil
}

// List returns change requests for admin review.
func (u *ChangeRequestUsecase) List(ctx context.Context, filters dto.ListFilters) (*dto.ChangeRequestListResponse, error) {
	filters.SetDefaults()

	requests, total, err := u.changeRepo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	views := make([]dto.ChangeRequestView, len(requests))
	for i := range requests {
		views[i] = toChangeRequestView(&requests[i])
	}

	return &dto.ChangeRequestListResponse{
		Requests: views,
		Pagination: dto.PaginationInfo{
			Total:   total,
			Limit:   filters.Limit,
			Offset:  filters.Offset,
			HasMore: int64(filters.Offset+filters.Limit) < total,
		},
	}, nil
}

func toChangeRequestView(request *model.ChangeRequest) dto.ChangeRequestView {
	return dto.ChangeRequestView{
		ID:            request.ID,
		CustomerID:    request.CustomerID,
		FromRiderID:   request.FromRiderID,
		ToRiderID:     request.ToRiderID,
		Reason:        request.Reason,
		Status:        string(request.Status),
		CooldownUntil: request.CooldownUntil,
		AdminReason:   request.AdminReason,
		ApprovedBy:    request.ApprovedBy,
		ApprovedAt:    request.ApprovedAt,
		CreatedAt:     request.CreatedAt,
	}
}
