package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dashride/referral-service/internal/config"
	"github.com/dashride/referral-service/internal/domain/dto"
	domainErrors "github.com/dashride/referral-service/internal/domain/errors"
	"github.com/dashride/referral-service/internal/domain/model"
	"github.com/dashride/referral-service/internal/domain/repository"
	"github.com/dashride/referral-service/internal/pkg/identifier"
)

// VisitRateLimiter bounds link visits per session within a time window.
// Over-limit visits are still logged, flagged for abuse review.
type VisitRateLimiter interface {
	Allow(ctx context.Context, sessionID string) (bool, error)
}

// VisitUsecase processes inbound referral link clicks
type VisitUsecase struct {
	riderRepo       repository.RiderRepository
	attributionRepo repository.AttributionRepository
	visitRepo       repository.VisitRepository
	limiter         VisitRateLimiter
	policy          config.ReferralConfig
	logger          *zap.Logger
}

// NewVisitUsecase creates a new visit usecase. The limiter may be nil; visits
// are then never rate-flagged.
func NewVisitUsecase(
	riderRepo repository.RiderRepository,
	attributionRepo repository.AttributionRepository,
	visitRepo repository.VisitRepository,
	limiter VisitRateLimiter,
	policy config.ReferralConfig,
	logger *zap.Logger,
) *VisitUsecase {
	return &VisitUsecase{
		riderRepo:       riderRepo,
		attributionRepo: attributionRepo,
		visitRepo:       visitRepo,
		limiter:         limiter,
		policy:          policy,
		logger:          logger,
	}
}

// HandleVisit decides the outcome of a referral link click. For a resolvable
// code a visit event is always appended, whatever the attribution outcome.
// Anonymous visitors get a PendingAttribution back instead of a store write;
// the transport layer carries it until the visitor authenticates.
func (u *VisitUsecase) HandleVisit(ctx context.Context, input dto.VisitInput) (*dto.VisitResult, error) {
	code := strings.ToUpper(strings.TrimSpace(input.RiderCode))
	if code == "" {
		return nil, domainErrors.ErrInvalidInput
	}

	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		minted, err := identifier.NewSessionID()
		if err != nil {
			return nil, err
		}
		sessionID = minted
	}

	rider, err := u.riderRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if rider == nil || !rider.IsActive() {
		// Best-effort audit record for unresolvable codes; the outcome does
		// not depend on it.
		u.appendVisit(ctx, sessionID, code, input, true, model.JSONB{"unresolved_code": true})
		return &dto.VisitResult{
			Status:    dto.VisitStatusInvalidCode,
			SessionID: sessionID,
		}, nil
	}

	flagged := false
	if u.limiter != nil {
		allowed, err := u.limiter.Allow(ctx, sessionID)
		if err != nil {
			// A limiter outage must not break visit handling.
			u.logger.Warn("visit rate limiter unavailable",
				zap.String("session_id", sessionID),
				zap.Error(err))
		} else if !allowed {
			flagged = true
			u.logger.Warn("session over visit rate limit",
				zap.String("session_id", sessionID),
				zap.String("rider_code", code))
		}
	}

	event := &model.VisitEvent{
		SessionID:         sessionID,
		RiderCode:         code,
		IPAddress:         input.IPAddress,
		UserAgent:         input.UserAgent,
		DeviceFingerprint: input.DeviceFingerprint,
		Flagged:           flagged,
	}
	if err := u.visitRepo.Append(ctx, event); err != nil {
		return nil, domainErrors.NewStorageError("visit append", err)
	}

	if input.CustomerID == nil {
		return &dto.VisitResult{
			Status:    dto.VisitStatusCookieOnly,
			SessionID: sessionID,
			RiderID:   &rider.ID,
			Pending: &dto.PendingAttribution{
				SessionID: sessionID,
				RiderCode: code,
				ExpiresAt: time.Now().UTC().Add(u.policy.PendingTTL),
			},
		}, nil
	}

	status, reason, riderID, err := applyAttribution(ctx, u.attributionRepo, *input.CustomerID, rider, model.AssignedViaLinkClick, u.logger)
	if err != nil {
		return nil, err
	}

	return &dto.VisitResult{
		Status:    status,
		Reason:    reason,
		RiderID:   riderID,
		SessionID: sessionID,
	}, nil
}

// maxAuditCodeLen matches the rider_code column width; unresolved codes come
// straight off the URL and can be any length.
const maxAuditCodeLen = 16

func (u *VisitUsecase) appendVisit(ctx context.Context, sessionID, code string, input dto.VisitInput, flagged bool, metadata model.JSONB) {
	if len(code) > maxAuditCodeLen {
		code = code[:maxAuditCodeLen]
	}
	event := &model.VisitEvent{
		SessionID:         sessionID,
		RiderCode:         code,
		IPAddress:         input.IPAddress,
		UserAgent:         input.UserAgent,
		DeviceFingerprint: input.DeviceFingerprint,
		Flagged:           flagged,
		Metadata:          metadata,
	}
	if err := u.visitRepo.Append(ctx, event); err != nil {
		u.logger.Warn("failed to append audit visit event",
			zap.String("session_id", sessionID),
			zap.String("rider_code", code),
			zap.Error(err))
	}
}

// applyAttribution runs the authenticated attribution step shared by link
// visits and cookie confirmation: create-if-absent, never overwrite. Under a
// race exactly one caller creates the row; losers observe the winner.
func applyAttribution(
	ctx context.Context,
	attributionRepo repository.AttributionRepository,
	customerID uuid.UUID,
	rider *model.Rider,
	via model.AssignedVia,
	logger *zap.Logger,
) (dto.VisitStatus, string, *uuid.UUID, error) {
	now := time.Now().UTC()
	riderID := rider.ID

	candidate := &model.Attribution{
		CustomerID:  customerID,
		RiderID:     &riderID,
		Status:      model.AttributionStatusActive,
		AssignedVia: via,
		AssignedAt:  now,
		LastTouchAt: now,
	}

	created, current, err := attributionRepo.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return "", "", nil, err
	}

	if created {
		logger.Info("customer attributed",
			zap.String("customer_id", customerID.String()),
			zap.String("rider_id", riderID.String()),
			zap.String("assigned_via", string(via)))
		return dto.VisitStatusAssigned, "", &riderID, nil
	}

	// Any visit by an already-attributed customer keeps provenance fresh,
	// whether or not the clicked link matches the attributed rider.
	if err := attributionRepo.Touch(ctx, current.ID, now); err != nil {
		logger.Warn("failed to bump attribution last_touch_at",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
	}

	if current.IsAttributedTo(rider.ID) {
		return dto.VisitStatusAlreadyAssigned, "", current.RiderID, nil
	}

	// A link click never silently overwrites an existing attribution; changes
	// go through the change request path.
	return dto.VisitStatusBlocked, dto.ReasonAlreadyAttributed, current.RiderID, nil
}
