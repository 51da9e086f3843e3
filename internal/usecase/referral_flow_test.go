package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/dashride/referral-service/internal/config"
	"github.com/dashride/referral-service/internal/domain/dto"
	domainErrors "github.com/dashride/referral-service/internal/domain/errors"
	"github.com/dashride/referral-service/internal/domain/model"
	"github.com/dashride/referral-service/internal/usecase"
)

// Stateful in-memory fakes carrying the store's concurrency contract, so the
// full lifecycle can be exercised without a database.

type fakeRiderRepo struct {
	mu     sync.Mutex
	byCode map[string]*model.Rider
}

func newFakeRiderRepo(riders ...*model.Rider) *fakeRiderRepo {
	r := &fakeRiderRepo{byCode: make(map[string]*model.Rider)}
	for _, rider := range riders {
		r.byCode[rider.Code] = rider
	}
	return r
}

func (r *fakeRiderRepo) GetByCode(ctx context.Context, code string) (*model.Rider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byCode[code], nil
}

func (r *fakeRiderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Rider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rider := range r.byCode {
		if rider.ID == id {
			return rider, nil
		}
	}
	return nil, nil
}

func (r *fakeRiderRepo) Create(ctx context.Context, rider *model.Rider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCode[rider.Code] = rider
	return nil
}

type fakeAttributionRepo struct {
	mu         sync.Mutex
	nextID     int64
	byCustomer map[uuid.UUID]*model.Attribution
}

func newFakeAttributionRepo() *fakeAttributionRepo {
	return &fakeAttributionRepo{nextID: 1, byCustomer: make(map[uuid.UUID]*model.Attribution)}
}

func (r *fakeAttributionRepo) GetActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*model.Attribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byCustomer[customerID], nil
}

func (r *fakeAttributionRepo) CreateIfAbsent(ctx context.Context, attribution *model.Attribution) (bool, *model.Attribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.byCustomer[attribution.CustomerID]; ok {
		return false, current, nil
	}
	attribution.ID = r.nextID
	r.nextID++
	r.byCustomer[attribution.CustomerID] = attribution
	return true, attribution, nil
}

func (r *fakeAttributionRepo) Touch(ctx context.Context, attributionID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byCustomer {
		if a.ID == attributionID {
			a.LastTouchAt = at
		}
	}
	return nil
}

type fakeVisitRepo struct {
	mu     sync.Mutex
	events []*model.VisitEvent
}

func (r *fakeVisitRepo) Append(ctx context.Context, event *model.VisitEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *fakeVisitRepo) ListBySession(ctx context.Context, sessionID string, filters dto.ListFilters) ([]model.VisitEvent, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.VisitEvent
	for _, e := range r.events {
		if e.SessionID == sessionID {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

type fakeChangeRepo struct {
	mu           sync.Mutex
	requests     map[uuid.UUID]*model.ChangeRequest
	attributions *fakeAttributionRepo
}

func newFakeChangeRepo(attributions *fakeAttributionRepo) *fakeChangeRepo {
	return &fakeChangeRepo{requests: make(map[uuid.UUID]*model.ChangeRequest), attributions: attributions}
}

func (r *fakeChangeRepo) Create(ctx context.Context, request *model.ChangeRequest) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Conditional insert contract: at most one non-denied request per
	// customer, first writer wins.
	for _, existing := range r.requests {
		if existing.CustomerID == request.CustomerID && existing.Status != model.ChangeRequestStatusDenied {
			return false, nil
		}
	}
	request.CreatedAt = time.Now().UTC()
	request.UpdatedAt = request.CreatedAt
	r.requests[request.ID] = request
	return true, nil
}

func (r *fakeChangeRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[id], nil
}

func (r *fakeChangeRepo) GetLatestByCustomer(ctx context.Context, customerID uuid.UUID) (*model.ChangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.ChangeRequest
	for _, req := range r.requests {
		if req.CustomerID != customerID {
			continue
		}
		if latest == nil || req.CreatedAt.After(latest.CreatedAt) {
			latest = req
		}
	}
	return latest, nil
}

func (r *fakeChangeRepo) CountByCustomer(ctx context.Context, customerID uuid.UUID, includeDenied bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, req := range r.requests {
		if req.CustomerID != customerID {
			continue
		}
		if req.Status == model.ChangeRequestStatusDenied && !includeDenied {
			continue
		}
		count++
	}
	return count, nil
}

func (r *fakeChangeRepo) LatestDenied(ctx context.Context, customerID uuid.UUID) (*model.ChangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.ChangeRequest
	for _, req := range r.requests {
		if req.CustomerID != customerID || req.Status != model.ChangeRequestStatusDenied {
			continue
		}
		if latest == nil || req.UpdatedAt.After(latest.UpdatedAt) {
			latest = req
		}
	}
	return latest, nil
}

func (r *fakeChangeRepo) List(ctx context.Context, filters dto.ListFilters) ([]model.ChangeRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ChangeRequest
	for _, req := range r.requests {
		if filters.Status != "" && string(req.Status) != filters.Status {
			continue
		}
		out = append(out, *req)
	}
	return out, int64(len(out)), nil
}

func (r *fakeChangeRepo) Approve(ctx context.Context, requestID uuid.UUID, adminID string, adminReason *string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[requestID]
	if !ok {
		return false, domainErrors.ErrNotFound
	}
	if req.Status != model.ChangeRequestStatusPending {
		return false, nil
	}
	req.Status = model.ChangeRequestStatusApproved
	req.ApprovedBy = &adminID
	req.ApprovedAt = &at
	req.AdminReason = adminReason
	req.UpdatedAt = at

	r.attributions.mu.Lock()
	defer r.attributions.mu.Unlock()
	toRiderID := req.ToRiderID
	r.attributions.byCustomer[req.CustomerID] = &model.Attribution{
		ID:          r.attributions.nextID,
		CustomerID:  req.CustomerID,
		RiderID:     &toRiderID,
		Status:      model.AttributionStatusActive,
		AssignedVia: model.AssignedViaAdmin,
		AssignedAt:  at,
		LastTouchAt: at,
	}
	r.attributions.nextID++
	return true, nil
}

func (r *fakeChangeRepo) Deny(ctx context.Context, requestID uuid.UUID, adminID string, adminReason *string, at time.Time, cooldownUntil time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[requestID]
	if !ok {
		return false, domainErrors.ErrNotFound
	}
	if req.Status != model.ChangeRequestStatusPending {
		return false, nil
	}
	req.Status = model.ChangeRequestStatusDenied
	req.ApprovedBy = &adminID
	req.AdminReason = adminReason
	req.CooldownUntil = &cooldownUntil
	req.UpdatedAt = at
	return true, nil
}

// TestReferralLifecycle walks the whole protocol against stateful fakes:
// anonymous visit, cookie confirmation, blocked second referral, change
// request adjudication, order-time resolution.
func TestReferralLifecycle(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	policy := config.ReferralConfig{CooldownDays: 14}
	policy.ApplyDefaults()

	riderA := &model.Rider{ID: uuid.New(), Code: "RIDERAAA", Name: "Rider A", Status: model.RiderStatusActive}
	riderB := &model.Rider{ID: uuid.New(), Code: "RIDERBBB", Name: "Rider B", Status: model.RiderStatusActive}

	riderRepo := newFakeRiderRepo(riderA, riderB)
	attRepo := newFakeAttributionRepo()
	visitRepo := &fakeVisitRepo{}
	changeRepo := newFakeChangeRepo(attRepo)

	visits := usecase.NewVisitUsecase(riderRepo, attRepo, visitRepo, nil, policy, logger)
	confirmations := usecase.NewConfirmationUsecase(riderRepo, attRepo, logger)
	changes := usecase.NewChangeRequestUsecase(riderRepo, attRepo, changeRepo, policy, logger)
	resolver := usecase.NewResolverUsecase(riderRepo, attRepo, logger)

	customerID := uuid.New()

	// Anonymous click on rider A's link: cookie only, nothing stored.
	visit, err := visits.HandleVisit(ctx, dto.VisitInput{RiderCode: "RIDERAAA"})
	assert.NoError(t, err)
	assert.Equal(t, dto.VisitStatusCookieOnly, visit.Status)
	assert.NotNil(t, visit.Pending)

	resolved, err := resolver.ResolveRiderForOrder(ctx, customerID, time.Now())
	assert.NoError(t, err)
	assert.Nil(t, resolved)

	// Signup consumes the cookie and binds the customer to rider A.
	confirm, err := confirmations.ConfirmPending(ctx, dto.ConfirmInput{
		CustomerID: customerID,
		RiderCode:  visit.Pending.RiderCode,
		SessionID:  visit.Pending.SessionID,
	})
	assert.NoError(t, err)
	assert.Equal(t, dto.VisitStatusAssigned, confirm.Status)
	assert.True(t, confirm.ClearCookie)

	// A later click on rider B's link cannot steal the attribution.
	visit, err = visits.HandleVisit(ctx, dto.VisitInput{
		RiderCode:  "RIDERBBB",
		SessionID:  "later-session",
		CustomerID: &customerID,
	})
	assert.NoError(t, err)
	assert.Equal(t, dto.VisitStatusBlocked, visit.Status)
	assert.Equal(t, riderA.ID, *visit.RiderID)

	// Inside the cooldown a change request is refused with a boundary.
	change, err := changes.Create(ctx, dto.CreateChangeRequestInput{
		CustomerID:  customerID,
		ToRiderCode: "RIDERBBB",
	})
	assert.NoError(t, err)
	assert.Equal(t, dto.ChangeOutcomeCooldown, change.Status)
	assert.NotNil(t, change.CooldownUntil)

	// Age the attribution past the cooldown and retry.
	attRepo.byCustomer[customerID].AssignedAt = time.Now().UTC().Add(-30 * 24 * time.Hour)

	change, err = changes.Create(ctx, dto.CreateChangeRequestInput{
		CustomerID:  customerID,
		ToRiderCode: "RIDERBBB",
	})
	assert.NoError(t, err)
	assert.Equal(t, dto.ChangeOutcomePending, change.Status)
	requestID := *change.RequestID

	// Approval rewrites the attribution and spends the allowance.
	err = changes.Adjudicate(ctx, dto.AdjudicateInput{
		RequestID: requestID,
		Action:    dto.ActionApprove,
		AdminID:   "admin-1",
	})
	assert.NoError(t, err)

	resolved, err = resolver.ResolveRiderForOrder(ctx, customerID, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, riderB.ID, *resolved)

	// Second approval attempt is a harmless no-op.
	err = changes.Adjudicate(ctx, dto.AdjudicateInput{
		RequestID: requestID,
		Action:    dto.ActionApprove,
		AdminID:   "admin-2",
	})
	assert.NoError(t, err)

	// The one-shot allowance is gone; another request is blocked.
	attRepo.byCustomer[customerID].AssignedAt = time.Now().UTC().Add(-30 * 24 * time.Hour)
	change, err = changes.Create(ctx, dto.CreateChangeRequestInput{
		CustomerID:  customerID,
		ToRiderCode: "RIDERAAA",
	})
	assert.NoError(t, err)
	assert.Equal(t, dto.ChangeOutcomeBlocked, change.Status)
	assert.Equal(t, dto.ReasonAlreadyRequested, change.Reason)

	// Every resolvable click was logged, whatever its outcome.
	events, total, err := visitRepo.ListBySession(ctx, "later-session", dto.ListFilters{})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "RIDERBBB", events[0].RiderCode)
}

// TestReferralLifecycle_ConcurrentChangeRequests files N concurrent change
// requests for the same customer; the conditional-insert contract must let
// exactly one through as pending and block the rest.
func TestReferralLifecycle_ConcurrentChangeRequests(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	policy := testPolicy()

	riderA := &model.Rider{ID: uuid.New(), Code: "RIDERAAA", Status: model.RiderStatusActive}
	riderB := &model.Rider{ID: uuid.New(), Code: "RIDERBBB", Status: model.RiderStatusActive}

	riderRepo := newFakeRiderRepo(riderA, riderB)
	attRepo := newFakeAttributionRepo()
	changeRepo := newFakeChangeRepo(attRepo)
	changes := usecase.NewChangeRequestUsecase(riderRepo, attRepo, changeRepo, policy, logger)

	customerID := uuid.New()
	riderAID := riderA.ID
	attRepo.byCustomer[customerID] = &model.Attribution{
		ID:         1,
		CustomerID: customerID,
		RiderID:    &riderAID,
		Status:     model.AttributionStatusActive,
		AssignedAt: time.Now().UTC().Add(-60 * 24 * time.Hour),
	}

	const callers = 4
	start := make(chan struct{})
	var wg sync.WaitGroup
	results := make([]*dto.ChangeRequestResult, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			result, err := changes.Create(ctx, dto.CreateChangeRequestInput{
				CustomerID:  customerID,
				ToRiderCode: "RIDERBBB",
			})
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	close(start)
	wg.Wait()

	var pending, blocked int
	for _, result := range results {
		switch result.Status {
		case dto.ChangeOutcomePending:
			pending++
		case dto.ChangeOutcomeBlocked:
			blocked++
			assert.Equal(t, dto.ReasonAlreadyRequested, result.Reason)
		}
	}
	assert.Equal(t, 1, pending)
	assert.Equal(t, callers-1, blocked)

	stored, total, err := changeRepo.List(ctx, dto.ListFilters{Status: "pending"})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, stored, 1)
}

// TestReferralLifecycle_ConcurrentFirstVisit drives N concurrent authenticated
// first visits for different riders through the real conditional-insert
// contract; exactly one must win and all must agree on the winner.
func TestReferralLifecycle_ConcurrentFirstVisit(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	policy := testPolicy()

	riders := make([]*model.Rider, 8)
	for i := range riders {
		riders[i] = &model.Rider{
			ID:     uuid.New(),
			Code:   "RIDER00" + string(rune('A'+i)),
			Status: model.RiderStatusActive,
		}
	}

	riderRepo := newFakeRiderRepo(riders...)
	attRepo := newFakeAttributionRepo()
	visitRepo := &fakeVisitRepo{}
	visits := usecase.NewVisitUsecase(riderRepo, attRepo, visitRepo, nil, policy, logger)

	customerID := uuid.New()

	var wg sync.WaitGroup
	results := make([]*dto.VisitResult, len(riders))
	for i, rider := range riders {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			result, err := visits.HandleVisit(ctx, dto.VisitInput{
				RiderCode:  code,
				SessionID:  "race-session",
				CustomerID: &customerID,
			})
			assert.NoError(t, err)
			results[i] = result
		}(i, rider.Code)
	}
	wg.Wait()

	var assigned int
	winner := attRepo.byCustomer[customerID]
	assert.NotNil(t, winner)
	for _, result := range results {
		if result.Status == dto.VisitStatusAssigned {
			assigned++
		}
		assert.Equal(t, *winner.RiderID, *result.RiderID)
	}
	assert.Equal(t, 1, assigned)
}
