package usecase_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dashride/referral-service/internal/domain/dto"
	"github.com/dashride/referral-service/internal/domain/model"
)

// MockRiderRepository is a mock implementation of RiderRepository
type MockRiderRepository struct {
	mock.Mock
}

func (m *MockRiderRepository) GetByCode(ctx context.Context, code string) (*model.Rider, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Rider), args.Error(1)
}

func (m *MockRiderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Rider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Rider), args.Error(1)
}

func (m *MockRiderRepository) Create(ctx context.Context, rider *model.Rider) error {
	args := m.Called(ctx, rider)
	return args.Error(0)
}

// MockAttributionRepository is a mock implementation of AttributionRepository
type MockAttributionRepository struct {
	mock.Mock
}

func (m *MockAttributionRepository) GetActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*model.Attribution, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Attribution), args.Error(1)
}

func (m *MockAttributionRepository) CreateIfAbsent(ctx context.Context, attribution *model.Attribution) (bool, *model.Attribution, error) {
	args := m.Called(ctx, attribution)
	var current *model.Attribution
	if args.Get(1) != nil {
		current = args.Get(1).(*model.Attribution)
	}
	return args.Bool(0), current, args.Error(2)
}

func (m *MockAttributionRepository) Touch(ctx context.Context, attributionID int64, at time.Time) error {
	args := m.Called(ctx, attributionID, at)
	return args.Error(0)
}

// MockVisitRepository is a mock implementation of VisitRepository
type MockVisitRepository struct {
	mock.Mock
}

func (m *MockVisitRepository) Append(ctx context.Context, event *model.VisitEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockVisitRepository) ListBySession(ctx context.Context, sessionID string, filters dto.ListFilters) ([]model.VisitEvent, int64, error) {
	args := m.Called(ctx, sessionID, filters)
	return args.Get(0).([]model.VisitEvent), args.Get(1).(int64), args.Error(2)
}

// MockChangeRequestRepository is a mock implementation of ChangeRequestRepository
type MockChangeRequestRepository struct {
	mock.Mock
}

func (m *MockChangeRequestRepository) Create(ctx context.Context, request *model.ChangeRequest) (bool, error) {
	args := m.Called(ctx, request)
	return args.Bool(0), args.Error(1)
}

func (m *MockChangeRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChangeRequest), args.Error(1)
}

func (m *MockChangeRequestRepository) GetLatestByCustomer(ctx context.Context, customerID uuid.UUID) (*model.ChangeRequest, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChangeRequest), args.Error(1)
}

func (m *MockChangeRequestRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID, includeDenied bool) (int64, error) {
	args := m.Called(ctx, customerID, includeDenied)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChangeRequestRepository) LatestDenied(ctx context.Context, customerID uuid.UUID) (*model.ChangeRequest, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChangeRequest), args.Error(1)
}

func (m *MockChangeRequestRepository) List(ctx context.Context, filters dto.ListFilters) ([]model.ChangeRequest, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]model.ChangeRequest), args.Get(1).(int64), args.Error(2)
}

func (m *MockChangeRequestRepository) Approve(ctx context.Context, requestID uuid.UUID, adminID string, adminReason *string, at time.Time) (bool, error) {
	args := m.Called(ctx, requestID, adminID, adminReason, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockChangeRequestRepository) Deny(ctx context.Context, requestID uuid.UUID, adminID string, adminReason *string, at time.Time, cooldownUntil time.Time) (bool, error) {
	args := m.Called(ctx, requestID, adminID, adminReason, at, cooldownUntil)
	return args.Bool(0), args.Error(1)
}

// MockVisitRateLimiter is a mock implementation of VisitRateLimiter
type MockVisitRateLimiter struct {
	mock.Mock
}

func (m *MockVisitRateLimiter) Allow(ctx context.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}
