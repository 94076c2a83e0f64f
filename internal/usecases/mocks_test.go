package usecases_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"p2p-ramp.backend/internal/domain/entities"
	"p2p-ramp.backend/pkg/utils"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

func (m *MockUnitOfWork) WithLock(ctx context.Context) context.Context {
	args := m.Called(ctx)
	return args.Get(0).(context.Context) // Return mocked context
}

// Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role entities.UserRole) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *MockUserRepository) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	args := m.Called(ctx, id, blocked)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, p utils.PaginationParams) ([]*entities.User, int64, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Mock TraderRepository
type MockTraderRepository struct {
	mock.Mock
}

func (m *MockTraderRepository) Create(ctx context.Context, trader *entities.Trader) error {
	args := m.Called(ctx, trader)
	return args.Error(0)
}

func (m *MockTraderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Trader, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Trader), args.Error(1)
}

func (m *MockTraderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.Trader, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Trader), args.Error(1)
}

func (m *MockTraderRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, expectedVersion int64) error {
	args := m.Called(ctx, id, balance, expectedVersion)
	return args.Error(0)
}

func (m *MockTraderRepository) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	args := m.Called(ctx, id, blocked)
	return args.Error(0)
}

func (m *MockTraderRepository) List(ctx context.Context, p utils.PaginationParams) ([]*entities.TraderWithEmail, int64, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.TraderWithEmail), args.Get(1).(int64), args.Error(2)
}

func (m *MockTraderRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Mock SettingsNotifier
type MockSettingsNotifier struct {
	mock.Mock
}

func (m *MockSettingsNotifier) NotifySettingsChanged(ctx context.Context, version int64) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}
