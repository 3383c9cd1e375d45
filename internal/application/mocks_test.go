package application

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kvakb/szakdogarepo/internal/domain/equipment"
	"github.com/kvakb/szakdogarepo/internal/domain/hold"
	"github.com/kvakb/szakdogarepo/internal/domain/rental"
	"github.com/kvakb/szakdogarepo/internal/domain/reservation"
)

// MockStore implements reservation.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) LoadBlocks(ctx context.Context, equipmentID string) ([]reservation.Block, error) {
	args := m.Called(ctx, equipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reservation.Block), args.Error(1)
}

// MockHoldRepository implements hold.Repository
type MockHoldRepository struct {
	mock.Mock
}

func (m *MockHoldRepository) Create(ctx context.Context, h *hold.Hold) error {
	return m.Called(ctx, h).Error(0)
}

func (m *MockHoldRepository) GetByID(ctx context.Context, id string) (*hold.Hold, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hold.Hold), args.Error(1)
}

func (m *MockHoldRepository) GetByIDs(ctx context.Context, ids []string) ([]*hold.Hold, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*hold.Hold), args.Error(1)
}

func (m *MockHoldRepository) GetByAccountAndEquipment(ctx context.Context, accountID, equipmentID string) (*hold.Hold, error) {
	args := m.Called(ctx, accountID, equipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hold.Hold), args.Error(1)
}

func (m *MockHoldRepository) ListByAccount(ctx context.Context, accountID string) ([]*hold.Hold, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*hold.Hold), args.Error(1)
}

func (m *MockHoldRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]*hold.Hold, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*hold.Hold), args.Error(1)
}

func (m *MockHoldRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockHoldRepository) DeleteMany(ctx context.Context, ids []string) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

// MockRentalRepository implements rental.Repository
type MockRentalRepository struct {
	mock.Mock
}

func (m *MockRentalRepository) Create(ctx context.Context, r *rental.Rental) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRentalRepository) GetByID(ctx context.Context, id string) (*rental.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rental.Rental), args.Error(1)
}

func (m *MockRentalRepository) GetByPaymentReference(ctx context.Context, ref string) (*rental.Rental, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rental.Rental), args.Error(1)
}

func (m *MockRentalRepository) ListByAccount(ctx context.Context, accountID string) ([]*rental.Rental, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rental.Rental), args.Error(1)
}

func (m *MockRentalRepository) List(ctx context.Context, limit, offset int) ([]*rental.Rental, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rental.Rental), args.Error(1)
}

func (m *MockRentalRepository) ListPromotable(ctx context.Context) ([]*rental.Rental, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rental.Rental), args.Error(1)
}

func (m *MockRentalRepository) HistoryByEquipment(ctx context.Context, equipmentID string) ([]rental.HistoryEntry, error) {
	args := m.Called(ctx, equipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rental.HistoryEntry), args.Error(1)
}

func (m *MockRentalRepository) Update(ctx context.Context, r *rental.Rental) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRentalRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockEquipmentRepository implements equipment.Repository
type MockEquipmentRepository struct {
	mock.Mock
}

func (m *MockEquipmentRepository) Create(ctx context.Context, e *equipment.Equipment) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEquipmentRepository) GetByID(ctx context.Context, id string) (*equipment.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*equipment.Equipment), args.Error(1)
}

func (m *MockEquipmentRepository) List(ctx context.Context, filter equipment.ListFilter) ([]*equipment.Equipment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*equipment.Equipment), args.Error(1)
}

func (m *MockEquipmentRepository) Update(ctx context.Context, e *equipment.Equipment) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEquipmentRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockCategoryRepository implements equipment.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Save(ctx context.Context, c *equipment.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id string) (*equipment.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*equipment.Category), args.Error(1)
}

func (m *MockCategoryRepository) List(ctx context.Context) ([]*equipment.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*equipment.Category), args.Error(1)
}

// MockPaymentIndex implements PaymentIndex
type MockPaymentIndex struct {
	mock.Mock
}

func (m *MockPaymentIndex) Lookup(ctx context.Context, ref string) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentIndex) Remember(ctx context.Context, ref, rentalID string) error {
	return m.Called(ctx, ref, rentalID).Error(0)
}

// stubLocker はロックを取得したものとして fn を実行する
type stubLocker struct {
	err  error
	keys []string
}

func (l *stubLocker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return l.err
	}
	return fn(ctx)
}
