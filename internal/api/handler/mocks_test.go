package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kvakb/szakdogarepo/internal/api"
	"github.com/kvakb/szakdogarepo/internal/application"
	"github.com/kvakb/szakdogarepo/internal/domain/equipment"
	"github.com/kvakb/szakdogarepo/internal/domain/hold"
	"github.com/kvakb/szakdogarepo/internal/domain/interval"
	"github.com/kvakb/szakdogarepo/internal/domain/rental"
)

// MockReservationService はReservationServiceInterfaceのモック
type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) CheckAvailability(ctx context.Context, input application.CheckAvailabilityInput) (*application.AvailabilityResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.AvailabilityResult), args.Error(1)
}

func (m *MockReservationService) ListHolds(ctx context.Context, equipmentID string) ([]interval.Interval, error) {
	args := m.Called(ctx, equipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interval.Interval), args.Error(1)
}

func (m *MockReservationService) CreateHold(ctx context.Context, input application.CreateHoldInput) (*hold.Hold, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hold.Hold), args.Error(1)
}

func (m *MockReservationService) ListCart(ctx context.Context, accountID string) ([]*hold.Hold, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*hold.Hold), args.Error(1)
}

func (m *MockReservationService) RemoveHold(ctx context.Context, accountID, holdID string) error {
	args := m.Called(ctx, accountID, holdID)
	return args.Error(0)
}

func (m *MockReservationService) HoldTTL() time.Duration {
	return hold.DefaultTTL
}

// MockCheckoutService はCheckoutServiceInterfaceのモック
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) FinalizeCheckout(ctx context.Context, input application.FinalizeCheckoutInput) (*rental.Rental, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rental.Rental), args.Error(1)
}

// MockRentalService はRentalServiceInterfaceのモック
type MockRentalService struct {
	mock.Mock
}

func (m *MockRentalService) ListByAccount(ctx context.Context, accountID string) ([]*rental.Rental, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rental.Rental), args.Error(1)
}

func (m *MockRentalService) List(ctx context.Context, limit, offset int) ([]*rental.Rental, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rental.Rental), args.Error(1)
}

func (m *MockRentalService) Get(ctx context.Context, id string) (*rental.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rental.Rental), args.Error(1)
}

func (m *MockRentalService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRentalService) OverrideStatus(ctx context.Context, id string, status rental.Status) (*rental.Rental, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rental.Rental), args.Error(1)
}

func (m *MockRentalService) OverrideItemStatus(ctx context.Context, id string, index int, status rental.Status) (*rental.Rental, error) {
	args := m.Called(ctx, id, index, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rental.Rental), args.Error(1)
}

func (m *MockRentalService) History(ctx context.Context, equipmentID string) ([]rental.HistoryEntry, error) {
	args := m.Called(ctx, equipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rental.HistoryEntry), args.Error(1)
}

// MockEquipmentService はEquipmentServiceInterfaceのモック
type MockEquipmentService struct {
	mock.Mock
}

func (m *MockEquipmentService) SaveCategory(ctx context.Context, c *equipment.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockEquipmentService) GetCategory(ctx context.Context, id string) (*equipment.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*equipment.Category), args.Error(1)
}

func (m *MockEquipmentService) ListCategories(ctx context.Context) ([]*equipment.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*equipment.Category), args.Error(1)
}

func (m *MockEquipmentService) Create(ctx context.Context, input application.SaveEquipmentInput) (*equipment.Equipment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*equipment.Equipment), args.Error(1)
}

func (m *MockEquipmentService) Update(ctx context.Context, id string, input application.SaveEquipmentInput) (*equipment.Equipment, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*equipment.Equipment), args.Error(1)
}

func (m *MockEquipmentService) Get(ctx context.Context, id string) (*equipment.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*equipment.Equipment), args.Error(1)
}

func (m *MockEquipmentService) List(ctx context.Context, filter equipment.ListFilter, attrs map[string]string) ([]*equipment.Equipment, error) {
	args := m.Called(ctx, filter, attrs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*equipment.Equipment), args.Error(1)
}

func (m *MockEquipmentService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func testDate(s string) time.Time {
	t, err := time.Parse(api.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func testPeriod(start, end string) interval.Interval {
	return interval.Interval{Start: testDate(start), End: testDate(end)}
}
