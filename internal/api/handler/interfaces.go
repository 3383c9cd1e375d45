package handler

import (
	"context"
	"time"

	"github.com/kvakb/szakdogarepo/internal/application"
	"github.com/kvakb/szakdogarepo/internal/domain/equipment"
	"github.com/kvakb/szakdogarepo/internal/domain/hold"
	"github.com/kvakb/szakdogarepo/internal/domain/interval"
	"github.com/kvakb/szakdogarepo/internal/domain/rental"
)

// ReservationServiceInterface は空き確認とカート操作のインターフェース
type ReservationServiceInterface interface {
	CheckAvailability(ctx context.Context, input application.CheckAvailabilityInput) (*application.AvailabilityResult, error)
	ListHolds(ctx context.Context, equipmentID string) ([]interval.Interval, error)
	CreateHold(ctx context.Context, input application.CreateHoldInput) (*hold.Hold, error)
	ListCart(ctx context.Context, accountID string) ([]*hold.Hold, error)
	RemoveHold(ctx context.Context, accountID, holdID string) error
	HoldTTL() time.Duration
}

// CheckoutServiceInterface は決済完了時の確定処理のインターフェース
type CheckoutServiceInterface interface {
	FinalizeCheckout(ctx context.Context, input application.FinalizeCheckoutInput) (*rental.Rental, error)
}

// RentalServiceInterface はレンタル参照と管理操作のインターフェース
type RentalServiceInterface interface {
	ListByAccount(ctx context.Context, accountID string) ([]*rental.Rental, error)
	List(ctx context.Context, limit, offset int) ([]*rental.Rental, error)
	Get(ctx context.Context, id string) (*rental.Rental, error)
	Delete(ctx context.Context, id string) error
	OverrideStatus(ctx context.Context, id string, status rental.Status) (*rental.Rental, error)
	OverrideItemStatus(ctx context.Context, id string, index int, status rental.Status) (*rental.Rental, error)
	History(ctx context.Context, equipmentID string) ([]rental.HistoryEntry, error)
}

// EquipmentServiceInterface は機材カタログのインターフェース
type EquipmentServiceInterface interface {
	SaveCategory(ctx context.Context, c *equipment.Category) error
	GetCategory(ctx context.Context, id string) (*equipment.Category, error)
	ListCategories(ctx context.Context) ([]*equipment.Category, error)
	Create(ctx context.Context, input application.SaveEquipmentInput) (*equipment.Equipment, error)
	Update(ctx context.Context, id string, input application.SaveEquipmentInput) (*equipment.Equipment, error)
	Get(ctx context.Context, id string) (*equipment.Equipment, error)
	List(ctx context.Context, filter equipment.ListFilter, attrs map[string]string) ([]*equipment.Equipment, error)
	Delete(ctx context.Context, id string) error
}
