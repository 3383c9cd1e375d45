package equipment

import (
	"time"

	"github.com/google/uuid"
)

// Status は機材の貸出可否
type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
	StatusMaintenance Status = "maintenance"
)

// Equipment はレンタル可能な機材
type Equipment struct {
	ID           string
	CategoryID   string
	CategoryName string
	Name         string
	Brand        string
	Description  string
	Status       Status
	PricePerDay  int
	ImageURL     string
	OwnerID      string
	Attributes   map[string]Value
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewEquipment は新しい機材を作成する
func NewEquipment(categoryID, name, brand string, pricePerDay int, now time.Time) *Equipment {
	return &Equipment{
		ID:          uuid.New().String(),
		CategoryID:  categoryID,
		Name:        name,
		Brand:       brand,
		Status:      StatusAvailable,
		PricePerDay: pricePerDay,
		Attributes:  map[string]Value{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsRentable は貸出可能かを返す
func (e *Equipment) IsRentable() bool {
	return e.Status == StatusAvailable
}

// Matches は属性の等値フィルタに一致するかを返す
func (e *Equipment) Matches(filter map[string]string) bool {
	for k, want := range filter {
		v, ok := e.Attributes[k]
		if !ok || v.String() != want {
			return false
		}
	}
	return true
}

// Validate は機材の検証を行う
func (e *Equipment) Validate() error {
	if e.CategoryID == "" {
		return ErrCategoryIDRequired
	}
	if e.Name == "" {
		return ErrNameRequired
	}
	if e.PricePerDay < 0 {
		return ErrInvalidPrice
	}
	switch e.Status {
	case StatusAvailable, StatusUnavailable, StatusMaintenance:
	default:
		return ErrInvalidStatus
	}
	return nil
}
