package application

import (
	"context"
	"fmt"
	"time"

	"github.com/kvakb/szakdogarepo/internal/domain/equipment"
	"github.com/kvakb/szakdogarepo/internal/pkg/clock"
)

// EquipmentService は機材カタログを扱う
type EquipmentService struct {
	equipmentRepo equipment.Repository
	categoryRepo  equipment.CategoryRepository
	clock         clock.Clock
	storeTimeout  time.Duration
}

func NewEquipmentService(er equipment.Repository, cr equipment.CategoryRepository, c clock.Clock, storeTimeout time.Duration) *EquipmentService {
	if c == nil {
		c = clock.NewSystem()
	}
	return &EquipmentService{equipmentRepo: er, categoryRepo: cr, clock: c, storeTimeout: storeTimeout}
}

// SaveCategory はカテゴリと属性スキーマを登録する
func (s *EquipmentService) SaveCategory(ctx context.Context, c *equipment.Category) error {
	if c.ID == "" || c.Name == "" {
		return equipment.ErrNameRequired
	}
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.categoryRepo.Save(ctx, c)
}

func (s *EquipmentService) GetCategory(ctx context.Context, id string) (*equipment.Category, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.categoryRepo.GetByID(ctx, id)
}

func (s *EquipmentService) ListCategories(ctx context.Context) ([]*equipment.Category, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.categoryRepo.List(ctx)
}

type SaveEquipmentInput struct {
	CategoryID  string
	Name        string
	Brand       string
	Description string
	Status      equipment.Status
	PricePerDay int
	ImageURL    string
	OwnerID     string
	Attributes  map[string]equipment.Value
}

func (s *EquipmentService) Create(ctx context.Context, input SaveEquipmentInput) (*equipment.Equipment, error) {
	e := equipment.NewEquipment(input.CategoryID, input.Name, input.Brand, input.PricePerDay, s.clock.Now())
	apply(e, input)
	if err := s.validate(ctx, e); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.equipmentRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("機材の登録に失敗: %w", err)
	}
	return e, nil
}

func (s *EquipmentService) Update(ctx context.Context, id string, input SaveEquipmentInput) (*equipment.Equipment, error) {
	gctx, cancel := withTimeout(ctx, s.storeTimeout)
	e, err := s.equipmentRepo.GetByID(gctx, id)
	cancel()
	if err != nil {
		return nil, err
	}
	e.CategoryID = input.CategoryID
	e.Name = input.Name
	e.Brand = input.Brand
	e.PricePerDay = input.PricePerDay
	apply(e, input)
	e.UpdatedAt = s.clock.Now()
	if err := s.validate(ctx, e); err != nil {
		return nil, err
	}
	uctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.equipmentRepo.Update(uctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EquipmentService) Get(ctx context.Context, id string) (*equipment.Equipment, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.equipmentRepo.GetByID(ctx, id)
}

// List はカテゴリで絞り込んだ後、属性の等値条件で絞り込む
func (s *EquipmentService) List(ctx context.Context, filter equipment.ListFilter, attrs map[string]string) ([]*equipment.Equipment, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	list, err := s.equipmentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(attrs) == 0 {
		return list, nil
	}
	out := make([]*equipment.Equipment, 0, len(list))
	for _, e := range list {
		if e.Matches(attrs) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *EquipmentService) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.equipmentRepo.Delete(ctx, id)
}

// validate は基本項目とカテゴリの属性スキーマを確認する
func (s *EquipmentService) validate(ctx context.Context, e *equipment.Equipment) error {
	if err := e.Validate(); err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	c, err := s.categoryRepo.GetByID(ctx, e.CategoryID)
	if err != nil {
		return err
	}
	if err := c.Check(e.Attributes); err != nil {
		return err
	}
	e.CategoryName = c.Name
	return nil
}

func apply(e *equipment.Equipment, input SaveEquipmentInput) {
	e.Description = input.Description
	e.ImageURL = input.ImageURL
	if input.OwnerID != "" {
		e.OwnerID = input.OwnerID
	}
	if input.Status != "" {
		e.Status = input.Status
	}
	if input.Attributes != nil {
		e.Attributes = input.Attributes
	}
}
