package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kvakb/szakdogarepo/internal/domain/equipment"
	"github.com/kvakb/szakdogarepo/internal/pkg/clock"
)

func cameraCategory() *equipment.Category {
	return &equipment.Category{
		ID:   "camera",
		Name: "カメラ",
		Fields: []equipment.FieldDef{
			{Name: "sensor", Kind: equipment.KindChoice, Options: []string{"full-frame", "aps-c"}},
			{Name: "ibis", Kind: equipment.KindBoolean},
		},
	}
}

func TestEquipmentService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("カテゴリのスキーマに沿った属性で登録できる", func(t *testing.T) {
		repo := new(MockEquipmentRepository)
		cats := new(MockCategoryRepository)
		svc := NewEquipmentService(repo, cats, clock.NewFixed(testNow), 0)

		cats.On("GetByID", mock.Anything, "camera").Return(cameraCategory(), nil)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*equipment.Equipment")).Return(nil)

		e, err := svc.Create(ctx, SaveEquipmentInput{
			CategoryID:  "camera",
			Name:        "A7 IV",
			Brand:       "Sony",
			PricePerDay: 5000,
			Attributes: map[string]equipment.Value{
				"sensor": equipment.Choice("full-frame"),
				"ibis":   equipment.Bool(true),
			},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, "カメラ", e.CategoryName)
		assert.Equal(t, equipment.StatusAvailable, e.Status)
		assert.Equal(t, testNow, e.CreatedAt)
	})

	t.Run("スキーマに合わない属性は拒否する", func(t *testing.T) {
		repo := new(MockEquipmentRepository)
		cats := new(MockCategoryRepository)
		svc := NewEquipmentService(repo, cats, clock.NewFixed(testNow), 0)

		cats.On("GetByID", mock.Anything, "camera").Return(cameraCategory(), nil)

		_, err := svc.Create(ctx, SaveEquipmentInput{
			CategoryID:  "camera",
			Name:        "A7 IV",
			PricePerDay: 5000,
			Attributes:  map[string]equipment.Value{"sensor": equipment.Choice("medium-format")},
		})
		assert.ErrorIs(t, err, equipment.ErrAttributeOutOfRange)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("存在しないカテゴリ", func(t *testing.T) {
		repo := new(MockEquipmentRepository)
		cats := new(MockCategoryRepository)
		svc := NewEquipmentService(repo, cats, clock.NewFixed(testNow), 0)

		cats.On("GetByID", mock.Anything, "lens").Return(nil, equipment.ErrCategoryNotFound)

		_, err := svc.Create(ctx, SaveEquipmentInput{CategoryID: "lens", Name: "FE 24-70", PricePerDay: 3000})
		assert.ErrorIs(t, err, equipment.ErrCategoryNotFound)
	})
}

func TestEquipmentService_List(t *testing.T) {
	repo := new(MockEquipmentRepository)
	svc := NewEquipmentService(repo, new(MockCategoryRepository), nil, 0)

	ff := equipment.NewEquipment("camera", "A7 IV", "Sony", 5000, testNow)
	ff.Attributes = map[string]equipment.Value{"sensor": equipment.Choice("full-frame")}
	crop := equipment.NewEquipment("camera", "X-T5", "Fujifilm", 4000, testNow)
	crop.Attributes = map[string]equipment.Value{"sensor": equipment.Choice("aps-c")}

	filter := equipment.ListFilter{CategoryID: "camera", Limit: 20}
	repo.On("List", mock.Anything, filter).Return([]*equipment.Equipment{ff, crop}, nil)

	got, err := svc.List(context.Background(), filter, map[string]string{"sensor": "aps-c"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "X-T5", got[0].Name)

	got, err = svc.List(context.Background(), filter, nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestEquipmentService_Update(t *testing.T) {
	repo := new(MockEquipmentRepository)
	cats := new(MockCategoryRepository)
	later := testNow.Add(48 * time.Hour)
	svc := NewEquipmentService(repo, cats, clock.NewFixed(later), 0)

	e := equipment.NewEquipment("camera", "A7 IV", "Sony", 5000, testNow)
	repo.On("GetByID", mock.Anything, e.ID).Return(e, nil)
	cats.On("GetByID", mock.Anything, "camera").Return(cameraCategory(), nil)
	repo.On("Update", mock.Anything, e).Return(nil)

	got, err := svc.Update(context.Background(), e.ID, SaveEquipmentInput{
		CategoryID:  "camera",
		Name:        "A7 IV",
		Brand:       "Sony",
		PricePerDay: 5500,
		Status:      equipment.StatusMaintenance,
	})
	require.NoError(t, err)
	assert.Equal(t, 5500, got.PricePerDay)
	assert.False(t, got.IsRentable())
	assert.Equal(t, later, got.UpdatedAt)
}
