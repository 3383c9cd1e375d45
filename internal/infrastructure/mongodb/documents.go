package mongodb

import (
	"time"

	"github.com/kvakb/szakdogarepo/internal/domain/equipment"
	"github.com/kvakb/szakdogarepo/internal/domain/hold"
	"github.com/kvakb/szakdogarepo/internal/domain/interval"
	"github.com/kvakb/szakdogarepo/internal/domain/rental"
)

type holdDocument struct {
	ID            string    `bson:"_id"`
	AccountID     string    `bson:"account_id"`
	EquipmentID   string    `bson:"equipment_id"`
	EquipmentName string    `bson:"equipment_name"`
	StartDate     time.Time `bson:"start_date"`
	EndDate       time.Time `bson:"end_date"`
	PricePerDay   int       `bson:"price_per_day"`
	CreatedAt     time.Time `bson:"created_at"`
}

func newHoldDocument(h *hold.Hold) holdDocument {
	return holdDocument{
		ID:            h.ID,
		AccountID:     h.AccountID,
		EquipmentID:   h.EquipmentID,
		EquipmentName: h.EquipmentName,
		StartDate:     h.Period.Start,
		EndDate:       h.Period.End,
		PricePerDay:   h.PricePerDay,
		CreatedAt:     h.CreatedAt,
	}
}

func (d *holdDocument) toEntity() *hold.Hold {
	return &hold.Hold{
		ID:            d.ID,
		AccountID:     d.AccountID,
		EquipmentID:   d.EquipmentID,
		EquipmentName: d.EquipmentName,
		Period:        interval.Interval{Start: d.StartDate.UTC(), End: d.EndDate.UTC()},
		PricePerDay:   d.PricePerDay,
		CreatedAt:     d.CreatedAt.UTC(),
	}
}

// rentalDocument は明細を埋め込んだ1ドキュメントとして保存する
type rentalDocument struct {
	ID               string         `bson:"_id"`
	AccountID        string         `bson:"account_id"`
	Items            []itemDocument `bson:"items"`
	TotalAmount      int            `bson:"total_amount"`
	Status           string         `bson:"status"`
	PaymentReference string         `bson:"payment_reference"`
	Version          int            `bson:"version"`
	CreatedAt        time.Time      `bson:"created_at"`
	UpdatedAt        time.Time      `bson:"updated_at"`
}

type itemDocument struct {
	EquipmentID   string    `bson:"equipment_id"`
	EquipmentName string    `bson:"equipment_name"`
	StartDate     time.Time `bson:"start_date"`
	EndDate       time.Time `bson:"end_date"`
	PricePerDay   int       `bson:"price_per_day"`
	Status        string    `bson:"status"`
}

func newItemDocuments(items []rental.Item) []itemDocument {
	docs := make([]itemDocument, len(items))
	for i, it := range items {
		docs[i] = itemDocument{
			EquipmentID:   it.EquipmentID,
			EquipmentName: it.EquipmentName,
			StartDate:     it.Period.Start,
			EndDate:       it.Period.End,
			PricePerDay:   it.PricePerDay,
			Status:        string(it.Status),
		}
	}
	return docs
}

func newRentalDocument(r *rental.Rental) rentalDocument {
	return rentalDocument{
		ID:               r.ID,
		AccountID:        r.AccountID,
		Items:            newItemDocuments(r.Items),
		TotalAmount:      r.TotalAmount,
		Status:           string(r.Status),
		PaymentReference: r.PaymentReference,
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (d *itemDocument) toEntity() rental.Item {
	return rental.Item{
		EquipmentID:   d.EquipmentID,
		EquipmentName: d.EquipmentName,
		Period:        interval.Interval{Start: d.StartDate.UTC(), End: d.EndDate.UTC()},
		PricePerDay:   d.PricePerDay,
		Status:        rental.Status(d.Status),
	}
}

func (d *rentalDocument) toEntity() *rental.Rental {
	items := make([]rental.Item, len(d.Items))
	for i := range d.Items {
		items[i] = d.Items[i].toEntity()
	}
	return &rental.Rental{
		ID:               d.ID,
		AccountID:        d.AccountID,
		Items:            items,
		TotalAmount:      d.TotalAmount,
		Status:           rental.Status(d.Status),
		PaymentReference: d.PaymentReference,
		Version:          d.Version,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
}

type equipmentDocument struct {
	ID          string                     `bson:"_id"`
	CategoryID  string                     `bson:"category_id"`
	Name        string                     `bson:"name"`
	Brand       string                     `bson:"brand"`
	Description string                     `bson:"description"`
	Status      string                     `bson:"status"`
	PricePerDay int                        `bson:"price_per_day"`
	ImageURL    string                     `bson:"image_url"`
	OwnerID     string                     `bson:"owner_id"`
	Attributes  map[string]equipment.Value `bson:"attributes"`
	CreatedAt   time.Time                  `bson:"created_at"`
	UpdatedAt   time.Time                  `bson:"updated_at"`
}

func newEquipmentDocument(e *equipment.Equipment) equipmentDocument {
	return equipmentDocument{
		ID:          e.ID,
		CategoryID:  e.CategoryID,
		Name:        e.Name,
		Brand:       e.Brand,
		Description: e.Description,
		Status:      string(e.Status),
		PricePerDay: e.PricePerDay,
		ImageURL:    e.ImageURL,
		OwnerID:     e.OwnerID,
		Attributes:  e.Attributes,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (d *equipmentDocument) toEntity(categoryName string) *equipment.Equipment {
	attrs := d.Attributes
	if attrs == nil {
		attrs = map[string]equipment.Value{}
	}
	return &equipment.Equipment{
		ID:           d.ID,
		CategoryID:   d.CategoryID,
		CategoryName: categoryName,
		Name:         d.Name,
		Brand:        d.Brand,
		Description:  d.Description,
		Status:       equipment.Status(d.Status),
		PricePerDay:  d.PricePerDay,
		ImageURL:     d.ImageURL,
		OwnerID:      d.OwnerID,
		Attributes:   attrs,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type categoryDocument struct {
	ID     string               `bson:"_id"`
	Name   string               `bson:"name"`
	Fields []equipment.FieldDef `bson:"fields"`
}

func (d *categoryDocument) toEntity() *equipment.Category {
	return &equipment.Category{ID: d.ID, Name: d.Name, Fields: d.Fields}
}
