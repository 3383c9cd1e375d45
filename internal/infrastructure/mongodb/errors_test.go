package mongodb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kvakb/szakdogarepo/internal/domain/rental"
	"github.com/kvakb/szakdogarepo/internal/domain/reservation"
)

func TestStoreError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{name: "タイムアウト", err: context.DeadlineExceeded, unavailable: true},
		{name: "キャンセル", err: fmt.Errorf("find: %w", context.Canceled), unavailable: true},
		{name: "切断済みクライアント", err: mongo.ErrClientDisconnected, unavailable: true},
		{name: "その他のエラー", err: errors.New("bad document"), unavailable: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storeError("op", tt.err)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.unavailable, errors.Is(err, reservation.ErrStoreUnavailable))
		})
	}
}

func TestDuplicateRentalError(t *testing.T) {
	dup := func(msg string) error {
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: msg}}}
	}

	ref := dup(`E11000 duplicate key error collection: rental.rentals index: payment_reference_1 dup key: { payment_reference: "pi_1" }`)
	assert.True(t, mongo.IsDuplicateKeyError(ref))
	assert.ErrorIs(t, duplicateRentalError(ref), rental.ErrDuplicatePaymentReference)

	id := dup(`E11000 duplicate key error collection: rental.rentals index: _id_ dup key: { _id: "R-20240610-0A1B2C3D4E5F" }`)
	assert.ErrorIs(t, duplicateRentalError(id), rental.ErrDuplicateRentalID)
}
