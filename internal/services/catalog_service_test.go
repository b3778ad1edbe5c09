package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-intelligence/internal/models"
)

func TestListRoomTypesInEncoderOrder(t *testing.T) {
	f := newFixture(t)

	types, err := f.catalog.ListRoomTypes(context.Background(), false)
	require.NoError(t, err)
	codes := make([]string, len(types))
	for i, rt := range types {
		codes[i] = rt.Code
	}
	assert.Equal(t, models.RoomTypeCodes, codes)
}

func TestUpsertRoomType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.UpsertRoomType(ctx, "penthouse", &models.RoomTypeUpdateRequest{BasePrice: 900})
	assert.ErrorIs(t, err, ErrInvalidRoomType)
	_, err = f.catalog.UpsertRoomType(ctx, "suite", &models.RoomTypeUpdateRequest{BasePrice: 0})
	assert.ErrorIs(t, err, ErrInvalidBasePrice)
	_, err = f.catalog.UpsertRoomType(ctx, "suite", &models.RoomTypeUpdateRequest{BasePrice: 10, Currency: "E1R"})
	assert.ErrorIs(t, err, ErrInvalidCurrency)
	assert.Zero(t, f.cache.invalidations)

	inactive := false
	rt, err := f.catalog.UpsertRoomType(ctx, " Suite ", &models.RoomTypeUpdateRequest{
		BasePrice: 350,
		Currency:  "EUR",
		Active:    &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "suite", rt.Code)
	assert.Equal(t, "Suite", rt.Name)
	assert.Equal(t, "eur", rt.Currency)
	assert.Equal(t, 4, rt.MaxGuests)
	assert.False(t, rt.Active)
	assert.Equal(t, 1, f.cache.invalidations)

	active, err := f.catalog.ListRoomTypes(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 4)
	all, err := f.catalog.ListRoomTypes(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	_, err = f.catalog.ActiveRoomType("suite")
	assert.ErrorIs(t, err, ErrRoomTypeNotFound)
}
