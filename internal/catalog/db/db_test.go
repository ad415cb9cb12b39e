package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/catalog/db"
	"ms-boxoffice/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	for _, m := range []interface{}{
		(*models.Event)(nil),
		(*models.TicketType)(nil),
		(*models.SaleRecord)(nil),
	} {
		_, err := bunDB.NewCreateTable().Model(m).Exec(context.Background())
		require.NoError(t, err)
	}
	return &db.DB{Bun: bunDB}, bunDB
}

func night(day int) time.Time {
	return time.Date(2025, 3, day, 23, 0, 0, 0, time.UTC)
}

func newEvent(name string, date time.Time, active bool) *models.Event {
	return &models.Event{Name: name, Date: date, Capacity: 100, Active: active, CreatedAt: time.Now().UTC()}
}

func TestCreateEventRejectsSameDate(t *testing.T) {
	store, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.CreateEvent(ctx, newEvent("Sabado", night(1), true)))
	err := store.CreateEvent(ctx, newEvent("Otro", night(1), true))

	assert.ErrorIs(t, err, apperrors.ErrDuplicateEvent)
}

func TestListEventsFilters(t *testing.T) {
	store, _ := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, store.CreateEvent(ctx, newEvent("A", night(15), true)))
	require.NoError(t, store.CreateEvent(ctx, newEvent("B", night(1), false)))
	require.NoError(t, store.CreateEvent(ctx, newEvent("C", night(8), true)))

	all, err := store.ListEvents(ctx, db.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"B", "C", "A"}, []string{all[0].Name, all[1].Name, all[2].Name})

	active, err := store.ListEvents(ctx, db.EventFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	window, err := store.ListEvents(ctx, db.EventFilter{From: night(2), To: night(10)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "C", window[0].Name)
}

func TestUpdateEventPatchesGivenFields(t *testing.T) {
	store, _ := setupTestDB(t)
	ctx := context.Background()
	ev := newEvent("Sabado", night(1), true)
	require.NoError(t, store.CreateEvent(ctx, ev))

	capacity := 250
	updated, err := store.UpdateEvent(ctx, ev.ID, db.EventPatch{Capacity: &capacity})
	require.NoError(t, err)
	assert.Equal(t, 250, updated.Capacity)
	assert.Equal(t, "Sabado", updated.Name)

	_, err = store.UpdateEvent(ctx, 999, db.EventPatch{Capacity: &capacity})
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestDeactivateEvent(t *testing.T) {
	store, _ := setupTestDB(t)
	ctx := context.Background()
	ev := newEvent("Sabado", night(1), true)
	require.NoError(t, store.CreateEvent(ctx, ev))

	require.NoError(t, store.DeactivateEvent(ctx, ev.ID))
	got, err := store.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	assert.ErrorIs(t, store.DeactivateEvent(ctx, 999), apperrors.ErrEventNotFound)
}

func TestEnsureEventsIsIdempotent(t *testing.T) {
	store, _ := setupTestDB(t)
	ctx := context.Background()
	existing := newEvent("Fiesta", night(8), false)
	require.NoError(t, store.CreateEvent(ctx, existing))

	dates := []time.Time{night(15), night(1), night(8)}
	first, err := store.EnsureEvents(ctx, dates, "Evento", 800, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.True(t, first[0].Date.Equal(night(1)))
	assert.Equal(t, "Fiesta", first[1].Name, "existing events are kept as they are")
	assert.Equal(t, 800, first[2].Capacity)

	second, err := store.EnsureEvents(ctx, dates, "Evento", 800, time.Now().UTC())
	require.NoError(t, err)
	assert.Len(t, second, 3)

	all, err := store.ListEvents(ctx, db.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTicketTypeLifecycle(t *testing.T) {
	store, _ := setupTestDB(t)
	ctx := context.Background()

	tt := &models.TicketType{Name: "General", BasePrice: decimal.NewFromInt(500), Active: true}
	require.NoError(t, store.CreateTicketType(ctx, tt))
	require.NotZero(t, tt.ID)

	tt.BasePrice = decimal.NewFromInt(700)
	require.NoError(t, store.SaveTicketType(ctx, tt))
	got, err := store.GetTicketType(ctx, tt.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(700).Equal(got.BasePrice))

	require.NoError(t, store.DeactivateTicketType(ctx, tt.ID))
	active, err := store.ListTicketTypes(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, store.DeleteTicketType(ctx, tt.ID))
	_, err = store.GetTicketType(ctx, tt.ID)
	assert.ErrorIs(t, err, apperrors.ErrTicketTypeNotFound)
	assert.ErrorIs(t, store.DeleteTicketType(ctx, tt.ID), apperrors.ErrTicketTypeNotFound)
}

func TestDeleteTicketTypeInUse(t *testing.T) {
	store, bunDB := setupTestDB(t)
	ctx := context.Background()
	tt := &models.TicketType{Name: "VIP", BasePrice: decimal.NewFromInt(1000), Active: true}
	require.NoError(t, store.CreateTicketType(ctx, tt))

	_, err := bunDB.NewInsert().Model(&models.SaleRecord{
		TicketTypeID: tt.ID,
		Operation:    models.OperationSale,
		Quantity:     1,
		UnitPrice:    decimal.NewFromInt(1000),
		Total:        decimal.NewFromInt(1000),
		SoldAt:       time.Now().UTC(),
	}).Exec(ctx)
	require.NoError(t, err)

	err = store.DeleteTicketType(ctx, tt.ID)
	assert.ErrorIs(t, err, apperrors.ErrTicketTypeInUse)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}
