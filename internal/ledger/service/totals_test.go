package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/ledger/db"
	"ms-boxoffice/internal/ledger/service"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newSQLiteService(t *testing.T) (*service.LedgerService, *bun.DB) {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	ctx := context.Background()
	for _, m := range []interface{}{
		(*models.Event)(nil),
		(*models.TicketType)(nil),
		(*models.SaleRecord)(nil),
		(*models.EventCloseSnapshot)(nil),
	} {
		_, err := bunDB.NewCreateTable().Model(m).Exec(ctx)
		require.NoError(t, err)
	}

	prices := pricing.NewResolver(pricing.Fake(saleNight()), cordoba, true)
	svc := service.NewLedgerService(&db.DB{Bun: bunDB}, prices, nil, logger.NewNop(), config.Load())
	return svc, bunDB
}

func TestGetEventTotalsIsRepeatable(t *testing.T) {
	svc, bunDB := newSQLiteService(t)
	ctx := context.Background()

	ev := &models.Event{Name: "Sabado", Date: saleNight(), Capacity: 100, Active: true, CreatedAt: time.Now().UTC()}
	_, err := bunDB.NewInsert().Model(ev).Exec(ctx)
	require.NoError(t, err)
	general := &models.TicketType{Name: "General", BasePrice: decimal.NewFromInt(500), Active: true}
	vip := &models.TicketType{Name: "VIP", BasePrice: decimal.NewFromInt(1000), Active: true}
	for _, tt := range []*models.TicketType{general, vip} {
		_, err := bunDB.NewInsert().Model(tt).Exec(ctx)
		require.NoError(t, err)
	}

	for _, req := range []service.SaleRequest{
		{TicketTypeID: general.ID, EventID: &ev.ID, Quantity: 5, Operation: "sale"},
		{TicketTypeID: vip.ID, EventID: &ev.ID, Quantity: 3, Operation: "sale"},
		{TicketTypeID: general.ID, EventID: &ev.ID, Quantity: 2, Operation: "correction"},
		{TicketTypeID: vip.ID, EventID: &ev.ID, Quantity: 1, Operation: "restar"},
	} {
		_, err := svc.RecordSale(ctx, req)
		require.NoError(t, err)
	}

	first, err := svc.GetEventTotals(ctx, ev.ID)
	require.NoError(t, err)
	second, err := svc.GetEventTotals(ctx, ev.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 5, first.TotalSold)
	assert.True(t, decimal.NewFromInt(3500).Equal(first.TotalRevenue))
	assert.Equal(t, map[int64]int{general.ID: 3, vip.ID: 2}, first.ByTicketType)
}

func TestRecordSaleRejectsQuantityAboveLimit(t *testing.T) {
	svc, mockDB, _ := newService(t, saleNight())
	svc.MaxQuantity = 50

	_, err := svc.RecordSale(context.Background(), service.SaleRequest{TicketTypeID: 1, Quantity: 51, Operation: "sale"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.RecordSale(context.Background(), service.SaleRequest{TicketTypeID: 1, Quantity: 3_000_000_000, Operation: "correction"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)

	mockDB.AssertNotCalled(t, "InsertSale", mock.Anything, mock.Anything)
}

func TestNewLedgerServiceTakesLimitFromConfig(t *testing.T) {
	t.Setenv("SALE_MAX_QUANTITY", "12")
	prices := pricing.NewResolver(pricing.Fake(saleNight()), cordoba, true)

	svc := service.NewLedgerService(new(MockDBLayer), prices, nil, logger.NewNop(), config.Load())

	assert.Equal(t, 12, svc.MaxQuantity)
}
