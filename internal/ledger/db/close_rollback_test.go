package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/ledger/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func newMockStore(t *testing.T) (*db.DB, sqlmock.Sqlmock) {
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}, mock
}

func eventRow(active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "nombre", "detalle", "fecha", "capacidad", "activo", "fecha_creacion"}).
		AddRow(int64(7), "Sabado", nil, time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC), 100, active, time.Now())
}

func TestCloseEventRollsBackWhenSnapshotInsertFails(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM "eventos" AS "e" .*FOR UPDATE`).
		WillReturnRows(eventRow(true))
	mock.ExpectQuery(`FROM ventas_entradas AS v JOIN entradas AS t`).
		WillReturnRows(sqlmock.NewRows([]string{"evento_id", "entrada_id", "nombre", "cantidad", "total"}).
			AddRow(int64(7), int64(1), "General", 30, "15000"))
	mock.ExpectQuery(`INSERT INTO "cierres_eventos"`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := store.CloseEvent(context.Background(), 7, "owner-1", time.Now())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseEventRollsBackWhenDeactivateFails(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM "eventos" AS "e"`).WillReturnRows(eventRow(true))
	mock.ExpectQuery(`FROM ventas_entradas AS v`).
		WillReturnRows(sqlmock.NewRows([]string{"evento_id", "entrada_id", "nombre", "cantidad", "total"}))
	mock.ExpectQuery(`INSERT INTO "cierres_eventos"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec(`DELETE FROM "ventas_entradas"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE "eventos"`).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	_, err := store.CloseEvent(context.Background(), 7, "owner-1", time.Now())

	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseEventOnInactiveEventWritesNothing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM "eventos" AS "e"`).WillReturnRows(eventRow(false))
	mock.ExpectRollback()

	_, err := store.CloseEvent(context.Background(), 7, "owner-1", time.Now())

	assert.ErrorIs(t, err, apperrors.ErrEventNotActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}
