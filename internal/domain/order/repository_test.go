package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)
	return NewRepository(db), mock
}

var changeAt = time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)

func TestRepository_UpdateOrderStatusAppliesAndRecordsHistory(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "orders" SET .* WHERE id = \$\d+ AND status = \$\d+`).
		WithArgs("preparing", changeAt, "o-1", "confirmed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "order_status_history"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.UpdateOrderStatus(context.Background(), "o-1", StatusChange{
		From: OrderStatusConfirmed,
		To:   OrderStatusPreparing,
		At:   changeAt,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateOrderStatusConflict(t *testing.T) {
	repo, mock := newMockRepository(t)

	// Another writer moved the order first
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "orders" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "orders" WHERE id = \$1`).
		WithArgs("o-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.UpdateOrderStatus(context.Background(), "o-1", StatusChange{
		From: OrderStatusConfirmed,
		To:   OrderStatusPreparing,
		At:   changeAt,
	})
	assert.True(t, errors.Is(err, ErrStatusConflict))
	assert.Contains(t, err.Error(), "expected confirmed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateOrderStatusMissingOrder(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "orders" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	err := repo.UpdateOrderStatus(context.Background(), "o-gone", StatusChange{
		From: OrderStatusPreparing,
		To:   OrderStatusCancelled,
		At:   changeAt,
	})
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateOrderStatusHistoryFailureRollsBack(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "orders" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "order_status_history"`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.UpdateOrderStatus(context.Background(), "o-1", StatusChange{
		From: OrderStatusOnTheWay,
		To:   OrderStatusDelivered,
		At:   changeAt,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create status history")
	assert.NoError(t, mock.ExpectationsWereMet())
}
