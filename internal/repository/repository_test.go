package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestInvoiceValidBySettlementFiltersInSQL(t *testing.T) {
	db, mock := newMockDB(t)
	batchID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "invoice_lines" WHERE batch_id = .+ AND settlement_id = .+ AND validation_flag IN .+ ORDER BY source_row_id ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	lines, err := NewInvoiceLineRepository(db).ValidBySettlement(batchID, "26814818181")
	require.NoError(t, err)
	require.Empty(t, lines)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentBySettlementFiltersInSQL(t *testing.T) {
	db, mock := newMockDB(t)
	batchID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "payment_records" WHERE batch_id = .+ AND settlement_id = .+ ORDER BY invoice_number ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	payments, err := NewPaymentRepository(db).BySettlement(batchID, "26814818181")
	require.NoError(t, err)
	require.Empty(t, payments)
	require.NoError(t, mock.ExpectationsWereMet())
}
