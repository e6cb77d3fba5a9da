package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
)

func newMockRepo(t *testing.T) (*orderRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := Wrap(sqlx.NewDb(mockDB, "postgres"), 2)
	return NewOrderRepository(db), mock
}

func orderRows() *sqlmock.Rows {
	cols := append([]string{"id"}, orderColumns...)
	return sqlmock.NewRows(cols).
		AddRow(1, "405-8078784-5731545", "30/04/2022", "Cancelled", "Merchant", "Amazon.in", "Standard",
			"SET389", "SET389-KR-NP-S", "Set", "S", "B09KXVBD7Z", nil, 0, "INR",
			647.62, "MUMBAI", "MAHARASHTRA", "400081.0", "IN", nil, false, "Easy Ship").
		AddRow(2, "171-9198151-1101146", "30/04/2022", nil, "Merchant", "Amazon.in", "Standard",
			"JNE3781", "JNE3781-KR-XXXL", "kurta", "3XL", "B09K3WFS32", "Shipped", 1, "INR",
			406.0, "BENGALURU", "KARNATAKA", "560085.0", "IN", nil, true, nil)
}

func TestOrderRepository_ListOrders(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT id, order_id, (.+) FROM amazon_sales ORDER BY id LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(orderRows())

	orders, err := repo.ListOrders(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	first := orders[0]
	assert.Equal(t, 1, first.Row)
	assert.Equal(t, "405-8078784-5731545", first.OrderID)
	require.NotNil(t, first.Status)
	assert.Equal(t, "Cancelled", *first.Status)
	assert.Nil(t, first.CourierStatus)
	require.NotNil(t, first.Amount)
	assert.Equal(t, 647.62, *first.Amount)

	second := orders[1]
	assert.Nil(t, second.Status)
	assert.Nil(t, second.FulfilledBy)
	assert.True(t, second.B2B)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_LoadOrders(t *testing.T) {
	t.Run("all rows", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`FROM amazon_sales ORDER BY id$`).
			WillReturnRows(orderRows())

		orders, err := repo.LoadOrders(context.Background(), domain.OrderFilter{})
		require.NoError(t, err)
		assert.Len(t, orders, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("status filter and limit", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`WHERE COALESCE\(status, \$1\) = ANY\(\$2\) ORDER BY id LIMIT \$3`).
			WithArgs("Unknown", sqlmock.AnyArg(), 5).
			WillReturnRows(sqlmock.NewRows(append([]string{"id"}, orderColumns...)))

		orders, err := repo.LoadOrders(context.Background(), domain.OrderFilter{
			Statuses: []string{"Shipped", "Unknown"},
			Limit:    5,
		})
		require.NoError(t, err)
		assert.Empty(t, orders)
		assert.NotNil(t, orders)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_ListStatuses(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT DISTINCT COALESCE\(status, \$1\) AS status`).
		WithArgs("Unknown").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).
			AddRow("Cancelled").
			AddRow("Shipped").
			AddRow("Unknown"))

	statuses, err := repo.ListStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Cancelled", "Shipped", "Unknown"}, statuses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT DISTINCT`).WillReturnError(assert.AnError)

	_, err := repo.ListStatuses(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestDB_WithTx(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := Wrap(sqlx.NewDb(mockDB, "postgres"), 1)

	mock.ExpectBegin()
	mock.ExpectExec(`TRUNCATE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err = db.WithTx(context.Background(), func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(context.Background(), "TRUNCATE TABLE amazon_sales")
		return err
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err = db.WithTx(context.Background(), func(tx *sqlx.Tx) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyValues_FollowsColumns(t *testing.T) {
	assert.Len(t, copyValues(domain.RawOrder{}), len(orderColumns))
}
