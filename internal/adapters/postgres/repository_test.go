package postgres_adapter

import (
	"context"
	"regexp"
	"testing"
	"time"

	"web-larek/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	insertOrderSQL = regexp.QuoteMeta("INSERT INTO orders (id, session_id, upstream_id, payment, email, phone, address, total, created_at)")
	insertItemSQL  = regexp.QuoteMeta("INSERT INTO order_items (order_id, product_id, title, quantity, price)")
)

func placedOrder() *domain.PlacedOrder {
	return &domain.PlacedOrder{
		ID:         "1f4c1f0e-1a2b-4c3d-8e9f-0a1b2c3d4e5f",
		SessionID:  "s1",
		UpstreamID: "up-1",
		Order: domain.OrderServer{
			Payment: domain.PaymentCard,
			Email:   "buyer@example.com",
			Phone:   "+71234567890",
			Address: "Moscow",
			Items:   []string{"p1", "p1", "p2"},
			Total:   250,
		},
		Lines: []domain.OrderLine{
			{ProductID: "p1", Title: "Widget", Quantity: 2, Price: 100},
			{ProductID: "p2", Title: "Gadget", Quantity: 1, Price: 50},
		},
		CreatedAt: time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC),
	}
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresOrderRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	repo, err := NewPostgresOrderRepository(mock)
	require.NoError(t, err)
	return mock, repo
}

func TestSave_WritesOrderAndItemsInTransaction(t *testing.T) {
	mock, repo := newMockRepo(t)
	o := placedOrder()

	mock.ExpectBegin()
	mock.ExpectExec(insertOrderSQL).
		WithArgs(o.ID, o.SessionID, o.UpstreamID, "card", o.Order.Email, o.Order.Phone, o.Order.Address, o.Order.Total, o.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(insertItemSQL).WithArgs(o.ID, "p1", "Widget", 2, 100.0).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(insertItemSQL).WithArgs(o.ID, "p2", "Gadget", 1, 50.0).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_UniqueViolationIsIdempotent(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(insertOrderSQL).WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	require.NoError(t, repo.Save(context.Background(), placedOrder()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_ItemFailureRollsBack(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(insertOrderSQL).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(insertItemSQL).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Save(context.Background(), placedOrder())

	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindBySession(t *testing.T) {
	mock, repo := newMockRepo(t)
	created := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders WHERE session_id = $1")).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE session_id = $1 ORDER BY created_at DESC")).
		WithArgs("s1", 10, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "upstream_id", "payment", "email", "phone", "address", "total", "created_at"}).
			AddRow("o1", "up-1", "cash", "a@b.c", "+71234567890", "Moscow", 250.0, created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items WHERE order_id = ANY($1::uuid[])")).
		WithArgs([]string{"o1"}).
		WillReturnRows(pgxmock.NewRows([]string{"order_id", "product_id", "title", "quantity", "price"}).
			AddRow("o1", "p1", "Widget", 2, 100.0).
			AddRow("o1", "p2", "Gadget", 1, 50.0))
	mock.ExpectCommit()

	page, err := repo.FindBySession(context.Background(), "s1", 10, 0)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.EqualValues(t, 1, page.TotalCount)
	assert.Equal(t, 1, page.CurrentPage)
	require.Len(t, page.Orders, 1)
	o := page.Orders[0]
	assert.Equal(t, domain.PaymentCash, o.Order.Payment)
	assert.Equal(t, []string{"p1", "p1", "p2"}, o.Order.Items)
	assert.Len(t, o.Lines, 2)
	assert.Equal(t, created, o.CreatedAt)
}

func TestFindBySession_EmptyAndDefaults(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").WithArgs("s1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectRollback()

	page, err := repo.FindBySession(context.Background(), "s1", 0, -5)

	require.NoError(t, err)
	assert.Empty(t, page.Orders)
	assert.Equal(t, defaultPageSize, page.ItemsPerPage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID(t *testing.T) {
	mock, repo := newMockRepo(t)
	created := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).
		WithArgs("o1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "session_id", "upstream_id", "payment", "email", "phone", "address", "total", "created_at"}).
			AddRow("o1", "s1", "up-1", "card", "a@b.c", "+71234567890", "Moscow", 250.0, created))

	o, err := repo.FindByID(context.Background(), "o1")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, "up-1", o.UpstreamID)
	assert.Equal(t, "s1", o.SessionID)
	assert.Equal(t, domain.PaymentCard, o.Order.Payment)
	assert.InDelta(t, 250.0, o.Order.Total, 0.0001)
}

func TestFindByID_NotFound(t *testing.T) {
	mock, repo := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplySchema(t *testing.T) {
	mock, repo := newMockRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS orders").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, repo.ApplySchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
