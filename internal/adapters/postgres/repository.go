package postgres_adapter

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"web-larek/internal/contextkeys"
	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var schemaSQL string

const defaultPageSize = 20

// dbPool - то, чем репозиторий пользуется из *pgxpool.Pool (и pgxmock в тестах).
type dbPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresOrderRepository - реализация порта хранения заказов для PostgreSQL.
type PostgresOrderRepository struct {
	pool dbPool
}

var _ port.OrderRepositoryPort = (*PostgresOrderRepository)(nil)

func NewPostgresOrderRepository(pool dbPool) (*PostgresOrderRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres pool cannot be nil")
	}
	return &PostgresOrderRepository{pool: pool}, nil
}

// ApplySchema создает таблицы, если их еще нет.
func (r *PostgresOrderRepository) ApplySchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Save пишет заказ и его позиции в одной транзакции.
// Повторная запись того же заказа (unique violation) считается успехом.
func (r *PostgresOrderRepository) Save(ctx context.Context, order *domain.PlacedOrder) error {
	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "PostgresOrderRepository",
		"method":      "Save",
		"order_id":    order.ID,
		"upstream_id": order.UpstreamID,
	})

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		repoLogger.Error("Failed to begin transaction", err, nil)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderQuery := `INSERT INTO orders (id, session_id, upstream_id, payment, email, phone, address, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = tx.Exec(ctx, orderQuery,
		order.ID, order.SessionID, order.UpstreamID, string(order.Order.Payment),
		order.Order.Email, order.Order.Phone, order.Order.Address, order.Order.Total, order.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			repoLogger.Warn("Order already stored, operation considered successful.", nil)
			return nil
		}
		repoLogger.Error("Failed to insert order", err, nil)
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `INSERT INTO order_items (order_id, product_id, title, quantity, price) VALUES ($1, $2, $3, $4, $5)`
	for _, line := range order.Lines {
		if _, err := tx.Exec(ctx, itemQuery, order.ID, line.ProductID, line.Title, line.Quantity, line.Price); err != nil {
			repoLogger.Error("Failed to insert order item", err, port.Fields{"product_id": line.ProductID})
			return fmt.Errorf("failed to insert order item %s: %w", line.ProductID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		repoLogger.Error("Failed to commit transaction", err, nil)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	repoLogger.Debug("Order stored.", port.Fields{"lines": len(order.Lines)})
	return nil
}

// FindByID читает заголовок заказа без позиций.
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id string) (*domain.PlacedOrder, error) {
	query := `SELECT id::text, session_id, upstream_id, payment, email, phone, address, total::float8, created_at
		FROM orders WHERE id = $1`

	o := &domain.PlacedOrder{}
	var payment string
	err := r.pool.QueryRow(ctx, query, id).Scan(&o.ID, &o.SessionID, &o.UpstreamID, &payment,
		&o.Order.Email, &o.Order.Phone, &o.Order.Address, &o.Order.Total, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order %s: %w", id, err)
	}
	o.Order.Payment = domain.PaymentMethod(payment)
	return o, nil
}

// FindBySession возвращает заказы сессии, новые первыми.
func (r *PostgresOrderRepository) FindBySession(ctx context.Context, sessionID string, limit, offset int) (*domain.PaginatedOrders, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":  "PostgresOrderRepository",
		"method":     "FindBySession",
		"session_id": sessionID,
		"limit":      limit,
		"offset":     offset,
	})

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		repoLogger.Error("Failed to begin transaction", err, nil)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result := &domain.PaginatedOrders{
		Orders:       []domain.PlacedOrder{},
		CurrentPage:  offset/limit + 1,
		ItemsPerPage: limit,
	}

	countQuery := "SELECT COUNT(*) FROM orders WHERE session_id = $1"
	if err := tx.QueryRow(ctx, countQuery, sessionID).Scan(&result.TotalCount); err != nil {
		repoLogger.Error("Failed to count orders", err, nil)
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if result.TotalCount == 0 {
		return result, nil
	}

	dataQuery := `SELECT id::text, upstream_id, payment, email, phone, address, total::float8, created_at
		FROM orders WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := tx.Query(ctx, dataQuery, sessionID, limit, offset)
	if err != nil {
		repoLogger.Error("Failed to query orders", err, nil)
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	index := make(map[string]int)
	ids := make([]string, 0, limit)
	for rows.Next() {
		o := domain.PlacedOrder{SessionID: sessionID}
		var payment string
		if err := rows.Scan(&o.ID, &o.UpstreamID, &payment, &o.Order.Email, &o.Order.Phone,
			&o.Order.Address, &o.Order.Total, &o.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Order.Payment = domain.PaymentMethod(payment)
		o.Order.Items = []string{}
		o.Lines = []domain.OrderLine{}
		index[o.ID] = len(result.Orders)
		ids = append(ids, o.ID)
		result.Orders = append(result.Orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during orders iteration: %w", err)
	}

	if len(ids) > 0 {
		if err := r.attachLines(ctx, tx, ids, index, result.Orders); err != nil {
			repoLogger.Error("Failed to load order items", err, nil)
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		repoLogger.Error("Failed to commit transaction", err, nil)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

func (r *PostgresOrderRepository) attachLines(ctx context.Context, tx pgx.Tx, ids []string, index map[string]int, orders []domain.PlacedOrder) error {
	itemsQuery := `SELECT order_id::text, product_id, title, quantity, price::float8
		FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY order_id, product_id`
	rows, err := tx.Query(ctx, itemsQuery, ids)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var line domain.OrderLine
		if err := rows.Scan(&orderID, &line.ProductID, &line.Title, &line.Quantity, &line.Price); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		i, ok := index[orderID]
		if !ok {
			continue
		}
		orders[i].Lines = append(orders[i].Lines, line)
		for n := 0; n < line.Quantity; n++ {
			orders[i].Order.Items = append(orders[i].Order.Items, line.ProductID)
		}
	}
	return rows.Err()
}
