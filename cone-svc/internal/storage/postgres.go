package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blockandjerrys/cone-svc/internal/domain"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	DB *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO orders (name, address, phone, email, invoice, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING id, created_at
	`, order.Name, order.Address, order.Phone, order.Email, order.Invoice, order.Status).
		Scan(&order.ID, &order.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("insert order %q: %w", order.Invoice, domain.ErrDuplicateInvoice)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, quantity)
			VALUES ($1, $2, $3)
		`, order.ID, item.MenuItemID, item.Quantity); err != nil {
			return fmt.Errorf("insert order item %d: %w", item.MenuItemID, err)
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) FindOrderByInvoice(ctx context.Context, invoice string) (*domain.Order, error) {
	order, err := r.scanOrder(r.DB.QueryRowContext(ctx, `
		SELECT id, name, address, phone, COALESCE(email, ''), invoice, status, created_at
		FROM orders WHERE invoice = $1
	`, invoice))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invoice %q: %w", invoice, domain.ErrOrderNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT order_id, menu_item_id, quantity
		FROM order_items WHERE order_id = $1
		ORDER BY menu_item_id
	`, order.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.OrderID, &item.MenuItemID, &item.Quantity); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	return order, rows.Err()
}

func (r *PostgresRepository) FindLatestOrderByPhone(ctx context.Context, phone string) (*domain.Order, error) {
	order, err := r.scanOrder(r.DB.QueryRowContext(ctx, `
		SELECT id, name, address, phone, COALESCE(email, ''), invoice, status, created_at
		FROM orders WHERE phone = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, phone))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("phone %q: %w", phone, domain.ErrOrderNotFound)
	}
	return order, err
}

func (r *PostgresRepository) UpdateOrderEmail(ctx context.Context, orderID int, email string) error {
	result, err := r.DB.ExecContext(ctx, "UPDATE orders SET email = $1 WHERE id = $2", email, orderID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %d: %w", orderID, domain.ErrOrderNotFound)
	}
	return nil
}

// UpdateOrderStatus only touches the row while it still holds the from status,
// so concurrent or replayed transitions report false.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, orderID int, from, to domain.OrderStatus) (bool, error) {
	result, err := r.DB.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2 AND status = $3",
		to, orderID, from)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresRepository) SumPaidQuantities(ctx context.Context) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(oi.quantity), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = $1
	`, domain.StatusPaid).Scan(&total)
	return total, err
}

// LoadSettleIndex returns the stored settlement high-water mark, zero when unset.
func (r *PostgresRepository) LoadSettleIndex(ctx context.Context) (uint64, error) {
	var index int64
	err := r.DB.QueryRowContext(ctx, `SELECT settle_index FROM settlement_cursor WHERE id = 1`).Scan(&index)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load settle index: %w", err)
	}
	return uint64(index), nil
}

// SaveSettleIndex raises the high-water mark; it never moves backwards.
func (r *PostgresRepository) SaveSettleIndex(ctx context.Context, index uint64) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO settlement_cursor (id, settle_index, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE
		SET settle_index = GREATEST(settlement_cursor.settle_index, EXCLUDED.settle_index),
		    updated_at = NOW()
	`, int64(index))
	if err != nil {
		return fmt.Errorf("save settle index %d: %w", index, err)
	}
	return nil
}

func (r *PostgresRepository) ListMenu(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, flavor, price FROM menu_items ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var menu []domain.MenuItem
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(&item.ID, &item.Flavor, &item.Price); err != nil {
			return nil, err
		}
		menu = append(menu, item)
	}
	return menu, rows.Err()
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

func (r *PostgresRepository) scanOrder(row *sql.Row) (*domain.Order, error) {
	var order domain.Order
	if err := row.Scan(&order.ID, &order.Name, &order.Address, &order.Phone, &order.Email,
		&order.Invoice, &order.Status, &order.CreatedAt); err != nil {
		return nil, err
	}
	return &order, nil
}
