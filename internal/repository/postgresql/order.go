package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	"github.com/huutix/storefront/internal/db"
	"github.com/huutix/storefront/internal/repository"
	"github.com/huutix/storefront/internal/storage"
)

type OrderRepo struct {
	db db.DB
}

func NewOrderRepo(db db.DB) storage.OrderRepository {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) Create(ctx context.Context, order *repository.Order) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO orders (
            id, package_name, price, link, phone, method, receipt_image, coupon_code, status, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, order.ID, order.PackageName, order.Price, order.Link, order.Phone, order.Method, order.ReceiptImage, order.CouponCode, order.Status, order.CreatedAt, order.UpdatedAt)
	return err
}

func (r *OrderRepo) CreateTx(ctx context.Context, tx db.Tx, order *repository.Order) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO orders (
            id, package_name, price, link, phone, method, receipt_image, coupon_code, status, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, order.ID, order.PackageName, order.Price, order.Link, order.Phone, order.Method, order.ReceiptImage, order.CouponCode, order.Status, order.CreatedAt, order.UpdatedAt)
	return err
}

func (r *OrderRepo) GetByID(ctx context.Context, id string) (*repository.Order, error) {
	var order repository.Order
	err := r.db.Get(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) List(ctx context.Context, method string, limit int) ([]*repository.Order, error) {
	query := "SELECT * FROM orders"
	args := []interface{}{}

	if method != "" {
		query += " WHERE method = $1"
		args = append(args, method)
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, limit)
	}

	var orders []*repository.Order
	err := r.db.Select(ctx, &orders, query, args...)
	return orders, err
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE orders
        SET status = $1, updated_at = now()
        WHERE id = $2
    `, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, "DELETE FROM orders WHERE id = $1", id)
	return err
}

func (r *OrderRepo) Stats(ctx context.Context) (int, int, error) {
	var count, revenue int
	err := r.db.ExecQueryRow(ctx, "SELECT COUNT(*), COALESCE(SUM(price), 0) FROM orders").Scan(&count, &revenue)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get order stats: %w", err)
	}
	return count, revenue, nil
}
