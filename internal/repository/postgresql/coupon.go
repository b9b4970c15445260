package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	"github.com/huutix/storefront/internal/db"
	"github.com/huutix/storefront/internal/repository"
	"github.com/huutix/storefront/internal/storage"
)

type CouponRepo struct {
	db db.DB
}

func NewCouponRepo(db db.DB) storage.CouponRepository {
	return &CouponRepo{db: db}
}

func (r *CouponRepo) Create(ctx context.Context, coupon *repository.Coupon) (int64, error) {
	var id int64
	err := r.db.Get(ctx, &id, `
        INSERT INTO coupons (code, discount, is_active)
        VALUES ($1, $2, $3)
        RETURNING id
    `, coupon.Code, coupon.Discount, coupon.IsActive)
	return id, err
}

func (r *CouponRepo) GetActiveByCode(ctx context.Context, code string) (*repository.Coupon, error) {
	var coupon repository.Coupon
	err := r.db.Get(ctx, &coupon, "SELECT * FROM coupons WHERE code = $1 AND is_active", code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

func (r *CouponRepo) List(ctx context.Context) ([]*repository.Coupon, error) {
	var coupons []*repository.Coupon
	err := r.db.Select(ctx, &coupons, "SELECT * FROM coupons ORDER BY id")
	return coupons, err
}

func (r *CouponRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM coupons WHERE id = $1", id)
	return err
}
