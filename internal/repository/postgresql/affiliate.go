package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	"github.com/huutix/storefront/internal/db"
	"github.com/huutix/storefront/internal/repository"
	"github.com/huutix/storefront/internal/storage"
)

type AffiliateRepo struct {
	db db.DB
}

func NewAffiliateRepo(db db.DB) storage.AffiliateRepository {
	return &AffiliateRepo{db: db}
}

func (r *AffiliateRepo) CreateTx(ctx context.Context, tx db.Tx, affiliate *repository.Affiliate) (int64, error) {
	var id int64
	err := tx.Get(ctx, &id, `
        INSERT INTO affiliates (username, password_hash, name, phone, city, coupon_code, earnings, sales_count, joined_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `, affiliate.Username, affiliate.PasswordHash, affiliate.Name, affiliate.Phone, affiliate.City, affiliate.CouponCode, affiliate.Earnings, affiliate.SalesCount, affiliate.JoinedAt)
	return id, err
}

func (r *AffiliateRepo) GetByID(ctx context.Context, id int64) (*repository.Affiliate, error) {
	var affiliate repository.Affiliate
	err := r.db.Get(ctx, &affiliate, "SELECT * FROM affiliates WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &affiliate, nil
}

func (r *AffiliateRepo) GetByIDTx(ctx context.Context, tx db.Tx, id int64) (*repository.Affiliate, error) {
	var affiliate repository.Affiliate
	err := tx.Get(ctx, &affiliate, "SELECT * FROM affiliates WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &affiliate, nil
}

func (r *AffiliateRepo) GetByUsername(ctx context.Context, username string) (*repository.Affiliate, error) {
	var affiliate repository.Affiliate
	err := r.db.Get(ctx, &affiliate, "SELECT * FROM affiliates WHERE username = $1", username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &affiliate, nil
}

func (r *AffiliateRepo) GetByCouponCode(ctx context.Context, code string) (*repository.Affiliate, error) {
	var affiliate repository.Affiliate
	err := r.db.Get(ctx, &affiliate, "SELECT * FROM affiliates WHERE coupon_code = $1", code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &affiliate, nil
}

func (r *AffiliateRepo) UpdateBalanceTx(ctx context.Context, tx db.Tx, id int64, earnings, salesCount int) error {
	tag, err := tx.Exec(ctx, `
        UPDATE affiliates
        SET earnings = $1, sales_count = $2
        WHERE id = $3
    `, earnings, salesCount, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *AffiliateRepo) List(ctx context.Context) ([]*repository.Affiliate, error) {
	var affiliates []*repository.Affiliate
	err := r.db.Select(ctx, &affiliates, "SELECT * FROM affiliates ORDER BY joined_at DESC")
	return affiliates, err
}

func (r *AffiliateRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM affiliates WHERE id = $1", id)
	return err
}

func (r *AffiliateRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.ExecQueryRow(ctx, "SELECT COUNT(*) FROM affiliates").Scan(&count)
	return count, err
}
