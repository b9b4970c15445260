package postgresql

import (
	"context"

	"github.com/huutix/storefront/internal/db"
	"github.com/huutix/storefront/internal/repository"
	"github.com/huutix/storefront/internal/storage"
)

type PayoutRepo struct {
	db db.DB
}

func NewPayoutRepo(db db.DB) storage.PayoutRepository {
	return &PayoutRepo{db: db}
}

func (r *PayoutRepo) CreateTx(ctx context.Context, tx db.Tx, payout *repository.Payout) (int64, error) {
	var id int64
	err := tx.Get(ctx, &id, `
        INSERT INTO payouts (affiliate_id, amount, method, status, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `, payout.AffiliateID, payout.Amount, payout.Method, payout.Status, payout.CreatedAt)
	return id, err
}

func (r *PayoutRepo) List(ctx context.Context) ([]*repository.Payout, error) {
	var payouts []*repository.Payout
	err := r.db.Select(ctx, &payouts, "SELECT * FROM payouts ORDER BY created_at DESC")
	return payouts, err
}

func (r *PayoutRepo) ListByAffiliate(ctx context.Context, affiliateID int64) ([]*repository.Payout, error) {
	var payouts []*repository.Payout
	err := r.db.Select(ctx, &payouts, "SELECT * FROM payouts WHERE affiliate_id = $1 ORDER BY created_at DESC", affiliateID)
	return payouts, err
}

func (r *PayoutRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, "UPDATE payouts SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *PayoutRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM payouts WHERE id = $1", id)
	return err
}

func (r *PayoutRepo) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.ExecQueryRow(ctx, "SELECT COUNT(*) FROM payouts WHERE status = $1", repository.PayoutStatusPending).Scan(&count)
	return count, err
}
