package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	"github.com/huutix/storefront/internal/db"
	"github.com/huutix/storefront/internal/repository"
	"github.com/huutix/storefront/internal/storage"
)

type FlashCodeRepo struct {
	db db.DB
}

func NewFlashCodeRepo(db db.DB) storage.FlashCodeRepository {
	return &FlashCodeRepo{db: db}
}

func (r *FlashCodeRepo) Create(ctx context.Context, code *repository.FlashCode) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO flash_codes (code, discount, created_at)
        VALUES ($1, $2, $3)
    `, code.Code, code.Discount, code.CreatedAt)
	return err
}

func (r *FlashCodeRepo) GetByCode(ctx context.Context, code string) (*repository.FlashCode, error) {
	var flash repository.FlashCode
	err := r.db.Get(ctx, &flash, "SELECT * FROM flash_codes WHERE code = $1", code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &flash, nil
}
