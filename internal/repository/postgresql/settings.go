package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	"github.com/huutix/storefront/internal/db"
	"github.com/huutix/storefront/internal/repository"
	"github.com/huutix/storefront/internal/storage"
)

type SettingsRepo struct {
	db db.DB
}

func NewSettingsRepo(db db.DB) storage.SettingsRepository {
	return &SettingsRepo{db: db}
}

// The settings table holds exactly one row, seeded by migration.
func (r *SettingsRepo) Get(ctx context.Context) (*repository.SiteSettings, error) {
	var settings repository.SiteSettings
	err := r.db.Get(ctx, &settings, "SELECT * FROM site_settings WHERE id = 1")
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &settings, nil
}

func (r *SettingsRepo) Update(ctx context.Context, settings *repository.SiteSettings) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE site_settings
        SET whatsapp = $1, payment_phone = $2, gmail = $3, instagram = $4, telegram = $5, updated_at = now()
        WHERE id = 1
    `, settings.Whatsapp, settings.PaymentPhone, settings.Gmail, settings.Instagram, settings.Telegram)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}
