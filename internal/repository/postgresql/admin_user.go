package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/huutix/storefront/internal/db"
	"github.com/huutix/storefront/internal/repository"
	"github.com/huutix/storefront/internal/storage"
)

type AdminUserRepo struct {
	db db.DB
}

func NewAdminUserRepo(db db.DB) storage.AdminUserRepository {
	return &AdminUserRepo{db: db}
}

func (r *AdminUserRepo) Create(ctx context.Context, username, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		"INSERT INTO admin_users (username, password_hash) VALUES ($1, $2)",
		username, string(hashedPassword))
	return err
}

func (r *AdminUserRepo) Validate(ctx context.Context, username, password string) (bool, error) {
	var hashedPassword string
	err := r.db.ExecQueryRow(ctx,
		"SELECT password_hash FROM admin_users WHERE username = $1", username).Scan(&hashedPassword)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, repository.ErrObjectNotFound
		}
		return false, err
	}

	if bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) != nil {
		return false, nil
	}
	return true, nil
}
