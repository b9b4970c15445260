package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	"github.com/huutix/storefront/internal/db"
	"github.com/huutix/storefront/internal/repository"
	"github.com/huutix/storefront/internal/storage"
)

type StaffRequestRepo struct {
	db db.DB
}

func NewStaffRequestRepo(db db.DB) storage.StaffRequestRepository {
	return &StaffRequestRepo{db: db}
}

func (r *StaffRequestRepo) Create(ctx context.Context, req *repository.StaffRequest) (int64, error) {
	var id int64
	err := r.db.Get(ctx, &id, `
        INSERT INTO staff_requests (name, age, phone, email, city, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `, req.Name, req.Age, req.Phone, req.Email, req.City, req.Status, req.CreatedAt)
	return id, err
}

func (r *StaffRequestRepo) GetByID(ctx context.Context, id int64) (*repository.StaffRequest, error) {
	var req repository.StaffRequest
	err := r.db.Get(ctx, &req, "SELECT * FROM staff_requests WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *StaffRequestRepo) List(ctx context.Context, status string) ([]*repository.StaffRequest, error) {
	query := "SELECT * FROM staff_requests"
	args := []interface{}{}

	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}

	query += " ORDER BY created_at DESC"

	var requests []*repository.StaffRequest
	err := r.db.Select(ctx, &requests, query, args...)
	return requests, err
}

func (r *StaffRequestRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, "UPDATE staff_requests SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *StaffRequestRepo) UpdateStatusTx(ctx context.Context, tx db.Tx, id int64, status string) error {
	tag, err := tx.Exec(ctx, "UPDATE staff_requests SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}
