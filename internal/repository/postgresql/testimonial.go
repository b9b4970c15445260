package postgresql

import (
	"context"

	"github.com/huutix/storefront/internal/db"
	"github.com/huutix/storefront/internal/repository"
	"github.com/huutix/storefront/internal/storage"
)

type TestimonialRepo struct {
	db db.DB
}

func NewTestimonialRepo(db db.DB) storage.TestimonialRepository {
	return &TestimonialRepo{db: db}
}

func (r *TestimonialRepo) Create(ctx context.Context, testimonial *repository.Testimonial) (int64, error) {
	var id int64
	err := r.db.Get(ctx, &id, `
        INSERT INTO testimonials (name, handle, content, rating, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `, testimonial.Name, testimonial.Handle, testimonial.Content, testimonial.Rating, testimonial.Status, testimonial.CreatedAt)
	return id, err
}

func (r *TestimonialRepo) List(ctx context.Context, status string) ([]*repository.Testimonial, error) {
	query := "SELECT * FROM testimonials"
	args := []interface{}{}

	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}

	query += " ORDER BY created_at DESC"

	var testimonials []*repository.Testimonial
	err := r.db.Select(ctx, &testimonials, query, args...)
	return testimonials, err
}

func (r *TestimonialRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, "UPDATE testimonials SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *TestimonialRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM testimonials WHERE id = $1", id)
	return err
}
