package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/huutix/storefront/internal/db"
	"github.com/huutix/storefront/internal/repository"
)

type OrderRepository interface {
	Create(ctx context.Context, order *repository.Order) error
	CreateTx(ctx context.Context, tx db.Tx, order *repository.Order) error
	GetByID(ctx context.Context, id string) (*repository.Order, error)
	List(ctx context.Context, method string, limit int) ([]*repository.Order, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (count int, revenue int, err error)
}

type AffiliateRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, affiliate *repository.Affiliate) (int64, error)
	GetByID(ctx context.Context, id int64) (*repository.Affiliate, error)
	GetByIDTx(ctx context.Context, tx db.Tx, id int64) (*repository.Affiliate, error)
	GetByUsername(ctx context.Context, username string) (*repository.Affiliate, error)
	GetByCouponCode(ctx context.Context, code string) (*repository.Affiliate, error)
	UpdateBalanceTx(ctx context.Context, tx db.Tx, id int64, earnings, salesCount int) error
	List(ctx context.Context) ([]*repository.Affiliate, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type StaffRequestRepository interface {
	Create(ctx context.Context, req *repository.StaffRequest) (int64, error)
	GetByID(ctx context.Context, id int64) (*repository.StaffRequest, error)
	List(ctx context.Context, status string) ([]*repository.StaffRequest, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	UpdateStatusTx(ctx context.Context, tx db.Tx, id int64, status string) error
}

type PayoutRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, payout *repository.Payout) (int64, error)
	List(ctx context.Context) ([]*repository.Payout, error)
	ListByAffiliate(ctx context.Context, affiliateID int64) ([]*repository.Payout, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
	CountPending(ctx context.Context) (int, error)
}

type CouponRepository interface {
	Create(ctx context.Context, coupon *repository.Coupon) (int64, error)
	GetActiveByCode(ctx context.Context, code string) (*repository.Coupon, error)
	List(ctx context.Context) ([]*repository.Coupon, error)
	Delete(ctx context.Context, id int64) error
}

type FlashCodeRepository interface {
	Create(ctx context.Context, code *repository.FlashCode) error
	GetByCode(ctx context.Context, code string) (*repository.FlashCode, error)
}

type TestimonialRepository interface {
	Create(ctx context.Context, testimonial *repository.Testimonial) (int64, error)
	List(ctx context.Context, status string) ([]*repository.Testimonial, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

type SettingsRepository interface {
	Get(ctx context.Context) (*repository.SiteSettings, error)
	Update(ctx context.Context, settings *repository.SiteSettings) error
}

type AdminUserRepository interface {
	Create(ctx context.Context, username, password string) error
	Validate(ctx context.Context, username, password string) (bool, error)
}

type OutboxTaskRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, task *repository.OutboxTask) error
	GetProcessableTasks(ctx context.Context, tx db.Tx, limit int) ([]*repository.OutboxTask, error)
	UpdateTaskStatusTx(ctx context.Context, tx db.Tx, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error
	UpdateTaskStatus(ctx context.Context, db db.DB, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error
}
