package repository

import (
	"errors"
	"time"
)

var (
	ErrObjectNotFound      = errors.New("not found")
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

const (
	OrderStatusNew       = "new"
	OrderStatusCompleted = "completed"

	PayoutStatusPending   = "pending"
	PayoutStatusCompleted = "completed"
	PayoutStatusRejected  = "rejected"

	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"

	TestimonialStatusPending  = "pending"
	TestimonialStatusApproved = "approved"
	TestimonialStatusRejected = "rejected"
)

type Order struct {
	ID           string    `db:"id" json:"id"`
	PackageName  string    `db:"package_name" json:"package_name"`
	Price        int       `db:"price" json:"price"`
	Link         string    `db:"link" json:"link"`
	Phone        string    `db:"phone" json:"phone"`
	Method       string    `db:"method" json:"method"`
	ReceiptImage *string   `db:"receipt_image" json:"receipt_image,omitempty"`
	CouponCode   *string   `db:"coupon_code" json:"coupon_code,omitempty"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type Affiliate struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Phone        string    `db:"phone" json:"phone"`
	City         string    `db:"city" json:"city"`
	CouponCode   string    `db:"coupon_code" json:"coupon_code"`
	Earnings     int       `db:"earnings" json:"earnings"`
	SalesCount   int       `db:"sales_count" json:"sales_count"`
	JoinedAt     time.Time `db:"joined_at" json:"joined_at"`
}

type StaffRequest struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Age       int       `db:"age" json:"age"`
	Phone     string    `db:"phone" json:"phone"`
	Email     string    `db:"email" json:"email"`
	City      string    `db:"city" json:"city"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Payout struct {
	ID          int64     `db:"id" json:"id"`
	AffiliateID int64     `db:"affiliate_id" json:"affiliate_id"`
	Amount      int       `db:"amount" json:"amount"`
	Method      string    `db:"method" json:"method"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Coupon struct {
	ID       int64  `db:"id" json:"id"`
	Code     string `db:"code" json:"code"`
	Discount int    `db:"discount" json:"discount"`
	IsActive bool   `db:"is_active" json:"is_active"`
}

type FlashCode struct {
	Code      string    `db:"code" json:"code"`
	Discount  int       `db:"discount" json:"discount"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Testimonial struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Handle    string    `db:"handle" json:"handle"`
	Content   string    `db:"content" json:"content"`
	Rating    int       `db:"rating" json:"rating"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type SiteSettings struct {
	ID           int16     `db:"id" json:"-"`
	Whatsapp     string    `db:"whatsapp" json:"whatsapp"`
	PaymentPhone string    `db:"payment_phone" json:"payment_phone"`
	Gmail        string    `db:"gmail" json:"gmail"`
	Instagram    string    `db:"instagram" json:"instagram"`
	Telegram     string    `db:"telegram" json:"telegram"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
