package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusCreated    TaskStatus = "CREATED"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusFailed     TaskStatus = "FAILED"
	TaskStatusDone       TaskStatus = "DONE"
)

type OutboxTask struct {
	ID          uuid.UUID       `db:"id"`
	Status      TaskStatus      `db:"status"`
	Payload     json.RawMessage `db:"payload"`
	Topic       string          `db:"topic"`
	Attempts    int             `db:"attempts"`
	LastError   *string         `db:"last_error"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
	CompletedAt *time.Time      `db:"completed_at"`
}

// Event names carried in outbox payloads and consumed by the notifier.
const (
	EventOrderCreated    = "order_created"
	EventPayoutRequested = "payout_requested"
	EventAuditLog        = "audit_log"
)

type OrderCreatedPayload struct {
	Event       string    `json:"event"`
	OrderID     string    `json:"order_id"`
	PackageName string    `json:"package_name"`
	Price       int       `json:"price"`
	Method      string    `json:"method"`
	CouponCode  string    `json:"coupon_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type PayoutRequestedPayload struct {
	Event       string    `json:"event"`
	AffiliateID int64     `json:"affiliate_id"`
	Username    string    `json:"username"`
	Amount      int       `json:"amount"`
	Method      string    `json:"method"`
	CreatedAt   time.Time `json:"created_at"`
}

type AuditLogPayload struct {
	Event         string    `json:"event"`
	Timestamp     time.Time `json:"timestamp"`
	Actor         string    `json:"actor,omitempty"`
	Method        string    `json:"method"`
	Path          string    `json:"path"`
	Handler       string    `json:"handler"`
	StatusCode    int       `json:"status_code"`
	ResponseBytes int       `json:"response_bytes"`
	Action        string    `json:"action"`
	EntityID      string    `json:"entity_id,omitempty"`
	EntityType    string    `json:"entity_type,omitempty"`
}
