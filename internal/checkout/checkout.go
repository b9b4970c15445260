// Package checkout drives the three-step order wizard: customer details,
// payment method, receipt. Sessions live server-side; the browser only
// holds an opaque session id.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/huutix/storefront/internal/db"
	"github.com/huutix/storefront/internal/metrics"
	"github.com/huutix/storefront/internal/pricing"
	"github.com/huutix/storefront/internal/rank"
	"github.com/huutix/storefront/internal/repository"
	"github.com/huutix/storefront/internal/storage"
)

type Step int

const (
	StepDetails Step = iota + 1
	StepPayment
	StepReceipt
)

var (
	ErrSessionNotFound  = errors.New("checkout session not found")
	ErrWrongStep        = errors.New("operation not allowed at this step")
	ErrMissingDetails   = errors.New("link and phone are required")
	ErrInvalidMethod    = errors.New("payment method must be Bit or Paybox")
	ErrMissingReceipt   = errors.New("receipt image is required")
	ErrAlreadySubmitted = errors.New("session already submitted")
)

type Session struct {
	ID          string
	Step        Step
	Lang        string
	PackageName string
	BasePrice   int
	Link        string
	Phone       string
	Discount    *pricing.Discount
	Method      string
	Receipt     string
	Submitted   bool
	CreatedAt   time.Time
}

func (s *Session) FinalPrice() int {
	percent := 0
	if s.Discount != nil {
		percent = s.Discount.Percent
	}
	return pricing.FinalPrice(s.BasePrice, percent)
}

// SettingsProvider yields the current site settings for the WhatsApp number
// and the payment transfer phone.
type SettingsProvider interface {
	Current() repository.SiteSettings
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	database   db.DB
	pricing    *pricing.Service
	orders     storage.OrderRepository
	affiliates storage.AffiliateRepository
	outbox     storage.OutboxTaskRepository
	settings   SettingsProvider
	topic      string
}

func NewManager(
	database db.DB,
	pricingSvc *pricing.Service,
	orders storage.OrderRepository,
	affiliates storage.AffiliateRepository,
	outbox storage.OutboxTaskRepository,
	settings SettingsProvider,
	topic string,
) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		database:   database,
		pricing:    pricingSvc,
		orders:     orders,
		affiliates: affiliates,
		outbox:     outbox,
		settings:   settings,
		topic:      topic,
	}
}

// Start opens a wizard session for one package.
func (m *Manager) Start(packageName string, basePrice int, lang string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	session := &Session{
		ID:          uuid.NewString(),
		Step:        StepDetails,
		Lang:        lang,
		PackageName: packageName,
		BasePrice:   basePrice,
		CreatedAt:   time.Now().UTC(),
	}
	m.sessions[session.ID] = session
	metrics.CheckoutSessionsActive.Inc()
	return session
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *Manager) withSession(id string, fn func(*Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if session.Submitted {
		return ErrAlreadySubmitted
	}
	return fn(session)
}

// SetDetails records the profile link and contact phone. Values are kept
// when the customer navigates backward.
func (m *Manager) SetDetails(id, link, phone string) error {
	return m.withSession(id, func(s *Session) error {
		if s.Step != StepDetails {
			return ErrWrongStep
		}
		s.Link = strings.TrimSpace(link)
		s.Phone = strings.TrimSpace(phone)
		return nil
	})
}

// ApplyCoupon resolves and attaches a discount. Only allowed on the details
// step; re-applying replaces the previous coupon. The database lookup runs
// outside the session lock, and the step is rechecked on attach.
func (m *Manager) ApplyCoupon(ctx context.Context, id, code string) (*pricing.Discount, error) {
	err := m.withSession(id, func(s *Session) error {
		if s.Step != StepDetails {
			return ErrWrongStep
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	discount, err := m.pricing.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	err = m.withSession(id, func(s *Session) error {
		if s.Step != StepDetails {
			return ErrWrongStep
		}
		s.Discount = discount
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.CouponsAppliedTotal.WithLabelValues(string(discount.Source)).Inc()
	return discount, nil
}

func (m *Manager) RemoveCoupon(id string) error {
	return m.withSession(id, func(s *Session) error {
		if s.Step != StepDetails {
			return ErrWrongStep
		}
		s.Discount = nil
		return nil
	})
}

// Next advances the wizard, validating the current step first.
func (m *Manager) Next(id string) error {
	return m.withSession(id, func(s *Session) error {
		switch s.Step {
		case StepDetails:
			if s.Link == "" || s.Phone == "" {
				return ErrMissingDetails
			}
			s.Step = StepPayment
		case StepPayment:
			if s.Method == "" {
				return ErrInvalidMethod
			}
			s.Step = StepReceipt
		default:
			return ErrWrongStep
		}
		return nil
	})
}

// Back moves one step backward, keeping everything entered so far.
func (m *Manager) Back(id string) error {
	return m.withSession(id, func(s *Session) error {
		if s.Step <= StepDetails {
			return ErrWrongStep
		}
		s.Step--
		return nil
	})
}

// SelectMethod picks the payment app. There is no default; the customer has
// to choose one explicitly.
func (m *Manager) SelectMethod(id, method string) error {
	return m.withSession(id, func(s *Session) error {
		if s.Step != StepPayment {
			return ErrWrongStep
		}
		if method != "Bit" && method != "Paybox" {
			return ErrInvalidMethod
		}
		s.Method = method
		return nil
	})
}

// PaymentPhone exposes the transfer target revealed on the payment step.
func (m *Manager) PaymentPhone() string {
	return m.settings.Current().PaymentPhone
}

// AttachReceipt stores the uploaded transfer confirmation as a data URI.
func (m *Manager) AttachReceipt(id, dataURI string) error {
	return m.withSession(id, func(s *Session) error {
		if s.Step != StepReceipt {
			return ErrWrongStep
		}
		if !strings.HasPrefix(dataURI, "data:image/") {
			return ErrMissingReceipt
		}
		s.Receipt = dataURI
		return nil
	})
}

// Submit finalizes the wizard: the order row, the affiliate credit and the
// outbox event are written in one transaction, then the WhatsApp deep link
// is returned. The session is closed on success.
//
// The session is flagged submitted before the lock is dropped, so a second
// submit of the same id fails with ErrAlreadySubmitted instead of writing
// a second order. The flag is cleared again if persisting fails.
func (m *Manager) Submit(ctx context.Context, id string) (string, error) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return "", ErrSessionNotFound
	}
	if session.Submitted {
		m.mu.Unlock()
		return "", ErrAlreadySubmitted
	}
	if session.Step != StepReceipt {
		m.mu.Unlock()
		return "", ErrWrongStep
	}
	if session.Receipt == "" {
		m.mu.Unlock()
		return "", ErrMissingReceipt
	}
	session.Submitted = true
	snapshot := *session
	m.mu.Unlock()

	order, err := m.persistOrder(ctx, &snapshot)
	if err != nil {
		m.mu.Lock()
		if current, ok := m.sessions[id]; ok {
			current.Submitted = false
		}
		m.mu.Unlock()
		metrics.OperationErrorsTotal.WithLabelValues("checkout_submit").Inc()
		return "", err
	}

	m.mu.Lock()
	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		metrics.CheckoutSessionsActive.Dec()
	}
	m.mu.Unlock()

	metrics.OrdersCreatedTotal.Inc()
	zap.S().Infow("order submitted", "order_id", order.ID, "price", order.Price, "method", order.Method)

	settings := m.settings.Current()
	return WhatsAppLink(settings.Whatsapp, &snapshot), nil
}

func (m *Manager) persistOrder(ctx context.Context, s *Session) (*repository.Order, error) {
	now := time.Now().UTC()
	order := &repository.Order{
		ID:          uuid.NewString(),
		PackageName: s.PackageName,
		Price:       s.FinalPrice(),
		Link:        s.Link,
		Phone:       s.Phone,
		Method:      s.Method,
		Status:      repository.OrderStatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if s.Receipt != "" {
		receipt := s.Receipt
		order.ReceiptImage = &receipt
	}
	if s.Discount != nil {
		code := s.Discount.Code
		order.CouponCode = &code
	}

	tx, err := m.database.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin checkout transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := m.orders.CreateTx(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	if s.Discount != nil && s.Discount.Source == pricing.SourceAffiliate {
		if err := m.creditAffiliate(ctx, tx, s.Discount.AffiliateID, order.Price); err != nil {
			return nil, err
		}
	}

	payload, err := json.Marshal(repository.OrderCreatedPayload{
		Event:       repository.EventOrderCreated,
		OrderID:     order.ID,
		PackageName: order.PackageName,
		Price:       order.Price,
		Method:      order.Method,
		CouponCode:  derefOrEmpty(order.CouponCode),
		CreatedAt:   order.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order event: %w", err)
	}
	task := &repository.OutboxTask{Payload: payload, Topic: m.topic}
	if err := m.outbox.CreateTx(ctx, tx, task); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit checkout transaction: %w", err)
	}
	return order, nil
}

// creditAffiliate locks the affiliate row and bumps the counters. The
// customer-facing discount is a flat percentage; the commission credited
// here follows the affiliate's rank tier instead.
func (m *Manager) creditAffiliate(ctx context.Context, tx db.Tx, affiliateID int64, orderPrice int) error {
	affiliate, err := m.affiliates.GetByIDTx(ctx, tx, affiliateID)
	if err != nil {
		return fmt.Errorf("failed to lock affiliate %d: %w", affiliateID, err)
	}

	tier := rank.Current(affiliate.SalesCount)
	commission := int(math.Floor(float64(orderPrice)*float64(tier.Commission)/100 + 0.5))
	err = m.affiliates.UpdateBalanceTx(ctx, tx, affiliateID, affiliate.Earnings+commission, affiliate.SalesCount+1)
	if err != nil {
		return fmt.Errorf("failed to credit affiliate %d: %w", affiliateID, err)
	}
	return nil
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
