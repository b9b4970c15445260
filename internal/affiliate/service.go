// Package affiliate implements the partner portal: authentication, the
// earnings dashboard, withdrawals and onboarding of approved hires.
package affiliate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/huutix/storefront/internal/db"
	"github.com/huutix/storefront/internal/metrics"
	"github.com/huutix/storefront/internal/rank"
	"github.com/huutix/storefront/internal/repository"
	"github.com/huutix/storefront/internal/storage"
)

// MinWithdrawal is the smallest balance that can be withdrawn.
const MinWithdrawal = 100

var ErrInvalidCredentials = errors.New("invalid username or password")

type Service struct {
	mu       sync.Mutex
	sessions map[string]int64

	database   db.DB
	affiliates storage.AffiliateRepository
	payouts    storage.PayoutRepository
	requests   storage.StaffRequestRepository
	outbox     storage.OutboxTaskRepository
	topic      string
}

func NewService(
	database db.DB,
	affiliates storage.AffiliateRepository,
	payouts storage.PayoutRepository,
	requests storage.StaffRequestRepository,
	outbox storage.OutboxTaskRepository,
	topic string,
) *Service {
	return &Service{
		sessions:   make(map[string]int64),
		database:   database,
		affiliates: affiliates,
		payouts:    payouts,
		requests:   requests,
		outbox:     outbox,
		topic:      topic,
	}
}

// Login checks the password against the stored bcrypt hash and hands out an
// opaque session token. Tokens live in memory and die with the process.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	affiliate, err := s.affiliates.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(affiliate.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = affiliate.ID
	s.mu.Unlock()
	return token, nil
}

// Authenticate maps a session token back to an affiliate id.
func (s *Service) Authenticate(token string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[token]
	return id, ok
}

func (s *Service) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

type Dashboard struct {
	Name       string `json:"name"`
	Username   string `json:"username"`
	CouponCode string `json:"coupon_code"`
	Earnings   int    `json:"earnings"`
	SalesCount int    `json:"sales_count"`
	Rank       string `json:"rank"`
	Commission int    `json:"commission"`
	NextRank   string `json:"next_rank,omitempty"`
	Progress   int    `json:"progress"`
}

func (s *Service) GetDashboard(ctx context.Context, affiliateID int64) (*Dashboard, error) {
	affiliate, err := s.affiliates.GetByID(ctx, affiliateID)
	if err != nil {
		return nil, err
	}

	current := rank.Current(affiliate.SalesCount)
	d := &Dashboard{
		Name:       affiliate.Name,
		Username:   affiliate.Username,
		CouponCode: affiliate.CouponCode,
		Earnings:   affiliate.Earnings,
		SalesCount: affiliate.SalesCount,
		Rank:       current.Name,
		Commission: current.Commission,
		Progress:   rank.Progress(affiliate.SalesCount),
	}
	if next, ok := rank.Next(affiliate.SalesCount); ok {
		d.NextRank = next.Name
	}
	return d, nil
}

// Withdraw drains the affiliate balance into a pending payout. The row is
// locked for the duration of the transaction so concurrent withdrawals
// cannot double-spend; balances below the minimum are rejected. A rejected
// payout does not restore the balance later.
func (s *Service) Withdraw(ctx context.Context, affiliateID int64, method string) (*repository.Payout, error) {
	if method != "Bit" && method != "Paybox" {
		method = "Bit"
	}

	tx, err := s.database.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin withdraw transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	affiliate, err := s.affiliates.GetByIDTx(ctx, tx, affiliateID)
	if err != nil {
		return nil, err
	}

	if affiliate.Earnings < MinWithdrawal {
		return nil, repository.ErrInsufficientBalance
	}

	payout := &repository.Payout{
		AffiliateID: affiliateID,
		Amount:      affiliate.Earnings,
		Method:      method,
		Status:      repository.PayoutStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	payout.ID, err = s.payouts.CreateTx(ctx, tx, payout)
	if err != nil {
		return nil, fmt.Errorf("failed to create payout: %w", err)
	}

	if err := s.affiliates.UpdateBalanceTx(ctx, tx, affiliateID, 0, affiliate.SalesCount); err != nil {
		return nil, fmt.Errorf("failed to zero balance: %w", err)
	}

	payload, err := json.Marshal(repository.PayoutRequestedPayload{
		Event:       repository.EventPayoutRequested,
		AffiliateID: affiliateID,
		Username:    affiliate.Username,
		Amount:      payout.Amount,
		Method:      payout.Method,
		CreatedAt:   payout.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payout event: %w", err)
	}
	if err := s.outbox.CreateTx(ctx, tx, &repository.OutboxTask{Payload: payload, Topic: s.topic}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit withdraw transaction: %w", err)
	}

	metrics.PayoutsRequestedTotal.Inc()
	zap.S().Infow("payout requested", "affiliate_id", affiliateID, "amount", payout.Amount)
	return payout, nil
}

func (s *Service) PayoutHistory(ctx context.Context, affiliateID int64) ([]*repository.Payout, error) {
	return s.payouts.ListByAffiliate(ctx, affiliateID)
}

// Credentials are returned exactly once, at approval time. Only the bcrypt
// hash is stored.
type Credentials struct {
	AffiliateID int64  `json:"affiliate_id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	CouponCode  string `json:"coupon_code"`
}

// ApproveStaffRequest turns a pending hiring request into an affiliate
// account with generated credentials, in one transaction with the status
// flip.
func (s *Service) ApproveStaffRequest(ctx context.Context, requestID int64) (*Credentials, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != repository.RequestStatusPending {
		return nil, fmt.Errorf("staff request %d is already %s", requestID, request.Status)
	}

	creds := generateCredentials(request.Name)
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tx, err := s.database.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin approval transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	affiliate := &repository.Affiliate{
		Username:     creds.Username,
		PasswordHash: string(hash),
		Name:         request.Name,
		Phone:        request.Phone,
		City:         request.City,
		CouponCode:   creds.CouponCode,
		JoinedAt:     time.Now().UTC(),
	}
	creds.AffiliateID, err = s.affiliates.CreateTx(ctx, tx, affiliate)
	if err != nil {
		return nil, fmt.Errorf("failed to create affiliate: %w", err)
	}

	if err := s.requests.UpdateStatusTx(ctx, tx, requestID, repository.RequestStatusApproved); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit approval transaction: %w", err)
	}

	creds.Name = request.Name
	return creds, nil
}

func generateCredentials(name string) *Credentials {
	username := strings.ToLower(strings.ReplaceAll(name, " ", "")) + fmt.Sprintf("%d", 10+rand.Intn(89))

	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	password := make([]byte, 8)
	for i := range password {
		password[i] = chars[rand.Intn(len(chars))]
	}

	firstWord := strings.ToUpper(strings.Fields(name)[0])
	coupon := firstWord + fmt.Sprintf("%d", 100+rand.Intn(899))

	return &Credentials{
		Username:   username,
		Password:   string(password),
		CouponCode: coupon,
	}
}

type Script struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// MarketingScripts returns ready-to-copy promo texts with the affiliate's
// coupon code substituted in. Unknown languages fall back to English.
func MarketingScripts(lang, couponCode string) []Script {
	switch lang {
	case "ar":
		return []Script{
			{
				Title:   "رسالة مباشرة للمؤثرين",
				Content: fmt.Sprintf("مرحباً، لاحظت المحتوى الرائع الذي تقدمه! نحن في Huutix نساعد الحسابات المميزة مثلك على زيادة التفاعل والوصول لقائمة الاستكشاف (Explore) عبر خدمات VIP حقيقية بضمان استقرار. يمكنك استخدام كودي الخاص [%s] للحصول على خصم 15%% فوري! رابط الموقع: huutix.com", couponCode),
			},
			{
				Title:   "نص إعلان ستوري",
				Content: fmt.Sprintf("تريد زيادة متابعينك وتفاعل حسابك بطريقة آمنة؟ 🚀 شركة Huutix Elite تقدم أفضل خدمات تطوير الحسابات في البلاد. استعمل الكود الخاص فيني [%s] واطلب الآن من الرابط في البايو!", couponCode),
			},
			{
				Title:   "رسالة واتساب للشركات",
				Content: fmt.Sprintf("تحية طيبة، بصفتي مستشار نمو رقمي في Huutix، يسعدني تقديم حلول لتعزيز مصداقية شركتكم عبر زيادة المتابعين واللايكات بجودة VIP. خدماتنا مضمونة وتساعد في كسب ثقة الزبائن الجدد. استخدم كود الخصم [%s].", couponCode),
			},
		}
	case "he":
		return []Script{
			{
				Title:   "הודעה ישירה למשפיענים",
				Content: fmt.Sprintf("היי, ראיתי את התוכן המדהים שלך! ב-Huutix אנחנו עוזרים לחשבונות איכותיים להגיע לאקספלור ולהגדיל חשיפה עם שירותי VIP אמיתיים. מוזמן להשתמש בקוד שלי [%s] לקבלת 15%% הנחה מיידית! לינק לאתר: huutix.com", couponCode),
			},
			{
				Title:   "טקסט לסטורי",
				Content: fmt.Sprintf("רוצים להקפיץ את האינסטגרם שלכם? 🚀 שירותי הקידום של Huutix Elite הם הכי אמינים בארץ. השתמשו בקוד שלי [%s] והזמינו עכשיו דרך הלינק בביו!", couponCode),
			},
			{
				Title:   "הודעה לעסקים בוואטסאפ",
				Content: fmt.Sprintf("שלום רב, כיועץ צמיחה דיגיטלית ב-Huutix, אשמח להציע לכם פתרונות להגברת האמינות של העסק דרך עוקבים ולייקים באיכות פרימיום. השירות עוזר בבניית אמון מול לקוחות חדשים. השתמשו בקוד הקופון [%s].", couponCode),
			},
		}
	default:
		return []Script{
			{
				Title:   "Direct Message for Influencers",
				Content: fmt.Sprintf("Hi! Love your content. At Huutix, we help creators like you reach the Explore page and boost engagement with VIP quality services. Use my code [%s] for an instant 15%% discount! Website: huutix.com", couponCode),
			},
			{
				Title:   "Story Ad Script",
				Content: fmt.Sprintf("Want to skyrocket your Instagram growth? 🚀 Huutix Elite offers the most reliable social growth services. Use my code [%s] and order now from the link in bio!", couponCode),
			},
			{
				Title:   "B2B WhatsApp Message",
				Content: fmt.Sprintf("Hello, as a growth consultant at Huutix, I'd love to help boost your business credibility through premium social signals. Our services are guaranteed and build fast trust with new customers. Use code [%s].", couponCode),
			},
		}
	}
}
