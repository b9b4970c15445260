package checkout_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/huutix/storefront/internal/checkout"
	"github.com/huutix/storefront/internal/db"
	mock_database "github.com/huutix/storefront/internal/db/mocks"
	"github.com/huutix/storefront/internal/pricing"
	"github.com/huutix/storefront/internal/repository"
	"github.com/huutix/storefront/internal/repository/postgresql"
)

type fixedSettings struct {
	settings repository.SiteSettings
}

func (f fixedSettings) Current() repository.SiteSettings {
	return f.settings
}

func newManager(mockDB *mock_database.MockDB) *checkout.Manager {
	pricingSvc := pricing.NewService(
		postgresql.NewAffiliateRepo(mockDB),
		postgresql.NewCouponRepo(mockDB),
		postgresql.NewFlashCodeRepo(mockDB),
	)
	return checkout.NewManager(
		mockDB,
		pricingSvc,
		postgresql.NewOrderRepo(mockDB),
		postgresql.NewAffiliateRepo(mockDB),
		postgresql.NewOutboxTaskRepo(),
		fixedSettings{settings: repository.SiteSettings{
			Whatsapp:     "972522426476",
			PaymentPhone: "0546980606",
		}},
		"storefront_events",
	)
}

func TestWizard_HappyPath(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := mock_database.NewMockDB(ctrl)
	mockTx := mock_database.NewMockTx(ctrl)
	m := newManager(mockDB)

	session := m.Start("1000 Followers", 120, "he")
	require.Equal(t, checkout.StepDetails, session.Step)

	require.NoError(t, m.SetDetails(session.ID, "https://instagram.com/someone", "0541234567"))
	require.NoError(t, m.Next(session.ID))

	require.NoError(t, m.SelectMethod(session.ID, "Bit"))
	assert.Equal(t, "0546980606", m.PaymentPhone())
	require.NoError(t, m.Next(session.ID))

	require.NoError(t, m.AttachReceipt(session.ID, "data:image/png;base64,AAAA"))

	mockDB.EXPECT().BeginTx(gomock.Any()).Return(mockTx, nil)
	mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("1000 Followers"), gomock.Eq(120),
		gomock.Any(), gomock.Any(), gomock.Eq("Bit"), gomock.Any(), gomock.Any(), gomock.Eq(repository.OrderStatusNew), gomock.Any(), gomock.Any()).
		Return(nil, nil)
	mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil) // outbox insert
	mockTx.EXPECT().Commit(gomock.Any()).Return(nil)
	mockTx.EXPECT().Rollback(gomock.Any()).Return(pgx.ErrTxClosed).AnyTimes()

	link, err := m.Submit(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://wa.me/972522426476?text="))
	assert.Contains(t, link, "120")

	// session is gone after submit
	_, err = m.Get(session.ID)
	assert.ErrorIs(t, err, checkout.ErrSessionNotFound)
}

func TestWizard_StepGating(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := mock_database.NewMockDB(ctrl)
	m := newManager(mockDB)

	t.Run("details required to advance", func(t *testing.T) {
		s := m.Start("500 Likes", 28, "en")
		assert.ErrorIs(t, m.Next(s.ID), checkout.ErrMissingDetails)

		require.NoError(t, m.SetDetails(s.ID, "https://instagram.com/x", ""))
		assert.ErrorIs(t, m.Next(s.ID), checkout.ErrMissingDetails)
	})

	t.Run("method must be chosen before receipt step", func(t *testing.T) {
		s := m.Start("500 Likes", 28, "en")
		require.NoError(t, m.SetDetails(s.ID, "https://instagram.com/x", "0541111111"))
		require.NoError(t, m.Next(s.ID))

		assert.ErrorIs(t, m.Next(s.ID), checkout.ErrInvalidMethod)
		assert.ErrorIs(t, m.SelectMethod(s.ID, "PayPal"), checkout.ErrInvalidMethod)
	})

	t.Run("coupon only on details step", func(t *testing.T) {
		s := m.Start("500 Likes", 28, "en")
		require.NoError(t, m.SetDetails(s.ID, "https://instagram.com/x", "0541111111"))
		require.NoError(t, m.Next(s.ID))

		_, err := m.ApplyCoupon(ctx, s.ID, "DANA15")
		assert.ErrorIs(t, err, checkout.ErrWrongStep)
		assert.ErrorIs(t, m.RemoveCoupon(s.ID), checkout.ErrWrongStep)
	})

	t.Run("receipt must be an image data uri", func(t *testing.T) {
		s := m.Start("500 Likes", 28, "en")
		require.NoError(t, m.SetDetails(s.ID, "https://instagram.com/x", "0541111111"))
		require.NoError(t, m.Next(s.ID))
		require.NoError(t, m.SelectMethod(s.ID, "Paybox"))
		require.NoError(t, m.Next(s.ID))

		assert.ErrorIs(t, m.AttachReceipt(s.ID, "hello"), checkout.ErrMissingReceipt)

		_, err := m.Submit(ctx, s.ID)
		assert.ErrorIs(t, err, checkout.ErrMissingReceipt)
	})

	t.Run("unknown session", func(t *testing.T) {
		assert.ErrorIs(t, m.SetDetails("nope", "a", "b"), checkout.ErrSessionNotFound)
		_, err := m.Submit(ctx, "nope")
		assert.ErrorIs(t, err, checkout.ErrSessionNotFound)
	})
}

func TestWizard_BackPreservesValues(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := mock_database.NewMockDB(ctrl)
	m := newManager(mockDB)

	s := m.Start("1000 Followers", 120, "en")
	require.NoError(t, m.SetDetails(s.ID, "https://instagram.com/someone", "0541234567"))
	require.NoError(t, m.Next(s.ID))
	require.NoError(t, m.SelectMethod(s.ID, "Bit"))

	require.NoError(t, m.Back(s.ID))

	current, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepDetails, current.Step)
	assert.Equal(t, "https://instagram.com/someone", current.Link)
	assert.Equal(t, "0541234567", current.Phone)
	assert.Equal(t, "Bit", current.Method)

	assert.ErrorIs(t, m.Back(s.ID), checkout.ErrWrongStep)
}

func TestWizard_CouponReplacesAndDiscounts(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := mock_database.NewMockDB(ctrl)
	m := newManager(mockDB)

	s := m.Start("1000 Followers", 1000, "en")

	// first an affiliate code
	mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("DANA15")).
		DoAndReturn(func(_ context.Context, dest *repository.Affiliate, _ string, _ string) error {
			*dest = repository.Affiliate{ID: 42, CouponCode: "DANA15"}
			return nil
		})

	d, err := m.ApplyCoupon(ctx, s.ID, "dana15")
	require.NoError(t, err)
	assert.Equal(t, 15, d.Percent)

	current, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, 850, current.FinalPrice())

	// re-applying replaces with a master coupon
	mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("SUMMER20")).
		Return(pgx.ErrNoRows)
	mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("SUMMER20")).
		DoAndReturn(func(_ context.Context, dest *repository.Coupon, _ string, _ string) error {
			*dest = repository.Coupon{Code: "SUMMER20", Discount: 20, IsActive: true}
			return nil
		})

	d, err = m.ApplyCoupon(ctx, s.ID, "SUMMER20")
	require.NoError(t, err)
	assert.Equal(t, 20, d.Percent)

	current, err = m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, 800, current.FinalPrice())

	require.NoError(t, m.RemoveCoupon(s.ID))
	current, err = m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000, current.FinalPrice())
}

func TestSubmit_CreditsAffiliateAtomically(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := mock_database.NewMockDB(ctrl)
	mockTx := mock_database.NewMockTx(ctrl)
	m := newManager(mockDB)

	s := m.Start("1000 Followers", 1000, "he")
	require.NoError(t, m.SetDetails(s.ID, "https://instagram.com/someone", "0541234567"))

	mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("DANA15")).
		DoAndReturn(func(_ context.Context, dest *repository.Affiliate, _ string, _ string) error {
			*dest = repository.Affiliate{ID: 42, CouponCode: "DANA15"}
			return nil
		})
	_, err := m.ApplyCoupon(ctx, s.ID, "DANA15")
	require.NoError(t, err)

	require.NoError(t, m.Next(s.ID))
	require.NoError(t, m.SelectMethod(s.ID, "Bit"))
	require.NoError(t, m.Next(s.ID))
	require.NoError(t, m.AttachReceipt(s.ID, "data:image/png;base64,AAAA"))

	mockDB.EXPECT().BeginTx(gomock.Any()).Return(mockTx, nil)

	// order insert at the discounted price
	mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("1000 Followers"), gomock.Eq(850),
		gomock.Any(), gomock.Any(), gomock.Eq("Bit"), gomock.Any(), gomock.Any(), gomock.Eq(repository.OrderStatusNew), gomock.Any(), gomock.Any()).
		Return(nil, nil)

	// affiliate row is locked; 30 prior sales puts them on the 17% tier,
	// so the commission on an 850 order is 145
	mockTx.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Eq("SELECT * FROM affiliates WHERE id = $1 FOR UPDATE"), gomock.Eq(int64(42))).
		DoAndReturn(func(_ context.Context, dest *repository.Affiliate, _ string, _ int64) error {
			*dest = repository.Affiliate{ID: 42, Earnings: 100, SalesCount: 30}
			return nil
		})
	mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Eq(245), gomock.Eq(31), gomock.Eq(int64(42))).
		Return(pgconn.CommandTag("UPDATE 1"), nil)

	// outbox insert
	mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil)
	mockTx.EXPECT().Commit(gomock.Any()).Return(nil)
	mockTx.EXPECT().Rollback(gomock.Any()).Return(pgx.ErrTxClosed).AnyTimes()

	link, err := m.Submit(ctx, s.ID)
	require.NoError(t, err)
	assert.Contains(t, link, "850")
}

// driveToReceipt walks a fresh session through the wizard up to an attached
// receipt so submit-path tests do not repeat the steps.
func driveToReceipt(t *testing.T, m *checkout.Manager, packageName string, basePrice int) *checkout.Session {
	t.Helper()

	s := m.Start(packageName, basePrice, "en")
	require.NoError(t, m.SetDetails(s.ID, "https://instagram.com/someone", "0541234567"))
	require.NoError(t, m.Next(s.ID))
	require.NoError(t, m.SelectMethod(s.ID, "Bit"))
	require.NoError(t, m.Next(s.ID))
	require.NoError(t, m.AttachReceipt(s.ID, "data:image/png;base64,AAAA"))
	return s
}

func TestSubmit_ConcurrentSubmitWritesOneOrder(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := mock_database.NewMockDB(ctrl)
	mockTx := mock_database.NewMockTx(ctrl)
	m := newManager(mockDB)

	s := driveToReceipt(t, m, "1000 Followers", 120)

	// the first submitter is held inside BeginTx while the second one races it
	entered := make(chan struct{})
	release := make(chan struct{})
	mockDB.EXPECT().BeginTx(gomock.Any()).DoAndReturn(func(context.Context) (db.Tx, error) {
		close(entered)
		<-release
		return mockTx, nil
	})
	mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("1000 Followers"), gomock.Eq(120),
		gomock.Any(), gomock.Any(), gomock.Eq("Bit"), gomock.Any(), gomock.Any(), gomock.Eq(repository.OrderStatusNew), gomock.Any(), gomock.Any()).
		Return(nil, nil)
	mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil) // outbox insert
	mockTx.EXPECT().Commit(gomock.Any()).Return(nil)
	mockTx.EXPECT().Rollback(gomock.Any()).Return(pgx.ErrTxClosed).AnyTimes()

	type result struct {
		link string
		err  error
	}
	firstDone := make(chan result, 1)
	go func() {
		link, err := m.Submit(ctx, s.ID)
		firstDone <- result{link: link, err: err}
	}()

	<-entered
	_, err := m.Submit(ctx, s.ID)
	assert.ErrorIs(t, err, checkout.ErrAlreadySubmitted)

	close(release)
	first := <-firstDone
	require.NoError(t, first.err)
	assert.True(t, strings.HasPrefix(first.link, "https://wa.me/"))

	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, checkout.ErrSessionNotFound)
}

func TestSubmit_RetryAfterFailedPersist(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := mock_database.NewMockDB(ctrl)
	mockTx := mock_database.NewMockTx(ctrl)
	m := newManager(mockDB)

	s := driveToReceipt(t, m, "1000 Followers", 120)

	mockDB.EXPECT().BeginTx(gomock.Any()).Return(nil, errors.New("connection refused"))
	_, err := m.Submit(ctx, s.ID)
	require.Error(t, err)

	// the session stays live, so the customer can retry
	mockDB.EXPECT().BeginTx(gomock.Any()).Return(mockTx, nil)
	mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("1000 Followers"), gomock.Eq(120),
		gomock.Any(), gomock.Any(), gomock.Eq("Bit"), gomock.Any(), gomock.Any(), gomock.Eq(repository.OrderStatusNew), gomock.Any(), gomock.Any()).
		Return(nil, nil)
	mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil) // outbox insert
	mockTx.EXPECT().Commit(gomock.Any()).Return(nil)
	mockTx.EXPECT().Rollback(gomock.Any()).Return(pgx.ErrTxClosed).AnyTimes()

	link, err := m.Submit(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://wa.me/"))
}

func TestApplyCoupon_UnknownSessionSkipsLookup(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no DB expectations: a missing session must fail before any lookup
	mockDB := mock_database.NewMockDB(ctrl)
	m := newManager(mockDB)

	_, err := m.ApplyCoupon(ctx, "nope", "DANA15")
	assert.ErrorIs(t, err, checkout.ErrSessionNotFound)
}
