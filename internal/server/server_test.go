package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/huutix/storefront/internal/affiliate"
	"github.com/huutix/storefront/internal/cache"
	"github.com/huutix/storefront/internal/cart"
	"github.com/huutix/storefront/internal/checkout"
	mock_database "github.com/huutix/storefront/internal/db/mocks"
	"github.com/huutix/storefront/internal/pricing"
	"github.com/huutix/storefront/internal/repository"
	"github.com/huutix/storefront/internal/repository/postgresql"
	"github.com/huutix/storefront/internal/server"
)

type nopProducer struct{}

func (nopProducer) SendMessage(context.Context, string, []byte, []byte) error { return nil }
func (nopProducer) Close() error                                              { return nil }

type fakeRow struct {
	values []interface{}
	err    error
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		if s, ok := dest[i].(*string); ok {
			*s = r.values[i].(string)
		}
		if n, ok := dest[i].(*int); ok {
			*n = r.values[i].(int)
		}
	}
	return nil
}

func newTestServer(t *testing.T, mockDB *mock_database.MockDB) http.Handler {
	t.Helper()

	// the settings cache is primed once at startup
	mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, dest *repository.SiteSettings, _ string, _ ...interface{}) error {
			*dest = repository.SiteSettings{
				ID:           1,
				Whatsapp:     "972522426476",
				PaymentPhone: "0546980606",
			}
			return nil
		})

	settingsRepo := postgresql.NewSettingsRepo(mockDB)
	settingsCache := cache.NewSettingsCache(settingsRepo)
	require.NoError(t, settingsCache.LoadInitialData(context.Background()))

	affiliates := postgresql.NewAffiliateRepo(mockDB)
	coupons := postgresql.NewCouponRepo(mockDB)
	flashCodes := postgresql.NewFlashCodeRepo(mockDB)
	orders := postgresql.NewOrderRepo(mockDB)
	payouts := postgresql.NewPayoutRepo(mockDB)
	requests := postgresql.NewStaffRequestRepo(mockDB)
	outbox := postgresql.NewOutboxTaskRepo()

	pricingSvc := pricing.NewService(affiliates, coupons, flashCodes)
	checkoutMgr := checkout.NewManager(mockDB, pricingSvc, orders, affiliates, outbox, settingsCache, "storefront_events")
	partners := affiliate.NewService(mockDB, affiliates, payouts, requests, outbox, "storefront_events")

	srv := server.New(server.Deps{
		Orders:        orders,
		Affiliates:    affiliates,
		Requests:      requests,
		Payouts:       payouts,
		Coupons:       coupons,
		Testimonials:  postgresql.NewTestimonialRepo(mockDB),
		Settings:      settingsRepo,
		AdminUsers:    postgresql.NewAdminUserRepo(mockDB),
		Checkout:      checkoutMgr,
		Partners:      partners,
		Carts:         cart.NewStore(),
		Pricing:       pricingSvc,
		SettingsCache: settingsCache,
		Producer:      nopProducer{},
		AuditTopic:    "storefront_audit",
	})
	return srv.Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dest))
}

func TestListServices(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := newTestServer(t, mock_database.NewMockDB(ctrl))

	rec := doJSON(t, handler, http.MethodGet, "/api/services", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var services []struct {
		ID string `json:"id"`
	}
	decode(t, rec, &services)
	require.Len(t, services, 4)
	assert.Equal(t, "followers", services[0].ID)
}

func TestPublicSettingsSubset(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := newTestServer(t, mock_database.NewMockDB(ctrl))

	rec := doJSON(t, handler, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var settings map[string]string
	decode(t, rec, &settings)
	assert.Equal(t, "972522426476", settings["whatsapp"])
	_, exposed := settings["payment_phone"]
	assert.False(t, exposed)
}

func TestCartFlow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := newTestServer(t, mock_database.NewMockDB(ctrl))

	rec := doJSON(t, handler, http.MethodPost, "/api/cart/sess-1/items", map[string]interface{}{
		"service_id": "followers",
		"quantity":   1000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var item cart.Item
	decode(t, rec, &item)
	assert.Equal(t, 120, item.Price)
	assert.Equal(t, "1000 Followers", item.PackageName)

	rec = doJSON(t, handler, http.MethodGet, "/api/cart/sess-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var contents struct {
		Items []cart.Item `json:"items"`
		Total int         `json:"total"`
	}
	decode(t, rec, &contents)
	require.Len(t, contents.Items, 1)
	assert.Equal(t, 120, contents.Total)

	rec = doJSON(t, handler, http.MethodDelete, "/api/cart/sess-1/items/"+item.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/cart/sess-1", nil)
	decode(t, rec, &contents)
	assert.Empty(t, contents.Items)

	rec = doJSON(t, handler, http.MethodPost, "/api/cart/sess-1/items", map[string]interface{}{
		"service_id": "followers",
		"quantity":   120, // below the minimum
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutOverHTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := mock_database.NewMockDB(ctrl)
	mockTx := mock_database.NewMockTx(ctrl)
	handler := newTestServer(t, mockDB)

	rec := doJSON(t, handler, http.MethodPost, "/api/checkout", map[string]interface{}{
		"service_id": "followers",
		"quantity":   1000,
		"lang":       "he",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var session struct {
		ID         string `json:"id"`
		Step       int    `json:"step"`
		BasePrice  int    `json:"base_price"`
		FinalPrice int    `json:"final_price"`
	}
	decode(t, rec, &session)
	assert.Equal(t, 1, session.Step)
	assert.Equal(t, 120, session.BasePrice)

	rec = doJSON(t, handler, http.MethodPut, "/api/checkout/"+session.ID+"/details", map[string]string{
		"link":  "https://instagram.com/someone",
		"phone": "0541234567",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/checkout/"+session.ID+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPut, "/api/checkout/"+session.ID+"/method", map[string]string{"method": "Bit"})
	require.Equal(t, http.StatusOK, rec.Code)
	var methodResp struct {
		PaymentPhone string `json:"payment_phone"`
	}
	decode(t, rec, &methodResp)
	assert.Equal(t, "0546980606", methodResp.PaymentPhone)

	rec = doJSON(t, handler, http.MethodPost, "/api/checkout/"+session.ID+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPut, "/api/checkout/"+session.ID+"/receipt", map[string]string{
		"image": "data:image/png;base64,AAAA",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	mockDB.EXPECT().BeginTx(gomock.Any()).Return(mockTx, nil)
	mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("1000 Followers"), gomock.Eq(120),
		gomock.Any(), gomock.Any(), gomock.Eq("Bit"), gomock.Any(), gomock.Any(), gomock.Eq(repository.OrderStatusNew), gomock.Any(), gomock.Any()).
		Return(nil, nil)
	mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil) // outbox insert
	mockTx.EXPECT().Commit(gomock.Any()).Return(nil)
	mockTx.EXPECT().Rollback(gomock.Any()).Return(pgx.ErrTxClosed).AnyTimes()

	rec = doJSON(t, handler, http.MethodPost, "/api/checkout/"+session.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var submitResp struct {
		WhatsappLink string `json:"whatsapp_link"`
	}
	decode(t, rec, &submitResp)
	assert.Contains(t, submitResp.WhatsappLink, "https://wa.me/972522426476?text=")

	rec = doJSON(t, handler, http.MethodGet, "/api/checkout/"+session.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPartnerPortal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := mock_database.NewMockDB(ctrl)
	handler := newTestServer(t, mockDB)

	t.Run("dashboard requires a token", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/partner/dashboard", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("dana4821")).
		DoAndReturn(func(_ context.Context, dest *repository.Affiliate, _ string, _ string) error {
			*dest = repository.Affiliate{ID: 42, Username: "dana4821", PasswordHash: string(hash)}
			return nil
		})

	rec := doJSON(t, handler, http.MethodPost, "/api/partner/login", map[string]string{
		"username": "dana4821",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var loginResp struct {
		Token string `json:"token"`
	}
	decode(t, rec, &loginResp)
	require.NotEmpty(t, loginResp.Token)

	withToken := func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+loginResp.Token) }

	mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq(int64(42))).
		DoAndReturn(func(_ context.Context, dest *repository.Affiliate, _ string, _ int64) error {
			*dest = repository.Affiliate{ID: 42, Name: "Dana", Username: "dana4821", CouponCode: "DANA15", Earnings: 340, SalesCount: 30}
			return nil
		})

	rec = doJSON(t, handler, http.MethodGet, "/api/partner/dashboard", nil, withToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var dashboard affiliate.Dashboard
	decode(t, rec, &dashboard)
	assert.Equal(t, "EXPERT", dashboard.Rank)
	assert.Equal(t, 340, dashboard.Earnings)

	rec = doJSON(t, handler, http.MethodPost, "/api/partner/logout", nil, withToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/partner/dashboard", nil, withToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := mock_database.NewMockDB(ctrl)
	handler := newTestServer(t, mockDB)

	t.Run("missing credentials", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/admin/orders", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		mockDB.EXPECT().ExecQueryRow(gomock.Any(), gomock.Any(), gomock.Eq("admin")).
			Return(fakeRow{values: []interface{}{string(hash)}})

		rec := doJSON(t, handler, http.MethodGet, "/api/admin/orders", nil, func(r *http.Request) {
			r.SetBasicAuth("admin", "wrong")
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid credentials list orders", func(t *testing.T) {
		mockDB.EXPECT().ExecQueryRow(gomock.Any(), gomock.Any(), gomock.Eq("admin")).
			Return(fakeRow{values: []interface{}{string(hash)}})
		mockDB.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, dest *[]*repository.Order, _ string, _ ...interface{}) error {
				*dest = []*repository.Order{{ID: "ord-1", PackageName: "1000 Followers", Price: 120, Status: repository.OrderStatusNew}}
				return nil
			})

		rec := doJSON(t, handler, http.MethodGet, "/api/admin/orders", nil, func(r *http.Request) {
			r.SetBasicAuth("admin", "hunter2")
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var orders []*repository.Order
		decode(t, rec, &orders)
		require.Len(t, orders, 1)
		assert.Equal(t, "ord-1", orders[0].ID)
	})
}

func TestAdminUpdatesSettingsAndRefreshesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := mock_database.NewMockDB(ctrl)
	handler := newTestServer(t, mockDB)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	mockDB.EXPECT().ExecQueryRow(gomock.Any(), gomock.Any(), gomock.Eq("admin")).
		Return(fakeRow{values: []interface{}{string(hash)}})
	mockDB.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Eq("972500000000"), gomock.Eq("0500000000"),
		gomock.Any(), gomock.Any(), gomock.Any()).
		Return(pgconn.CommandTag("UPDATE 1"), nil)
	mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, dest *repository.SiteSettings, _ string, _ ...interface{}) error {
			*dest = repository.SiteSettings{ID: 1, Whatsapp: "972500000000", PaymentPhone: "0500000000"}
			return nil
		})

	rec := doJSON(t, handler, http.MethodPut, "/api/admin/settings", map[string]string{
		"whatsapp":      "972500000000",
		"payment_phone": "0500000000",
	}, func(r *http.Request) {
		r.SetBasicAuth("admin", "hunter2")
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// the public endpoint now reflects the refreshed cache
	rec = doJSON(t, handler, http.MethodGet, "/api/settings", nil)
	var settings map[string]string
	decode(t, rec, &settings)
	assert.Equal(t, "972500000000", settings["whatsapp"])
}
