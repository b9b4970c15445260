// Package server exposes the storefront over HTTP: the public shop API,
// the checkout wizard, the partner portal and the admin console.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/huutix/storefront/internal/affiliate"
	"github.com/huutix/storefront/internal/cache"
	"github.com/huutix/storefront/internal/cart"
	"github.com/huutix/storefront/internal/checkout"
	"github.com/huutix/storefront/internal/kafka"
	"github.com/huutix/storefront/internal/pricing"
	"github.com/huutix/storefront/internal/storage"
)

// Deps bundles everything the HTTP layer talks to.
type Deps struct {
	Orders       storage.OrderRepository
	Affiliates   storage.AffiliateRepository
	Requests     storage.StaffRequestRepository
	Payouts      storage.PayoutRepository
	Coupons      storage.CouponRepository
	Testimonials storage.TestimonialRepository
	Settings     storage.SettingsRepository
	AdminUsers   storage.AdminUserRepository

	Checkout      *checkout.Manager
	Partners      *affiliate.Service
	Carts         *cart.Store
	Pricing       *pricing.Service
	SettingsCache *cache.SettingsCache

	Producer   kafka.Producer
	AuditTopic string
}

type Server struct {
	deps         Deps
	server       *http.Server
	AuditManager *AuditManager
}

func New(deps Deps) *Server {
	return &Server{
		deps:         deps,
		AuditManager: NewAuditManager(2, 5, 500*time.Millisecond, deps.Producer, deps.AuditTopic),
	}
}

// Handler builds the full route tree. Split out from Run so tests can drive
// the server through httptest.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

func (s *Server) Run(ctx context.Context, port string) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.AuditManager.Start(ctx)

	zap.S().Infow("http server starting", "port", port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	zap.S().Info("shutting down http server")

	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}

	s.AuditManager.Shutdown(ctx)
	zap.S().Info("http server shutdown completed")
	return nil
}

func (s *Server) setupRoutes() http.Handler {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/services", s.handleListServices).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.handleGetPublicSettings).Methods(http.MethodGet)
	api.HandleFunc("/testimonials", s.handleListTestimonials).Methods(http.MethodGet)
	api.HandleFunc("/testimonials", s.handleCreateTestimonial).Methods(http.MethodPost)
	api.HandleFunc("/staff-requests", s.handleCreateStaffRequest).Methods(http.MethodPost)
	api.HandleFunc("/flash-codes", s.handleGenerateFlashCode).Methods(http.MethodPost)
	api.HandleFunc("/coupons/resolve", s.handleResolveCoupon).Methods(http.MethodPost)

	api.HandleFunc("/cart/{sessionID}", s.handleGetCart).Methods(http.MethodGet)
	api.HandleFunc("/cart/{sessionID}", s.handleClearCart).Methods(http.MethodDelete)
	api.HandleFunc("/cart/{sessionID}/items", s.handleAddCartItem).Methods(http.MethodPost)
	api.HandleFunc("/cart/{sessionID}/items/{itemID}", s.handleRemoveCartItem).Methods(http.MethodDelete)

	api.HandleFunc("/checkout", s.handleStartCheckout).Methods(http.MethodPost)
	api.HandleFunc("/checkout/{id}", s.handleGetCheckout).Methods(http.MethodGet)
	api.HandleFunc("/checkout/{id}/details", s.handleCheckoutDetails).Methods(http.MethodPut)
	api.HandleFunc("/checkout/{id}/coupon", s.handleApplyCoupon).Methods(http.MethodPost)
	api.HandleFunc("/checkout/{id}/coupon", s.handleRemoveCoupon).Methods(http.MethodDelete)
	api.HandleFunc("/checkout/{id}/next", s.handleCheckoutNext).Methods(http.MethodPost)
	api.HandleFunc("/checkout/{id}/back", s.handleCheckoutBack).Methods(http.MethodPost)
	api.HandleFunc("/checkout/{id}/method", s.handleSelectMethod).Methods(http.MethodPut)
	api.HandleFunc("/checkout/{id}/receipt", s.handleAttachReceipt).Methods(http.MethodPut)
	api.HandleFunc("/checkout/{id}/submit", s.handleSubmitCheckout).Methods(http.MethodPost)

	api.HandleFunc("/partner/login", s.handlePartnerLogin).Methods(http.MethodPost)

	partner := api.PathPrefix("/partner").Subrouter()
	partner.Use(s.partnerAuthMiddleware)
	partner.HandleFunc("/logout", s.handlePartnerLogout).Methods(http.MethodPost)
	partner.HandleFunc("/dashboard", s.handlePartnerDashboard).Methods(http.MethodGet)
	partner.HandleFunc("/withdraw", s.handlePartnerWithdraw).Methods(http.MethodPost)
	partner.HandleFunc("/payouts", s.handlePartnerPayouts).Methods(http.MethodGet)
	partner.HandleFunc("/scripts", s.handlePartnerScripts).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.basicAuthMiddleware, s.auditLogMiddleware)
	admin.HandleFunc("/orders", s.handleAdminListOrders).Methods(http.MethodGet)
	admin.HandleFunc("/orders/{id}/status", s.handleAdminUpdateOrderStatus).Methods(http.MethodPut)
	admin.HandleFunc("/orders/{id}", s.handleAdminDeleteOrder).Methods(http.MethodDelete)
	admin.HandleFunc("/payouts", s.handleAdminListPayouts).Methods(http.MethodGet)
	admin.HandleFunc("/payouts/{id}/status", s.handleAdminUpdatePayoutStatus).Methods(http.MethodPut)
	admin.HandleFunc("/payouts/{id}", s.handleAdminDeletePayout).Methods(http.MethodDelete)
	admin.HandleFunc("/affiliates", s.handleAdminListAffiliates).Methods(http.MethodGet)
	admin.HandleFunc("/affiliates/{id}", s.handleAdminDeleteAffiliate).Methods(http.MethodDelete)
	admin.HandleFunc("/staff-requests", s.handleAdminListStaffRequests).Methods(http.MethodGet)
	admin.HandleFunc("/staff-requests/{id}/approve", s.handleAdminApproveStaffRequest).Methods(http.MethodPost)
	admin.HandleFunc("/staff-requests/{id}/reject", s.handleAdminRejectStaffRequest).Methods(http.MethodPost)
	admin.HandleFunc("/coupons", s.handleAdminListCoupons).Methods(http.MethodGet)
	admin.HandleFunc("/coupons", s.handleAdminCreateCoupon).Methods(http.MethodPost)
	admin.HandleFunc("/coupons/{id}", s.handleAdminDeleteCoupon).Methods(http.MethodDelete)
	admin.HandleFunc("/testimonials", s.handleAdminListTestimonials).Methods(http.MethodGet)
	admin.HandleFunc("/testimonials/{id}/status", s.handleAdminUpdateTestimonialStatus).Methods(http.MethodPut)
	admin.HandleFunc("/testimonials/{id}", s.handleAdminDeleteTestimonial).Methods(http.MethodDelete)
	admin.HandleFunc("/settings", s.handleAdminGetSettings).Methods(http.MethodGet)
	admin.HandleFunc("/settings", s.handleAdminUpdateSettings).Methods(http.MethodPut)
	admin.HandleFunc("/stats", s.handleAdminStats).Methods(http.MethodGet)

	return router
}

func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		valid, err := s.deps.AdminUsers.Validate(r.Context(), username, password)
		if err != nil || !valid {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type contextKey string

const affiliateIDKey contextKey = "affiliate_id"

// partnerAuthMiddleware maps the bearer token handed out at login back to an
// affiliate id and stashes it on the request context.
func (s *Server) partnerAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.Header.Get("X-Token")
		}

		id, ok := s.deps.Partners.Authenticate(token)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid or expired session token")
			return
		}

		ctx := context.WithValue(r.Context(), affiliateIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func affiliateIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(affiliateIDKey).(int64)
	return id
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
