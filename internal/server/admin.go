package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/huutix/storefront/internal/pricing"
	"github.com/huutix/storefront/internal/repository"
)

func (s *Server) handleAdminListOrders(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			respondError(w, http.StatusBadRequest, "invalid value for 'limit' parameter")
			return
		}
	}

	orders, err := s.deps.Orders.List(r.Context(), r.URL.Query().Get("method"), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (s *Server) handleAdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != repository.OrderStatusNew && req.Status != repository.OrderStatusCompleted {
		respondError(w, http.StatusBadRequest, "status must be 'new' or 'completed'")
		return
	}

	if err := s.deps.Orders.UpdateStatus(r.Context(), mux.Vars(r)["id"], req.Status); err != nil {
		respondRepoError(w, err, "failed to update order status")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "order status updated"})
}

func (s *Server) handleAdminDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Orders.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondRepoError(w, err, "failed to delete order")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

func (s *Server) handleAdminListPayouts(w http.ResponseWriter, r *http.Request) {
	payouts, err := s.deps.Payouts.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list payouts")
		return
	}
	respondJSON(w, http.StatusOK, payouts)
}

// handleAdminUpdatePayoutStatus settles a pending payout. A rejected payout
// does not restore the affiliate balance.
func (s *Server) handleAdminUpdatePayoutStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != repository.PayoutStatusCompleted && req.Status != repository.PayoutStatusRejected {
		respondError(w, http.StatusBadRequest, "status must be 'completed' or 'rejected'")
		return
	}

	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid payout id")
		return
	}
	if err := s.deps.Payouts.UpdateStatus(r.Context(), id, req.Status); err != nil {
		respondRepoError(w, err, "failed to update payout status")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "payout status updated"})
}

func (s *Server) handleAdminDeletePayout(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid payout id")
		return
	}
	if err := s.deps.Payouts.Delete(r.Context(), id); err != nil {
		respondRepoError(w, err, "failed to delete payout")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "payout deleted"})
}

func (s *Server) handleAdminListAffiliates(w http.ResponseWriter, r *http.Request) {
	affiliates, err := s.deps.Affiliates.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list affiliates")
		return
	}
	respondJSON(w, http.StatusOK, affiliates)
}

func (s *Server) handleAdminDeleteAffiliate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid affiliate id")
		return
	}
	if err := s.deps.Affiliates.Delete(r.Context(), id); err != nil {
		respondRepoError(w, err, "failed to delete affiliate")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "affiliate deleted"})
}

func (s *Server) handleAdminListStaffRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.deps.Requests.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list staff requests")
		return
	}
	respondJSON(w, http.StatusOK, requests)
}

// handleAdminApproveStaffRequest creates the affiliate account and returns
// the generated credentials. This is the only time the plain password is
// ever visible.
func (s *Server) handleAdminApproveStaffRequest(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	creds, err := s.deps.Partners.ApproveStaffRequest(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			respondError(w, http.StatusNotFound, "staff request not found")
			return
		}
		if strings.Contains(err.Error(), "already") {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to approve staff request")
		return
	}
	respondJSON(w, http.StatusOK, creds)
}

func (s *Server) handleAdminRejectStaffRequest(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request id")
		return
	}
	if err := s.deps.Requests.UpdateStatus(r.Context(), id, repository.RequestStatusRejected); err != nil {
		respondRepoError(w, err, "failed to reject staff request")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "staff request rejected"})
}

func (s *Server) handleAdminListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := s.deps.Coupons.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list coupons")
		return
	}
	respondJSON(w, http.StatusOK, coupons)
}

func (s *Server) handleAdminCreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string `json:"code"`
		Discount int    `json:"discount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	code := pricing.Normalize(req.Code)
	if code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.Discount < 1 || req.Discount > 100 {
		respondError(w, http.StatusBadRequest, "discount must be between 1 and 100")
		return
	}

	coupon := &repository.Coupon{Code: code, Discount: req.Discount, IsActive: true}
	id, err := s.deps.Coupons.Create(r.Context(), coupon)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create coupon")
		return
	}
	coupon.ID = id
	respondJSON(w, http.StatusCreated, coupon)
}

func (s *Server) handleAdminDeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid coupon id")
		return
	}
	if err := s.deps.Coupons.Delete(r.Context(), id); err != nil {
		respondRepoError(w, err, "failed to delete coupon")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "coupon deleted"})
}

func (s *Server) handleAdminListTestimonials(w http.ResponseWriter, r *http.Request) {
	testimonials, err := s.deps.Testimonials.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list testimonials")
		return
	}
	respondJSON(w, http.StatusOK, testimonials)
}

func (s *Server) handleAdminUpdateTestimonialStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != repository.TestimonialStatusApproved && req.Status != repository.TestimonialStatusRejected {
		respondError(w, http.StatusBadRequest, "status must be 'approved' or 'rejected'")
		return
	}

	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid testimonial id")
		return
	}
	if err := s.deps.Testimonials.UpdateStatus(r.Context(), id, req.Status); err != nil {
		respondRepoError(w, err, "failed to update testimonial status")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "testimonial status updated"})
}

func (s *Server) handleAdminDeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid testimonial id")
		return
	}
	if err := s.deps.Testimonials.Delete(r.Context(), id); err != nil {
		respondRepoError(w, err, "failed to delete testimonial")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "testimonial deleted"})
}

func (s *Server) handleAdminGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Settings.Get(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handleAdminUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Whatsapp     string `json:"whatsapp"`
		PaymentPhone string `json:"payment_phone"`
		Gmail        string `json:"gmail"`
		Instagram    string `json:"instagram"`
		Telegram     string `json:"telegram"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Whatsapp) == "" || strings.TrimSpace(req.PaymentPhone) == "" {
		respondError(w, http.StatusBadRequest, "whatsapp and payment_phone are required")
		return
	}

	settings := &repository.SiteSettings{
		Whatsapp:     strings.TrimSpace(req.Whatsapp),
		PaymentPhone: strings.TrimSpace(req.PaymentPhone),
		Gmail:        strings.TrimSpace(req.Gmail),
		Instagram:    strings.TrimSpace(req.Instagram),
		Telegram:     strings.TrimSpace(req.Telegram),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.deps.Settings.Update(r.Context(), settings); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	if err := s.deps.SettingsCache.Refresh(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "settings saved but cache refresh failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "settings updated"})
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	orderCount, revenue, err := s.deps.Orders.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	affiliateCount, err := s.deps.Affiliates.Count(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	pendingPayouts, err := s.deps.Payouts.CountPending(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{
		"orders":          orderCount,
		"revenue":         revenue,
		"affiliates":      affiliateCount,
		"pending_payouts": pendingPayouts,
	})
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func respondRepoError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, repository.ErrObjectNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	respondError(w, http.StatusInternalServerError, fallback)
}
