package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/huutix/storefront/internal/affiliate"
	"github.com/huutix/storefront/internal/repository"
)

func (s *Server) handlePartnerLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.deps.Partners.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, affiliate.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handlePartnerLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		token = r.Header.Get("X-Token")
	}
	s.deps.Partners.Logout(token)
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) handlePartnerDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.deps.Partners.GetDashboard(r.Context(), affiliateIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			respondError(w, http.StatusNotFound, "affiliate not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}

func (s *Server) handlePartnerWithdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payout, err := s.deps.Partners.Withdraw(r.Context(), affiliateIDFromContext(r.Context()), req.Method)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientBalance):
			respondError(w, http.StatusBadRequest, "balance is below the minimum withdrawal")
		case errors.Is(err, repository.ErrObjectNotFound):
			respondError(w, http.StatusNotFound, "affiliate not found")
		default:
			respondError(w, http.StatusInternalServerError, "withdrawal failed")
		}
		return
	}

	respondJSON(w, http.StatusCreated, payout)
}

func (s *Server) handlePartnerPayouts(w http.ResponseWriter, r *http.Request) {
	payouts, err := s.deps.Partners.PayoutHistory(r.Context(), affiliateIDFromContext(r.Context()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list payouts")
		return
	}
	respondJSON(w, http.StatusOK, payouts)
}

// handlePartnerScripts hands out promo texts with the caller's own coupon
// code substituted in.
func (s *Server) handlePartnerScripts(w http.ResponseWriter, r *http.Request) {
	aff, err := s.deps.Affiliates.GetByID(r.Context(), affiliateIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			respondError(w, http.StatusNotFound, "affiliate not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load scripts")
		return
	}

	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = "en"
	}
	respondJSON(w, http.StatusOK, affiliate.MarketingScripts(lang, aff.CouponCode))
}
