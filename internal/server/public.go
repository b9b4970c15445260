package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/huutix/storefront/internal/cart"
	"github.com/huutix/storefront/internal/catalog"
	"github.com/huutix/storefront/internal/repository"
)

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, catalog.Services())
}

// handleGetPublicSettings exposes only the contact channels the storefront
// pages need; the admin console reads the full row elsewhere.
func (s *Server) handleGetPublicSettings(w http.ResponseWriter, r *http.Request) {
	settings := s.deps.SettingsCache.Current()
	respondJSON(w, http.StatusOK, map[string]string{
		"whatsapp":  settings.Whatsapp,
		"instagram": settings.Instagram,
		"telegram":  settings.Telegram,
	})
}

func (s *Server) handleListTestimonials(w http.ResponseWriter, r *http.Request) {
	testimonials, err := s.deps.Testimonials.List(r.Context(), repository.TestimonialStatusApproved)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list testimonials")
		return
	}
	respondJSON(w, http.StatusOK, testimonials)
}

func (s *Server) handleCreateTestimonial(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Handle  string `json:"handle"`
		Content string `json:"content"`
		Rating  int    `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Content) == "" {
		respondError(w, http.StatusBadRequest, "name and content are required")
		return
	}
	if req.Rating < 1 {
		req.Rating = 1
	}
	if req.Rating > 5 {
		req.Rating = 5
	}

	testimonial := &repository.Testimonial{
		Name:      strings.TrimSpace(req.Name),
		Handle:    strings.TrimSpace(req.Handle),
		Content:   strings.TrimSpace(req.Content),
		Rating:    req.Rating,
		Status:    repository.TestimonialStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	id, err := s.deps.Testimonials.Create(r.Context(), testimonial)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save testimonial")
		return
	}
	testimonial.ID = id
	respondJSON(w, http.StatusCreated, testimonial)
}

func (s *Server) handleCreateStaffRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Age   int    `json:"age"`
		Phone string `json:"phone"`
		Email string `json:"email"`
		City  string `json:"city"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
		respondError(w, http.StatusBadRequest, "name and phone are required")
		return
	}

	request := &repository.StaffRequest{
		Name:      strings.TrimSpace(req.Name),
		Age:       req.Age,
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		City:      strings.TrimSpace(req.City),
		Status:    repository.RequestStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	id, err := s.deps.Requests.Create(r.Context(), request)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save request")
		return
	}
	request.ID = id
	respondJSON(w, http.StatusCreated, request)
}

func (s *Server) handleGenerateFlashCode(w http.ResponseWriter, r *http.Request) {
	flash, err := s.deps.Pricing.GenerateFlashCode(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate flash code")
		return
	}
	respondJSON(w, http.StatusCreated, flash)
}

func (s *Server) handleResolveCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	discount, err := s.deps.Pricing.Resolve(r.Context(), req.Code)
	if err != nil {
		if err == repository.ErrCouponNotFound {
			respondError(w, http.StatusNotFound, "coupon not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to resolve coupon")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"code":     discount.Code,
		"discount": discount.Percent,
		"source":   discount.Source,
	})
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": s.deps.Carts.Items(sessionID),
		"total": s.deps.Carts.Total(sessionID),
	})
}

func (s *Server) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]

	var req struct {
		ServiceID string `json:"service_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	price, err := catalog.Price(req.ServiceID, req.Quantity)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item := s.deps.Carts.Add(sessionID, cart.Item{
		ServiceID:   req.ServiceID,
		PackageName: packageLabel(req.ServiceID, req.Quantity),
		Quantity:    req.Quantity,
		Price:       price,
	})
	respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.deps.Carts.Remove(vars["sessionID"], vars["itemID"])
	respondJSON(w, http.StatusOK, map[string]string{"message": "item removed"})
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	s.deps.Carts.Clear(mux.Vars(r)["sessionID"])
	respondJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}

var packageLabels = map[string]string{
	"followers": "Followers",
	"likes":     "Likes",
	"comments":  "Comments",
	"views":     "Views",
}

func packageLabel(serviceID string, quantity int) string {
	label, ok := packageLabels[serviceID]
	if !ok {
		label = serviceID
	}
	return strconv.Itoa(quantity) + " " + label
}
