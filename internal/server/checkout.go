package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/huutix/storefront/internal/catalog"
	"github.com/huutix/storefront/internal/checkout"
	"github.com/huutix/storefront/internal/repository"
)

type checkoutResponse struct {
	ID          string `json:"id"`
	Step        int    `json:"step"`
	PackageName string `json:"package_name"`
	BasePrice   int    `json:"base_price"`
	FinalPrice  int    `json:"final_price"`
	Link        string `json:"link,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Method      string `json:"method,omitempty"`
	CouponCode  string `json:"coupon_code,omitempty"`
	Discount    int    `json:"discount,omitempty"`
	HasReceipt  bool   `json:"has_receipt"`
}

func toCheckoutResponse(s *checkout.Session) checkoutResponse {
	resp := checkoutResponse{
		ID:          s.ID,
		Step:        int(s.Step),
		PackageName: s.PackageName,
		BasePrice:   s.BasePrice,
		FinalPrice:  s.FinalPrice(),
		Link:        s.Link,
		Phone:       s.Phone,
		Method:      s.Method,
		HasReceipt:  s.Receipt != "",
	}
	if s.Discount != nil {
		resp.CouponCode = s.Discount.Code
		resp.Discount = s.Discount.Percent
	}
	return resp
}

func (s *Server) handleStartCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ServiceID string `json:"service_id"`
		Quantity  int    `json:"quantity"`
		Lang      string `json:"lang"`
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
	if req.Lang == "" {
		req.Lang = "en"
	}

	session := s.deps.Checkout.Start(packageLabel(req.ServiceID, req.Quantity), price, req.Lang)
	respondJSON(w, http.StatusCreated, toCheckoutResponse(session))
}

func (s *Server) handleGetCheckout(w http.ResponseWriter, r *http.Request) {
	session, err := s.deps.Checkout.Get(mux.Vars(r)["id"])
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCheckoutResponse(session))
}

func (s *Server) handleCheckoutDetails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Link  string `json:"link"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := mux.Vars(r)["id"]
	if err := s.deps.Checkout.SetDetails(id, req.Link, req.Phone); err != nil {
		respondCheckoutError(w, err)
		return
	}
	s.respondWithSession(w, id)
}

func (s *Server) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := mux.Vars(r)["id"]
	if _, err := s.deps.Checkout.ApplyCoupon(r.Context(), id, req.Code); err != nil {
		if errors.Is(err, repository.ErrCouponNotFound) {
			respondError(w, http.StatusNotFound, "coupon not found")
			return
		}
		respondCheckoutError(w, err)
		return
	}
	s.respondWithSession(w, id)
}

func (s *Server) handleRemoveCoupon(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.deps.Checkout.RemoveCoupon(id); err != nil {
		respondCheckoutError(w, err)
		return
	}
	s.respondWithSession(w, id)
}

func (s *Server) handleCheckoutNext(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.deps.Checkout.Next(id); err != nil {
		respondCheckoutError(w, err)
		return
	}
	s.respondWithSession(w, id)
}

func (s *Server) handleCheckoutBack(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.deps.Checkout.Back(id); err != nil {
		respondCheckoutError(w, err)
		return
	}
	s.respondWithSession(w, id)
}

// handleSelectMethod records the payment app and reveals the phone number
// the customer should transfer to.
func (s *Server) handleSelectMethod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := mux.Vars(r)["id"]
	if err := s.deps.Checkout.SelectMethod(id, req.Method); err != nil {
		respondCheckoutError(w, err)
		return
	}

	session, err := s.deps.Checkout.Get(id)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session":       toCheckoutResponse(session),
		"payment_phone": s.deps.Checkout.PaymentPhone(),
	})
}

func (s *Server) handleAttachReceipt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := mux.Vars(r)["id"]
	if err := s.deps.Checkout.AttachReceipt(id, req.Image); err != nil {
		respondCheckoutError(w, err)
		return
	}
	s.respondWithSession(w, id)
}

func (s *Server) handleSubmitCheckout(w http.ResponseWriter, r *http.Request) {
	link, err := s.deps.Checkout.Submit(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"whatsapp_link": link})
}

func (s *Server) respondWithSession(w http.ResponseWriter, id string) {
	session, err := s.deps.Checkout.Get(id)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCheckoutResponse(session))
}

func respondCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, checkout.ErrWrongStep),
		errors.Is(err, checkout.ErrMissingDetails),
		errors.Is(err, checkout.ErrInvalidMethod),
		errors.Is(err, checkout.ErrMissingReceipt),
		errors.Is(err, checkout.ErrAlreadySubmitted):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "checkout operation failed")
	}
}
