package httpapi

import (
	"net/http"

	"storefront-be/internal/auth"
	"storefront-be/internal/order"

	"github.com/go-chi/chi/v5"
)

type orderHandler struct {
	orders order.Service
}

type placeOrderRequest struct {
	PaymentMethodID string                `json:"paymentMethodId"`
	ShippingAddress order.ShippingAddress `json:"shippingAddress"`
}

type placeOrderResponse struct {
	Message string       `json:"message"`
	Order   *order.Order `json:"order"`
}

type checkoutStatusRequest struct {
	SessionID string `json:"sessionId"`
}

type checkoutStatusResponse struct {
	Status order.CheckoutStatus `json:"status"`
}

func (h *orderHandler) Place(w http.ResponseWriter, r *http.Request) {
	id, err := auth.MustIdentity(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req placeOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	o, err := h.orders.PlaceOrder(r.Context(), id.UserID, order.PlaceOrderInput{
		PaymentMethod:   req.PaymentMethodID,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, placeOrderResponse{Message: "order placed successfully", Order: o})
}

func (h *orderHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := auth.MustIdentity(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), id.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *orderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := auth.MustIdentity(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	view, err := h.orders.GetOrder(r.Context(), id, chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *orderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := auth.MustIdentity(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.orders.CancelOrder(r.Context(), id, chi.URLParam(r, "orderID")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "order cancelled successfully"})
}

func (h *orderHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	id, err := auth.MustIdentity(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	session, err := h.orders.CreateCheckoutSession(r.Context(), id.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (h *orderHandler) CheckoutStatus(w http.ResponseWriter, r *http.Request) {
	id, err := auth.MustIdentity(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req checkoutStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	status, err := h.orders.CheckoutStatus(r.Context(), id.UserID, req.SessionID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, checkoutStatusResponse{Status: status})
}
