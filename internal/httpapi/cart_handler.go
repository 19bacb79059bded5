package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"storefront-be/internal/auth"
	"storefront-be/internal/cart"
)

type cartHandler struct {
	carts cart.Service
}

// colorField accepts either "red" or ["red", ...]. The first element of a
// list is the canonical color.
type colorField string

func (c *colorField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = colorField(s)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	if len(list) == 0 {
		*c = ""
		return nil
	}
	*c = colorField(list[0])
	return nil
}

type lineRequest struct {
	ProductID string     `json:"productId"`
	Quantity  int        `json:"quantity"`
	Size      string     `json:"size"`
	Color     colorField `json:"color"`
}

func (req lineRequest) input() cart.LineInput {
	return cart.LineInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Size:      req.Size,
		Color:     string(req.Color),
	}
}

type cartResponse struct {
	Message string     `json:"message"`
	Cart    *cart.View `json:"cart"`
}

func (h *cartHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := auth.MustIdentity(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	view, err := h.carts.GetCart(r.Context(), id.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *cartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "product added to cart", h.carts.AddOrUpdateLine)
}

func (h *cartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "cart updated", h.carts.UpdateLine)
}

func (h *cartHandler) mutate(w http.ResponseWriter, r *http.Request, message string,
	apply func(ctx context.Context, userID string, in cart.LineInput) (*cart.View, error),
) {
	id, err := auth.MustIdentity(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req lineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Color == "" {
		respondError(w, r, cart.ErrColorRequired)
		return
	}

	view, err := apply(r.Context(), id.UserID, req.input())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse{Message: message, Cart: view})
}

func (h *cartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := auth.MustIdentity(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req lineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Color == "" {
		respondError(w, r, cart.ErrColorRequired)
		return
	}

	view, err := h.carts.RemoveLine(r.Context(), id.UserID, cart.LineKey{
		ProductID: req.ProductID,
		Size:      req.Size,
		Color:     string(req.Color),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse{Message: "product removed from cart", Cart: view})
}

func (h *cartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	id, err := auth.MustIdentity(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.carts.DeleteCart(r.Context(), id.UserID); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "cart deleted"})
}
