package httpapi

import (
	"context"
	"net/http"

	"storefront-be/internal/catalog"

	"github.com/go-chi/chi/v5"
)

type productHandler struct {
	catalog catalog.Service
}

func (h *productHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.catalog.ListProducts)
}

func (h *productHandler) Latest(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.catalog.LatestProducts)
}

func (h *productHandler) BestSelling(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.catalog.BestSelling)
}

func (h *productHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context) ([]*catalog.Product, error)) {
	products, err := fetch(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *productHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}
