package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/cart"
	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/domain"
)

type CartHandler struct {
	store *cart.Store
}

func NewCartHandler(store *cart.Store) *CartHandler {
	return &CartHandler{store: store}
}

type AddItemRequestDTO struct {
	Product   domain.Product    `json:"product"`
	Quantity  int               `json:"quantity"`
	Notes     string            `json:"notes"`
	Modifiers []domain.Modifier `json:"modifiers"`
}

type UpdateLineRequestDTO struct {
	Quantity *int    `json:"quantity,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

type CartResponseDTO struct {
	Session     domain.CartSession `json:"session"`
	TotalItems  int                `json:"total_items"`
	TotalAmount string             `json:"total_amount"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.cartResponse())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Product.ID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product", "product.id is required")
		return
	}
	if req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	h.store.AddItem(r.Context(), req.Product, req.Quantity, req.Notes, req.Modifiers)
	respondJSON(w, http.StatusCreated, h.cartResponse())
}

func (h *CartHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}

	var req UpdateLineRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// notes first: a removing quantity update shifts later indices, and
	// the notes must land on the addressed line, not its successor
	if req.Notes != nil {
		h.store.UpdateNotes(r.Context(), index, *req.Notes)
	}
	if req.Quantity != nil {
		h.store.UpdateQuantity(r.Context(), index, *req.Quantity)
	}
	respondJSON(w, http.StatusOK, h.cartResponse())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}

	h.store.RemoveItem(r.Context(), index)
	respondJSON(w, http.StatusOK, h.cartResponse())
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.store.Clear(r.Context())
	respondJSON(w, http.StatusOK, h.cartResponse())
}

func (h *CartHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var req domain.Customer
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.store.SetCustomer(r.Context(), req)
	respondJSON(w, http.StatusOK, h.cartResponse())
}

func (h *CartHandler) SetFulfillment(w http.ResponseWriter, r *http.Request) {
	var req domain.Fulfillment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.store.SetFulfillment(r.Context(), req)
	respondJSON(w, http.StatusOK, h.cartResponse())
}

func (h *CartHandler) cartResponse() CartResponseDTO {
	return CartResponseDTO{
		Session:     h.store.Session(),
		TotalItems:  h.store.TotalItems(),
		TotalAmount: h.store.TotalAmount().StringFixed(2),
	}
}

func lineIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	indexStr := chi.URLParam(r, "index")
	index, err := strconv.Atoi(indexStr)
	if err != nil || index < 0 {
		respondError(w, http.StatusBadRequest, "invalid_index", "index must be a non-negative integer")
		return 0, false
	}
	return index, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
