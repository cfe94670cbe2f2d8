package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/cart"
	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/storage"
)

func newTestStore(t *testing.T) *cart.Store {
	t.Helper()
	slot := storage.NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	return cart.NewStore(context.Background(), slot)
}

func cartRouter(h *CartHandler) chi.Router {
	r := chi.NewRouter()
	r.Get("/cart", h.GetCart)
	r.Delete("/cart", h.ClearCart)
	r.Post("/cart/items", h.AddItem)
	r.Put("/cart/items/{index}", h.UpdateLine)
	r.Delete("/cart/items/{index}", h.RemoveItem)
	r.Put("/cart/customer", h.SetCustomer)
	return r
}

func TestAddItem_ReturnsCartWithTotals(t *testing.T) {
	sut := NewCartHandler(newTestStore(t))
	router := cartRouter(sut)

	body := `{"product":{"id":"pizza","name":"Pizza","price":"10.00"},"quantity":3,"modifiers":[{"modifier_ref":"cheese","name":"Extra cheese","price":"2.50"}]}`
	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CartResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.TotalItems)
	assert.Equal(t, "37.50", resp.TotalAmount)
	require.Len(t, resp.Session.Lines, 1)
	assert.Equal(t, "pizza", resp.Session.Lines[0].ProductRef)
}

func TestAddItem_DefaultsQuantityToOne(t *testing.T) {
	sut := NewCartHandler(newTestStore(t))
	router := cartRouter(sut)

	body := `{"product":{"id":"chai","name":"Chai","price":"1.50"}}`
	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CartResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalItems)
}

func TestAddItem_InvalidBody(t *testing.T) {
	sut := NewCartHandler(newTestStore(t))
	router := cartRouter(sut)

	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItem_NegativeQuantityRejected(t *testing.T) {
	store := newTestStore(t)
	sut := NewCartHandler(store)
	router := cartRouter(sut)

	body := `{"product":{"id":"p1","name":"P1","price":"10.00"},"quantity":-3}`
	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_quantity", resp.Code)

	// nothing entered the cart, totals stay at zero
	assert.Empty(t, store.Session().Lines)
	assert.Equal(t, 0, store.TotalItems())
	assert.True(t, store.TotalAmount().IsZero())
}

func TestAddItem_MissingProductID(t *testing.T) {
	sut := NewCartHandler(newTestStore(t))
	router := cartRouter(sut)

	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"quantity":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateLine_ZeroQuantityRemoves(t *testing.T) {
	store := newTestStore(t)
	sut := NewCartHandler(store)
	router := cartRouter(sut)

	add := func(body string) {
		req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	add(`{"product":{"id":"a","name":"A","price":"1.00"},"quantity":1}`)
	add(`{"product":{"id":"b","name":"B","price":"2.00"},"quantity":2}`)

	req := httptest.NewRequest(http.MethodPut, "/cart/items/0", strings.NewReader(`{"quantity":0}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CartResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Session.Lines, 1)
	assert.Equal(t, "b", resp.Session.Lines[0].ProductRef)
}

func TestUpdateLine_RemovalDoesNotLeakNotesToNextLine(t *testing.T) {
	store := newTestStore(t)
	sut := NewCartHandler(store)
	router := cartRouter(sut)

	add := func(body string) {
		req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	add(`{"product":{"id":"a","name":"A","price":"1.00"},"quantity":1}`)
	add(`{"product":{"id":"b","name":"B","price":"2.00"},"quantity":2,"notes":"keep these"}`)

	// removing quantity and notes in one request must not apply the
	// notes to the line that shifts into the freed index
	req := httptest.NewRequest(http.MethodPut, "/cart/items/0", strings.NewReader(`{"quantity":0,"notes":"goodbye"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CartResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Session.Lines, 1)
	assert.Equal(t, "b", resp.Session.Lines[0].ProductRef)
	assert.Equal(t, "keep these", resp.Session.Lines[0].Notes)
}

func TestUpdateLine_InvalidIndex(t *testing.T) {
	sut := NewCartHandler(newTestStore(t))
	router := cartRouter(sut)

	req := httptest.NewRequest(http.MethodPut, "/cart/items/abc", strings.NewReader(`{"quantity":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearCart(t *testing.T) {
	store := newTestStore(t)
	sut := NewCartHandler(store)
	router := cartRouter(sut)

	req := httptest.NewRequest(http.MethodPost, "/cart/items",
		strings.NewReader(`{"product":{"id":"a","name":"A","price":"1.00"},"quantity":5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/cart", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CartResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Session.Lines)
	assert.Equal(t, 0, resp.TotalItems)
}
