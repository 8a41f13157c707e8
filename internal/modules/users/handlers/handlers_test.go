package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nitish151/stock-market-simulator/internal/api"
	"github.com/Nitish151/stock-market-simulator/internal/modules/users"
	testhelper "github.com/Nitish151/stock-market-simulator/internal/testing"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	db, cleanup := testhelper.NewTestDB(t, "ledger")
	t.Cleanup(cleanup)

	log := zerolog.Nop()
	repo := users.NewRepository(db.Conn(), log)
	service := users.NewService(repo, decimal.RequireFromString("10000.00"), log)

	router := chi.NewRouter()
	NewHandler(service, log).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router chi.Router, method, path, body string) (*httptest.ResponseRecorder, api.Response) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope api.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return rec, envelope
}

func TestHandleCreate(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doJSON(t, router, http.MethodPost, "/users", `{"username": "alice"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "alice", data["username"])
	assert.NotEmpty(t, data["uuid"])

	balance, err := decimal.NewFromString(data["balance"].(string))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("10000.00")))
}

func TestHandleCreateCustomBalance(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doJSON(t, router, http.MethodPost, "/users",
		`{"username": "bob", "balance": "250.50"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)

	data := envelope.Data.(map[string]interface{})
	balance, err := decimal.NewFromString(data["balance"].(string))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("250.50")))
}

func TestHandleCreateNegativeBalance(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/users",
		`{"username": "eve", "balance": "-5"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateMissingUsername(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/users", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGet(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doJSON(t, router, http.MethodPost, "/users", `{"username": "carol"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := int64(envelope.Data.(map[string]interface{})["id"].(float64))

	rec, envelope = doJSON(t, router, http.MethodGet, fmt.Sprintf("/users/%d", id), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "carol", envelope.Data.(map[string]interface{})["username"])
}

func TestHandleGetNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodGet, "/users/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleList(t *testing.T) {
	router := newTestRouter(t)

	for _, name := range []string{"u1", "u2", "u3"} {
		rec, _ := doJSON(t, router, http.MethodPost, "/users", `{"username": "`+name+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, envelope := doJSON(t, router, http.MethodGet, "/users", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	list, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, list, 3)
}
