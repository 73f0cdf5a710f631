package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-parking-payment/internal/kvstore"
	"go-parking-payment/internal/model"
	"go-parking-payment/internal/service"
	"go-parking-payment/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWatcher struct {
	watched []int
}

func (w *fakeWatcher) WatchUser(userID int) {
	w.watched = append(w.watched, userID)
}

type ticketFixture struct {
	router  *gin.Engine
	tickets store.TicketStore
	balance store.BalanceStore
	watcher *fakeWatcher
}

func setupTicketRouter(t *testing.T) *ticketFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kv := kvstore.NewMemoryStore()
	f := &ticketFixture{
		tickets: store.NewTicketStore(kv),
		balance: store.NewKVBalanceStore(kv),
		watcher: &fakeWatcher{},
	}

	svc := service.NewTicketService(f.tickets, f.balance)
	f.router = gin.New()
	NewTicketHandler(svc, f.watcher, 15).RegisterRoutes(f.router, stubAuth(1))
	return f
}

func seedActiveTicket(t *testing.T, f *ticketFixture, id string, durationMin int, amount float64) {
	t.Helper()
	start := time.Now().Add(-10 * time.Minute)
	require.NoError(t, f.tickets.SaveTickets(context.Background(), 1, []*model.ParkingTicket{{
		ID:           id,
		Status:       model.TicketStatusActive,
		CreatedAtISO: model.FormatISO(start),
		Plate:        "WX12345",
		Zone:         "A",
		StartISO:     model.FormatISO(start),
		EndISO:       model.FormatISO(start.Add(time.Duration(durationMin) * time.Minute)),
		DurationMin:  durationMin,
		Amount:       amount,
	}}))
}

func TestPurchaseTicket(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := setupTicketRouter(t)
		require.NoError(t, f.balance.SetBalance(context.Background(), 1, 20))

		req := createJSONHTTPRequest("POST", "/api/v1/tickets", PurchaseTicketRequest{
			Plate:       "wx12345",
			Zone:        "A",
			DurationMin: 64,
		})
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		body := decodeJSONBody(w.Body)
		assert.Equal(t, "WX12345", body["plate"])
		assert.Equal(t, "Strefa A (centrum)", body["zoneName"])
		assert.Equal(t, 75.0, body["durationMin"])
		assert.Equal(t, 7.5, body["amount"])
		assert.Equal(t, "active", body["temporal_status"])
		assert.Empty(t, f.watcher.watched)
	})

	t.Run("NotifyRegistersWatcher", func(t *testing.T) {
		f := setupTicketRouter(t)
		require.NoError(t, f.balance.SetBalance(context.Background(), 1, 20))

		req := createJSONHTTPRequest("POST", "/api/v1/tickets", PurchaseTicketRequest{
			Plate:           "WX12345",
			Zone:            "C",
			DurationMin:     30,
			NotifyBeforeEnd: true,
		})
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, []int{1}, f.watcher.watched)
	})

	t.Run("Failed - InsufficientBalance", func(t *testing.T) {
		f := setupTicketRouter(t)

		req := createJSONHTTPRequest("POST", "/api/v1/tickets", PurchaseTicketRequest{
			Plate:       "WX12345",
			Zone:        "A",
			DurationMin: 60,
		})
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusPaymentRequired, w.Code)
		body := decodeJSONBody(w.Body)
		assert.Equal(t, "Top up your balance to pay for this ticket", body["error"])
	})

	t.Run("Failed - UnknownZone", func(t *testing.T) {
		f := setupTicketRouter(t)
		require.NoError(t, f.balance.SetBalance(context.Background(), 1, 20))

		req := createJSONHTTPRequest("POST", "/api/v1/tickets", PurchaseTicketRequest{
			Plate:       "WX12345",
			Zone:        "Z",
			DurationMin: 60,
		})
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed - InvalidStartISO", func(t *testing.T) {
		f := setupTicketRouter(t)
		require.NoError(t, f.balance.SetBalance(context.Background(), 1, 20))

		req := createJSONHTTPRequest("POST", "/api/v1/tickets", PurchaseTicketRequest{
			Plate:       "WX12345",
			Zone:        "A",
			DurationMin: 60,
			StartISO:    "not-a-date",
		})
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed - BindingError", func(t *testing.T) {
		f := setupTicketRouter(t)

		req := createJSONHTTPRequest("POST", "/api/v1/tickets", InvalidJSON)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestExtendTicket(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := setupTicketRouter(t)
		require.NoError(t, f.balance.SetBalance(context.Background(), 1, 10))
		seedActiveTicket(t, f, "t1", 60, 6.0)

		req := createJSONHTTPRequest("POST", "/api/v1/tickets/t1/extend", ExtendTicketRequest{Minutes: 15})
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeJSONBody(w.Body)
		assert.Equal(t, 1.5, body["extra_cost"])
		ticket := body["ticket"].(map[string]interface{})
		assert.Equal(t, 75.0, ticket["durationMin"])
		assert.Equal(t, 7.5, ticket["amount"])
	})

	t.Run("EmptyBodyUsesDefaultMinutes", func(t *testing.T) {
		f := setupTicketRouter(t)
		require.NoError(t, f.balance.SetBalance(context.Background(), 1, 10))
		seedActiveTicket(t, f, "t1", 60, 6.0)

		req := httptest.NewRequest("POST", "/api/v1/tickets/t1/extend", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeJSONBody(w.Body)
		ticket := body["ticket"].(map[string]interface{})
		// 預設延長 15 分鐘
		assert.Equal(t, 75.0, ticket["durationMin"])
	})

	t.Run("Failed - TicketNotFound", func(t *testing.T) {
		f := setupTicketRouter(t)

		req := httptest.NewRequest("POST", "/api/v1/tickets/missing/extend", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Failed - InsufficientBalance", func(t *testing.T) {
		f := setupTicketRouter(t)
		seedActiveTicket(t, f, "t1", 60, 6.0)

		req := httptest.NewRequest("POST", "/api/v1/tickets/t1/extend", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})
}

func TestCurrentTicket(t *testing.T) {
	t.Run("NoTickets", func(t *testing.T) {
		f := setupTicketRouter(t)

		req := httptest.NewRequest("GET", "/api/v1/tickets/current", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})

	t.Run("ActiveTicket", func(t *testing.T) {
		f := setupTicketRouter(t)
		seedActiveTicket(t, f, "t1", 60, 6.0)

		req := httptest.NewRequest("GET", "/api/v1/tickets/current", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeJSONBody(w.Body)
		assert.Equal(t, "t1", body["id"])
		assert.Equal(t, "active", body["temporal_status"])
		assert.Greater(t, body["remaining_sec"].(float64), 0.0)
	})
}

func TestListTickets(t *testing.T) {
	f := setupTicketRouter(t)
	seedActiveTicket(t, f, "t1", 60, 6.0)

	req := httptest.NewRequest("GET", "/api/v1/tickets", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "t1", list[0]["id"])
}
