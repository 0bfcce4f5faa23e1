package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourbook/config"
	"tourbook/internal/auth"
	"tourbook/internal/database"
	"tourbook/internal/domain"
	"tourbook/internal/logger"
	"tourbook/internal/middleware"
	"tourbook/internal/models"
	"tourbook/internal/repository"
	"tourbook/pkg/cloudinary"
	"tourbook/pkg/lock"
	"tourbook/pkg/payment"
	"tourbook/pkg/queue"
)

const webhookSecret = "sk_test_router"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	engine *gin.Engine
	store  *repository.Store
	events *queue.Recorder
	jwt    *config.JWTConfig
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	cfg := &config.Config{
		Server:    config.ServerConfig{Env: "test"},
		JWT:       config.JWTConfig{AccessSecret: "router-test-secret", AccessExpiry: time.Hour, Issuer: "tourbook"},
		Paystack:  config.PaystackConfig{Currency: "NGN", CallbackURL: "http://localhost/cb", Timeout: time.Second},
		RateLimit: config.RateLimitConfig{Requests: 1000, Window: time.Minute},
	}
	cloud, err := cloudinary.NewClientFromParams("", "", "")
	require.NoError(t, err)
	events := &queue.Recorder{}
	engine := Setup(cfg, db, Deps{
		Cloud:   cloud,
		Gateway: payment.NewStubProvider(webhookSecret),
		Locker:  lock.NewLocal(),
		Events:  events,
		Limiter: middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
	}, logger.Discard())
	return &testServer{engine: engine, store: repository.NewStore(db), events: events, jwt: &cfg.JWT}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "Jane", "email": email, "password": "secret-pass"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBookingRequiresAuth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/v1/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCustomerCannotWriteCatalog(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "jane@example.com")
	w := s.do(t, http.MethodPost, "/api/v1/tours", token, gin.H{"title": "Safari"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBookAndPayThroughWebhook(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "jane@example.com")
	require.NoError(t, s.store.Tours.Create(&models.Tour{ID: 5, Title: "Safari", Destination: "Serengeti", Price: 200, MaxGuests: 10}))

	w := s.do(t, http.MethodPost, "/api/v1/bookings", token, gin.H{"tour_id": 5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Booking struct {
			ID     uint   `json:"id"`
			Status string `json:"status"`
		} `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, domain.BookingStatusPending, created.Booking.Status)

	w = s.do(t, http.MethodPost, "/api/v1/payments", token, gin.H{"booking_id": created.Booking.ID, "payment_method": domain.PaymentMethodCreditCard})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var initRes struct {
		Data struct {
			Reference        string `json:"reference"`
			AuthorizationURL string `json:"authorization_url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &initRes))
	ref := initRes.Data.Reference
	require.NotEmpty(t, ref)
	assert.NotEmpty(t, initRes.Data.AuthorizationURL)

	body := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"reference":%q,"status":"success","amount":20000}}`, ref))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("x-paystack-signature", "deadbeef")
	bad := httptest.NewRecorder()
	s.engine.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, "INVALID_SIGNATURE", decode(t, bad)["code"])

	req = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("x-paystack-signature", payment.Sign(body, webhookSecret))
	ok := httptest.NewRecorder()
	s.engine.ServeHTTP(ok, req)
	require.Equal(t, http.StatusOK, ok.Code, ok.Body.String())
	assert.Equal(t, true, decode(t, ok)["received"])

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", created.Booking.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"CONFIRMED"`)
	assert.Contains(t, s.events.Types(), domain.EventPaymentCompleted)

	w = s.do(t, http.MethodGet, "/api/v1/payments/callback?trxref="+ref, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
}

func TestCallbackWithoutReference(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/v1/payments/callback", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_REFERENCE", decode(t, w)["code"])
}

func TestBookingUnavailableRoomConflicts(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "jane@example.com")
	h := &models.Hotel{Name: "Lakeside", Location: "Kisumu"}
	require.NoError(t, s.store.Hotels.Create(h))
	room := &models.Room{HotelID: h.ID, RoomType: "DOUBLE", Price: 80, Capacity: 2, Available: true}
	require.NoError(t, s.store.Rooms.Create(room))

	w := s.do(t, http.MethodPost, "/api/v1/bookings", token, gin.H{"room_id": room.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/bookings", token, gin.H{"room_id": room.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CAPACITY_EXHAUSTED", decode(t, w)["code"])
}

func TestPublicCatalogRead(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.Tours.Create(&models.Tour{Title: "Safari", Destination: "Serengeti", Price: 200, MaxGuests: 10}))
	w := s.do(t, http.MethodGet, "/api/v1/tours", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Serengeti")
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	customer := s.register(t, "jane@example.com")
	admin := &models.User{Name: "Ada", Email: "ada@example.com", Role: domain.RoleAdmin}
	require.NoError(t, s.store.Users.Create(admin))
	token, err := auth.GenerateAccessToken(s.jwt, admin.ID, admin.Email, admin.Role)
	require.NoError(t, err)

	w := s.do(t, http.MethodGet, "/api/v1/admin/users", customer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/admin/users?role=CUSTOMER", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "jane@example.com")
	assert.NotContains(t, w.Body.String(), "ada@example.com")

	w = s.do(t, http.MethodPost, "/api/v1/admin/users", token, gin.H{"name": "Agent", "email": "agent@example.com", "password": "secret-pass", "role": domain.RoleAgent})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"role":"AGENT"`)
}
