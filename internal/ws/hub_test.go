package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tourbook/config"
	"tourbook/internal/auth"
	"tourbook/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendToUserReachesEveryConnection(t *testing.T) {
	h := NewHub()
	a, b, other := NewClient(1, "CUSTOMER"), NewClient(1, "CUSTOMER"), NewClient(2, "CUSTOMER")
	h.Register(a)
	h.Register(b)
	h.Register(other)
	assert.Equal(t, 3, h.ClientCount())

	h.SendToUser(1, map[string]string{"type": "PAYMENT_CONFIRMED"})
	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			assert.JSONEq(t, `{"type":"PAYMENT_CONFIRMED"}`, string(msg))
		default:
			t.Fatal("message not delivered")
		}
	}
	assert.Empty(t, other.Send)
}

func TestClosedClientIsUnregistered(t *testing.T) {
	h := NewHub()
	c := NewClient(1, "CUSTOMER")
	h.Register(c)
	c.Close()
	c.Close()
	assert.Zero(t, h.ClientCount())
	h.SendToUser(1, "ignored")
}

func TestFullBufferDropsMessages(t *testing.T) {
	h := NewHub()
	c := NewClient(1, "CUSTOMER")
	h.Register(c)
	for i := 0; i < cap(c.Send)+10; i++ {
		h.SendToUser(1, i)
	}
	assert.Len(t, c.Send, cap(c.Send))
}

func TestUpgradePaymentsWS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.JWTConfig{AccessSecret: "test-secret", AccessExpiry: time.Hour, Issuer: "tourbook"}
	hub := NewHub()
	r := gin.New()
	r.GET("/ws/payments", UpgradePaymentsWS(cfg, hub, logger.Discard()))
	srv := httptest.NewServer(r)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/payments"

	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := auth.GenerateAccessToken(cfg, 42, "c@example.com", "CUSTOMER")
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(base+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	hub.SendToUser(42, map[string]interface{}{"type": "PAYMENT_CONFIRMED", "payment_id": 7})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello, got map[string]interface{}
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello["type"])
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "PAYMENT_CONFIRMED", got["type"])
}

func TestUpgradePaymentsWSRejectsExpiredToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.JWTConfig{AccessSecret: "test-secret", AccessExpiry: -time.Hour, Issuer: "tourbook"}
	r := gin.New()
	r.GET("/ws/payments", UpgradePaymentsWS(cfg, NewHub(), logger.Discard()))
	srv := httptest.NewServer(r)
	defer srv.Close()

	token, err := auth.GenerateAccessToken(cfg, 42, "c@example.com", "CUSTOMER")
	require.NoError(t, err)
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/payments?token="+token, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
