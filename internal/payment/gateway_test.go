package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGateway_CreateAndGetSession(t *testing.T) {
	var created CreateSessionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/checkout/sessions":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			_ = json.NewEncoder(w).Encode(Session{ID: "cs_1", PaymentStatus: "unpaid", AmountTotal: 3000, Metadata: created.Metadata})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/checkout/sessions/cs_1":
			_ = json.NewEncoder(w).Encode(Session{ID: "cs_1", PaymentStatus: StatusPaid, AmountTotal: 3000, Metadata: map[string]string{"userId": "u1"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL+"/", "sk_test", time.Second)

	sess, err := g.CreateSession(context.Background(), CreateSessionRequest{
		Currency:  "usd",
		LineItems: []LineItem{{ProductID: "p1", Name: "lamp", UnitAmount: 1500, Quantity: 2}},
		Metadata:  map[string]string{"userId": "u1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", sess.ID)
	assert.Equal(t, "u1", sess.Metadata["userId"])
	require.Len(t, created.LineItems, 1)
	assert.EqualValues(t, 1500, created.LineItems[0].UnitAmount)

	got, err := g.GetSession(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, got.PaymentStatus)
}

func TestHTTPGateway_ErrorsAreGatewayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "card network down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "", time.Second)
	_, err := g.GetSession(context.Background(), "cs_1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGateway)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPGateway_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	g := NewHTTPGateway(srv.URL, "", 50*time.Millisecond)
	_, err := g.GetSession(context.Background(), "cs_1")
	assert.ErrorIs(t, err, ErrGateway)
}

func TestNew_UnconfiguredWithoutURL(t *testing.T) {
	g := New("", "", 0)
	_, err := g.CreateSession(context.Background(), CreateSessionRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, ok := New("http://pay.local", "k", 0).(*HTTPGateway)
	assert.True(t, ok)
}
