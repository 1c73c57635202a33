package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_OpenPaymentSession(t *testing.T) {
	var got createPaymentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/payments", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 3000006529, "state": "CREATED"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(HTTPConfig{
		BaseURL:      srv.URL + "/api/",
		ClientID:     "client",
		ClientSecret: "secret",
		GoID:         "8123456789",
		NotifyURL:    "https://shop.example.com/api/orders/verify",
	})
	id, err := c.OpenPaymentSession(context.Background(), SessionRequest{
		OrderID: "order-1", Amount: 1000, Currency: "CZK", Description: "Payment for an order: order-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "3000006529", id)
	assert.Equal(t, "order-1", got.OrderNumber)
	assert.Equal(t, int64(1000), got.Amount)
	assert.Equal(t, "CZK", got.Currency)
	assert.Equal(t, "8123456789", got.Target.GoID)
	assert.Equal(t, "https://shop.example.com/api/orders/verify", got.Callback.NotificationURL)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(1000), got.Items[0].Amount)
}

func TestHTTPClient_StringID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "sess-42"}`))
	}))
	defer srv.Close()

	id, err := NewHTTPClient(HTTPConfig{BaseURL: srv.URL}).OpenPaymentSession(context.Background(), SessionRequest{OrderID: "o", Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, "sess-42", id)
}

func TestHTTPClient_RemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":[{"message":"invalid goid"}]}`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(HTTPConfig{BaseURL: srv.URL}).OpenPaymentSession(context.Background(), SessionRequest{OrderID: "o", Amount: 1})

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusForbidden, gwErr.StatusCode)
	assert.Equal(t, "invalid goid", gwErr.Message)
}

func TestHTTPClient_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"state": "CREATED"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(HTTPConfig{BaseURL: srv.URL}).OpenPaymentSession(context.Background(), SessionRequest{OrderID: "o", Amount: 1})
	var gwErr *Error
	assert.ErrorAs(t, err, &gwErr)
}

func TestHTTPClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewHTTPClient(HTTPConfig{BaseURL: srv.URL}).OpenPaymentSession(ctx, SessionRequest{OrderID: "o", Amount: 1})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type failingClient struct {
	calls int
	err   error
}

func (f *failingClient) OpenPaymentSession(context.Context, SessionRequest) (string, error) {
	f.calls++
	return "", f.err
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &failingClient{err: errors.New("connection refused")}
	b := NewBreaker(next, BreakerConfig{MaxFailures: 3, CoolDown: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := b.OpenPaymentSession(context.Background(), SessionRequest{})
		assert.EqualError(t, err, "connection refused")
	}

	_, err := b.OpenPaymentSession(context.Background(), SessionRequest{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, next.calls)
}

type okClient struct{}

func (okClient) OpenPaymentSession(_ context.Context, req SessionRequest) (string, error) {
	return "sess-" + req.OrderID, nil
}

func TestBreaker_PassesThrough(t *testing.T) {
	b := NewBreaker(okClient{}, BreakerConfig{})
	id, err := b.OpenPaymentSession(context.Background(), SessionRequest{OrderID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", id)
}
