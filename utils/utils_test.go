package utils

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-eshop/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	JwtKey = []byte("test-secret")

	token, err := GenerateJWT("user-1", "a@example.com", models.RoleAdmin)
	require.NoError(t, err)

	claims, err := ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestParseJWT_WrongKey(t *testing.T) {
	JwtKey = []byte("key-a")
	token, err := GenerateJWT("user-1", "a@example.com", models.RoleUser)
	require.NoError(t, err)

	JwtKey = []byte("key-b")
	_, err = ParseJWT(token)
	assert.Error(t, err)
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	k := NewKeyedMutex()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("user-1")
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, k.Len())
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	k := NewKeyedMutex()
	unlockA := k.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := k.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "10.00 CZK", FormatAmount(1000, "CZK"))
	assert.Equal(t, "0.05 EUR", FormatAmount(5, "EUR"))
	assert.Equal(t, "-1.50 USD", FormatAmount(-150, "USD"))
}

func TestPaymentConfirmation_ContainsOrderID(t *testing.T) {
	subject, body := PaymentConfirmation(&models.Order{ID: "abc123", Amount: 1000, Currency: "CZK"})
	assert.Contains(t, subject, "abc123")
	assert.Contains(t, body, "abc123")
	assert.Contains(t, body, "10.00 CZK")
}

func TestNewEmailService(t *testing.T) {
	_, err := NewEmailService(Config{EmailProvider: "postmark"}, DiscardLogger())
	assert.Error(t, err)

	_, err = NewEmailService(Config{EmailProvider: "sendgrid"}, DiscardLogger())
	assert.Error(t, err)

	_, err = NewEmailService(Config{EmailProvider: "pigeon"}, DiscardLogger())
	assert.Error(t, err)

	es, err := NewEmailService(Config{EmailProvider: "log"}, DiscardLogger())
	require.NoError(t, err)
	assert.NoError(t, es.Send(context.Background(), "a@example.com", "hi", "body"))
}

func TestNewEmailService_PostmarkHasTimeout(t *testing.T) {
	es, err := NewEmailService(Config{EmailProvider: "postmark", PostmarkAPIToken: "token"}, DiscardLogger())
	require.NoError(t, err)
	require.NotNil(t, es.postmark.HTTPClient)
	assert.Equal(t, postmarkTimeout, es.postmark.HTTPClient.Timeout)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("GATEWAY_TIMEOUT", "250ms")
	t.Setenv("CART_MAX_RETRIES", "not-a-number")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SIDE_EFFECT_TIMEOUT", "")

	cfg := LoadConfig()
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.GatewayTimeout)
	assert.Equal(t, 5, cfg.CartMaxRetries)
	assert.Equal(t, 5*time.Second, cfg.SideEffectTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}
