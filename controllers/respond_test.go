package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-eshop/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", fmt.Errorf("%w: amount", services.ErrInvalidRequest), http.StatusBadRequest},
		{"cart not found", services.ErrCartNotFound, http.StatusNotFound},
		{"order not found", services.ErrOrderNotFound, http.StatusNotFound},
		{"gateway", fmt.Errorf("%w: %w", services.ErrPaymentGateway, errors.New("dial tcp")), http.StatusBadGateway},
		{"contention", services.ErrCartContention, http.StatusConflict},
		{"transition", services.ErrIllegalTransition, http.StatusConflict},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestWriteServiceError_HidesInternalDetails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()

	writeServiceError(rec, req, logger, errors.New("mongo: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "internal error", body.Message)
	assert.Equal(t, "Internal Server Error", body.Error)
	assert.Equal(t, "/api/cart", body.Path)
	assert.Equal(t, http.StatusInternalServerError, body.Status)
}

func TestWriteServiceError_KeepsClientMessage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	req := httptest.NewRequest(http.MethodPost, "/api/orders/create", nil)
	rec := httptest.NewRecorder()

	writeServiceError(rec, req, logger, services.ErrCartNotFound)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, services.ErrCartNotFound.Error(), body.Message)
}
