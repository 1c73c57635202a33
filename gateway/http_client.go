package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type HTTPConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	GoID         string
	ReturnURL    string
	NotifyURL    string
	Lang         string
	HTTPClient   *http.Client
}

// HTTPClient talks to a GoPay style REST API.
type HTTPClient struct {
	cfg  HTTPConfig
	http *http.Client
}

func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Lang == "" {
		cfg.Lang = "cs"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HTTPClient{cfg: cfg, http: hc}
}

type paymentItem struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
	Count  int    `json:"count"`
	Type   string `json:"type"`
}

type createPaymentRequest struct {
	OrderNumber      string `json:"order_number"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	OrderDescription string `json:"order_description"`
	Lang             string `json:"lang"`
	Target           struct {
		Type string `json:"type"`
		GoID string `json:"goid"`
	} `json:"target"`
	Callback struct {
		ReturnURL       string `json:"return_url"`
		NotificationURL string `json:"notification_url"`
	} `json:"callback"`
	Items []paymentItem `json:"items"`
}

type createPaymentResponse struct {
	ID json.RawMessage `json:"id"`
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *HTTPClient) OpenPaymentSession(ctx context.Context, req SessionRequest) (string, error) {
	body := createPaymentRequest{
		OrderNumber:      req.OrderID,
		Amount:           req.Amount,
		Currency:         req.Currency,
		OrderDescription: req.Description,
		Lang:             c.cfg.Lang,
		Items: []paymentItem{
			{Name: "An item of the order", Amount: req.Amount, Count: 1, Type: "ITEM"},
		},
	}
	body.Target.Type = "ACCOUNT"
	body.Target.GoID = c.cfg.GoID
	body.Callback.ReturnURL = c.cfg.ReturnURL
	body.Callback.NotificationURL = c.cfg.NotifyURL

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/payments", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("payment gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &Error{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	var created createPaymentResponse
	if err := json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("failed to decode gateway response: %w", err)
	}
	id := sessionID(created.ID)
	if id == "" {
		return "", &Error{StatusCode: resp.StatusCode, Message: "response has no payment id"}
	}
	return id, nil
}

// sessionID accepts both numeric and string ids.
func sessionID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

func errorMessage(data []byte) string {
	var er errorResponse
	if err := json.Unmarshal(data, &er); err == nil && len(er.Errors) > 0 {
		msgs := make([]string, 0, len(er.Errors))
		for _, e := range er.Errors {
			msgs = append(msgs, e.Message)
		}
		return strings.Join(msgs, "; ")
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		return "empty response"
	}
	return msg
}
