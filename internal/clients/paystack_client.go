package clients

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Ojay1963/Delxta/internal/domain"
)

const PaystackSignatureHeader = "x-paystack-signature"

type InitializeRequest struct {
	Email            string
	AmountMinorUnits int64
	Reference        string
	CallbackURL      string
	Metadata         map[string]any
}

type Initialization struct {
	AuthorizationURL string `json:"authorizationUrl"`
	Reference        string `json:"reference"`
	AccessCode       string `json:"accessCode"`
}

type Verification struct {
	Status           string         `json:"status"`
	AmountMinorUnits int64          `json:"amount"`
	Reference        string         `json:"reference"`
	TransactionID    int64          `json:"id"`
	Channel          string         `json:"channel"`
	Currency         string         `json:"currency,omitempty"`
	PaidAt           string         `json:"paidAt,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// MetadataString returns a string metadata value, or "" when absent.
func (v *Verification) MetadataString(key string) string {
	if v == nil || v.Metadata == nil {
		return ""
	}
	s, _ := v.Metadata[key].(string)
	return s
}

// PaymentGateway is the hosted-payment capability. Every failure is a domain GatewayError.
type PaymentGateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*Initialization, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
	VerifyWebhookSignature(body []byte, signature string) bool
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackVerifyData struct {
	ID        int64           `json:"id"`
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Channel   string          `json:"channel"`
	Currency  string          `json:"currency"`
	PaidAt    string          `json:"paid_at"`
	Metadata  json.RawMessage `json:"metadata"`
}

var _ PaymentGateway = (*PaystackClient)(nil)

type PaystackClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
	log       *logrus.Logger
}

func NewPaystackClient(baseURL, secretKey string, timeout time.Duration, logger *logrus.Logger) *PaystackClient {
	return &PaystackClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client: &http.Client{
			Timeout: timeout,
		},
		log: logger,
	}
}

func (c *PaystackClient) Initialize(ctx context.Context, req InitializeRequest) (*Initialization, error) {
	c.log.Infof("PaystackClient: Initializing transaction %s for %d minor units", req.Reference, req.AmountMinorUnits)

	payload := map[string]any{
		"email":     req.Email,
		"amount":    req.AmountMinorUnits,
		"reference": req.Reference,
		"metadata":  req.Metadata,
	}
	if req.CallbackURL != "" {
		payload["callback_url"] = req.CallbackURL
	}

	var data paystackInitData
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", payload, &data); err != nil {
		return nil, err
	}

	c.log.Infof("PaystackClient: Transaction %s initialized", data.Reference)
	return &Initialization{
		AuthorizationURL: data.AuthorizationURL,
		Reference:        data.Reference,
		AccessCode:       data.AccessCode,
	}, nil
}

func (c *PaystackClient) Verify(ctx context.Context, reference string) (*Verification, error) {
	c.log.Infof("PaystackClient: Verifying transaction %s", reference)

	var data paystackVerifyData
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}

	verification := &Verification{
		Status:           data.Status,
		AmountMinorUnits: data.Amount,
		Reference:        data.Reference,
		TransactionID:    data.ID,
		Channel:          data.Channel,
		Currency:         data.Currency,
		PaidAt:           data.PaidAt,
	}
	// Paystack sends metadata as an object, or as "" when none was attached.
	if len(data.Metadata) > 0 && data.Metadata[0] == '{' {
		if err := json.Unmarshal(data.Metadata, &verification.Metadata); err != nil {
			c.log.Warnf("PaystackClient: Ignoring undecodable metadata for %s: %v", reference, err)
		}
	}

	c.log.Infof("PaystackClient: Transaction %s verified with status=%s amount=%d", reference, data.Status, data.Amount)
	return verification, nil
}

// VerifyWebhookSignature checks the hex HMAC-SHA512 of the raw body against the signature header.
func (c *PaystackClient) VerifyWebhookSignature(body []byte, signature string) bool {
	if c.secretKey == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

func (c *PaystackClient) do(ctx context.Context, method, path string, payload any, out any) error {
	if c.secretKey == "" {
		c.log.Error("PaystackClient: Secret key is not configured")
		return domain.NewGatewayError(domain.CodeGatewayNotConfigured, "Paystack is not configured on the server.", nil)
	}

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "failed to encode paystack request")
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "failed to create paystack request %s %s", method, path)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Errorf("PaystackClient: Request %s %s failed: %v", method, path, err)
		return domain.NewGatewayError(domain.CodeGatewayUnavailable, "Payment gateway is unreachable. Please retry.",
			errors.Wrapf(err, "paystack %s %s", method, path))
	}
	defer resp.Body.Close()

	var envelope paystackEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		c.log.Errorf("PaystackClient: Failed to decode response for %s %s (status %d): %v", method, path, resp.StatusCode, err)
		return domain.NewGatewayError(domain.CodeGatewayUnavailable, "Payment gateway returned an unreadable response.",
			errors.Wrapf(err, "decode paystack response (status %d)", resp.StatusCode))
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.log.Errorf("PaystackClient: %s %s returned status %d: %s", method, path, resp.StatusCode, envelope.Message)
		return domain.NewGatewayError(domain.CodeGatewayUnavailable, "Payment gateway is unavailable. Please retry.",
			fmt.Errorf("paystack status %d: %s", resp.StatusCode, envelope.Message))
	}
	if resp.StatusCode != http.StatusOK || !envelope.Status {
		message := envelope.Message
		if message == "" {
			message = "Paystack request failed."
		}
		c.log.Warnf("PaystackClient: %s %s rejected with status %d: %s", method, path, resp.StatusCode, message)
		return domain.NewGatewayError(domain.CodeGatewayRejected, message,
			fmt.Errorf("paystack status %d", resp.StatusCode))
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return domain.NewGatewayError(domain.CodeGatewayUnavailable, "Payment gateway returned an unreadable response.",
				errors.Wrap(err, "decode paystack data"))
		}
	}
	return nil
}
