package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// PaystackProvider talks to the Paystack transaction API.
type PaystackProvider struct {
	BaseURL   string
	SecretKey string
	client    *http.Client
	log       logrus.FieldLogger
}

func NewPaystackProvider(baseURL, secretKey string, timeout time.Duration, log logrus.FieldLogger) *PaystackProvider {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PaystackProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		SecretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
		log:       log.WithField("provider", "paystack"),
	}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitReq struct {
	Email       string                 `json:"email"`
	Amount      int64                  `json:"amount"`
	Currency    string                 `json:"currency,omitempty"`
	Reference   string                 `json:"reference"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Channels    []string               `json:"channels,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type paystackInitData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackVerifyData struct {
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (p *PaystackProvider) Initialize(ctx context.Context, req InitializeRequest) (*Initialization, error) {
	payload := paystackInitReq{
		Email:       req.Email,
		Amount:      ToMinor(req.Amount),
		Currency:    req.Currency,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	}
	if req.Channel != "" {
		payload.Channels = []string{req.Channel}
	}
	body, _ := json.Marshal(payload)
	var data paystackInitData
	if err := p.do(ctx, "initialize", http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return nil, err
	}
	if data.Reference == "" {
		data.Reference = req.Reference
	}
	p.log.WithFields(logrus.Fields{"reference": data.Reference, "amount_minor": payload.Amount}).Info("transaction initialized")
	return &Initialization{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

func (p *PaystackProvider) Verify(ctx context.Context, reference string) (*Verification, error) {
	var data paystackVerifyData
	if err := p.do(ctx, "verify", http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data); err != nil {
		return nil, err
	}
	if data.Reference == "" {
		data.Reference = reference
	}
	return &Verification{
		Status:      data.Status,
		Reference:   data.Reference,
		Amount:      FromMinor(data.Amount),
		AmountMinor: data.Amount,
		Currency:    data.Currency,
		Metadata:    decodeMetadata(data.Metadata),
	}, nil
}

func (p *PaystackProvider) VerifySignature(rawBody []byte, signature string) bool {
	return ValidSignature(rawBody, signature, p.SecretKey)
}

func (p *PaystackProvider) do(ctx context.Context, op, method, path string, body []byte, out interface{}) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, rd)
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+p.SecretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := p.client.Do(req)
	if err != nil {
		// transport failures, including deadline exceeded, are worth retrying
		return &GatewayError{Op: op, Temporary: true, Err: err}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &GatewayError{Op: op, StatusCode: resp.StatusCode, Temporary: true, Err: err}
	}
	var env paystackEnvelope
	decodeErr := json.Unmarshal(respBody, &env)
	if resp.StatusCode >= 500 {
		return &GatewayError{Op: op, StatusCode: resp.StatusCode, Message: env.Message, Temporary: true}
	}
	if resp.StatusCode >= 400 {
		p.log.WithFields(logrus.Fields{"op": op, "status": resp.StatusCode}).Warn("request rejected")
		return &GatewayError{Op: op, StatusCode: resp.StatusCode, Message: env.Message}
	}
	if decodeErr != nil {
		return &GatewayError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if !env.Status {
		return &GatewayError{Op: op, StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &GatewayError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode data: %w", err)}
		}
	}
	return nil
}

var _ Gateway = (*PaystackProvider)(nil)
