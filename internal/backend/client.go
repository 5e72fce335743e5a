package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/smart-trolley/internal/domain"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxBodySize = 1 << 20 // 1MB

// Timeouts bound every backend call. Expiry is reported as ErrTransport.
type Timeouts struct {
	Fetch  time.Duration
	Action time.Duration
	Poll   time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Fetch:  5 * time.Second,
		Action: 30 * time.Second,
		Poll:   1500 * time.Millisecond,
	}
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeouts   Timeouts
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

func NewClient(baseURL string, timeouts Timeouts, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		timeouts: timeouts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetCart fetches the authoritative cart. A non-2xx reply or a body that
// does not decode is a fetch failure.
func (c *Client) GetCart(ctx context.Context) (*domain.CartSnapshot, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/cart", nil, c.timeouts.Fetch)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, fmt.Errorf("%w: GET /api/cart returned %d", ErrUnexpectedStatus, status)
	}

	var dto cartDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("%w: decode cart: %v", ErrMalformedResponse, err)
	}
	return dto.toSnapshot(time.Now())
}

func (c *Client) Scan(ctx context.Context, barcode string) (*ActionResult, error) {
	return c.action(ctx, "/api/scan", barcodeRequest{Barcode: barcode})
}

func (c *Client) RemoveOne(ctx context.Context, barcode string) (*ActionResult, error) {
	return c.action(ctx, "/api/remove-one", barcodeRequest{Barcode: barcode})
}

func (c *Client) StartPayment(ctx context.Context) (*ActionResult, error) {
	return c.action(ctx, "/api/start-payment", nil)
}

func (c *Client) PaymentDone(ctx context.Context) (*ActionResult, error) {
	return c.action(ctx, "/api/payment-done", nil)
}

func (c *Client) SecurityCheck(ctx context.Context, passkey string, confirm bool) (*ActionResult, error) {
	return c.action(ctx, "/api/security-check", securityCheckRequest{Passkey: passkey, Confirm: confirm})
}

func (c *Client) Monitor(ctx context.Context) (*MonitorResult, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/monitor", nil, c.timeouts.Poll)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, fmt.Errorf("%w: GET /api/monitor returned %d", ErrUnexpectedStatus, status)
	}

	var result MonitorResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decode monitor: %v", ErrMalformedResponse, err)
	}
	return &result, nil
}

func (c *Client) Weight(ctx context.Context) (float64, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/get_weight", nil, c.timeouts.Poll)
	if err != nil {
		return 0, err
	}
	if !isSuccess(status) {
		return 0, fmt.Errorf("%w: GET /api/get_weight returned %d", ErrUnexpectedStatus, status)
	}

	var dto weightDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return 0, fmt.Errorf("%w: decode weight: %v", ErrMalformedResponse, err)
	}
	if dto.Weight == nil {
		return 0, fmt.Errorf("%w: weight missing", ErrMalformedResponse)
	}
	return *dto.Weight, nil
}

// PaymentQR returns the PNG encoding the payment link.
func (c *Client) PaymentQR(ctx context.Context) ([]byte, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/payment-qr", nil, c.timeouts.Fetch)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		var result ActionResult
		if json.Unmarshal(body, &result) == nil && result.Message != "" {
			return nil, fmt.Errorf("%w: GET /api/payment-qr returned %d: %s", ErrUnexpectedStatus, status, result.Message)
		}
		return nil, fmt.Errorf("%w: GET /api/payment-qr returned %d", ErrUnexpectedStatus, status)
	}
	if http.DetectContentType(body) != "image/png" {
		return nil, fmt.Errorf("%w: payment qr is not a png", ErrMalformedResponse)
	}
	return body, nil
}

// action posts to one of the mutating endpoints. The backend answers
// rejections with a 4xx status and the same JSON shape, so the body is
// decoded whatever the status.
func (c *Client) action(ctx context.Context, path string, payload any) (*ActionResult, error) {
	status, body, err := c.do(ctx, http.MethodPost, path, payload, c.timeouts.Action)
	if err != nil {
		return nil, err
	}

	var result ActionResult
	if err := json.Unmarshal(body, &result); err != nil {
		if !isSuccess(status) {
			return nil, fmt.Errorf("%w: POST %s returned %d", ErrUnexpectedStatus, path, status)
		}
		return nil, fmt.Errorf("%w: decode %s: %v", ErrMalformedResponse, path, err)
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, timeout time.Duration) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel() // releases resources if the call completes before timeout elapses

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal %s request: %w", path, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read %s body: %w", ErrTransport, path, err)
	}
	return resp.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

type requestIDKey struct{}

// WithRequestID makes outgoing calls carry id instead of a fresh one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
