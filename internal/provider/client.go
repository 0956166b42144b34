package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/obs"
)

// API is the set of provider operations the rest of the engine consumes.
// Orchestrators depend on this interface so tests can stub the provider.
type API interface {
	Multicomplete(ctx context.Context, query, language string) (*MulticompleteResponse, error)
	SearchRegion(ctx context.Context, req *SERPRequest) (*SERPResponse, error)
	HotelPage(ctx context.Context, req *HotelPageRequest) (*HotelPageResponse, error)
	Prebook(ctx context.Context, req *PrebookRequest) (*PrebookResponse, error)
	BookingForm(ctx context.Context, req *BookingFormRequest) (*BookingFormResponse, error)
	BookingFinish(ctx context.Context, req *BookingFinishRequest) (*BookingFinishResponse, error)
	BookingStatus(ctx context.Context, partnerOrderID string) (*BookingStatusResponse, error)
	OrderInfo(ctx context.Context, partnerOrderID string) (*OrderInfoResponse, error)
	Cancel(ctx context.Context, partnerOrderID string) (*CancelResponse, error)
}

// Client calls the inventory provider over HTTPS with static key-pair
// credentials. It retries 429 responses with backoff before surfacing a
// rate-limited error; every other failure is returned on first sight.
type Client struct {
	baseURL    string
	keyID      string
	key        string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *obs.Metrics

	retryAttempts int
	retryBaseWait time.Duration
}

func NewClient(baseURL, keyID, key string, timeout time.Duration, logger *slog.Logger, m *obs.Metrics) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		keyID:         keyID,
		key:           key,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
		metrics:       m,
		retryAttempts: 3,
		retryBaseWait: 3 * time.Second,
	}
}

// envelope is the provider's standard response wrapper.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Status string          `json:"status"`
	Error  string          `json:"error"`
}

func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return WrapError(KindValidation, endpoint, err)
	}

	// Only 429 responses are retried here: three retries after the
	// initial call, waiting 3s, 6s, 9s before giving up.
	for attempt := 0; ; attempt++ {
		start := time.Now()
		err := c.doOnce(ctx, endpoint, body, out)
		c.metrics.ObserveProviderLatency(endpoint, time.Since(start).Seconds())
		if err == nil {
			return nil
		}
		if !IsKind(err, KindRateLimited) || attempt == c.retryAttempts {
			c.metrics.IncProviderFailure(endpoint)
			return err
		}
		wait := time.Duration(attempt+1) * c.retryBaseWait
		c.logger.Warn("provider rate limited, backing off",
			"endpoint", endpoint, "retry", attempt+1, "wait", wait.String())
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return WrapError(KindUnavailable, endpoint, ctx.Err())
		}
	}
}

func (c *Client) doOnce(ctx context.Context, endpoint string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return WrapError(KindUnavailable, endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return WrapError(KindUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewError(KindRateLimited, endpoint, "provider returned 429")
	case resp.StatusCode == http.StatusNotFound:
		return NewError(KindNotFound, endpoint, "provider returned 404")
	case resp.StatusCode >= 500:
		return NewError(KindUnavailable, endpoint, fmt.Sprintf("provider returned %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return NewError(KindValidation, endpoint, fmt.Sprintf("provider rejected request with %d", resp.StatusCode))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return WrapError(KindUnavailable, endpoint, err)
	}
	if env.Status == "error" || env.Error != "" {
		return classifyAPIError(endpoint, env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return WrapError(KindUnavailable, endpoint, err)
		}
	}
	return nil
}

// classifyAPIError maps the provider's textual error codes onto the kind
// taxonomy.
func classifyAPIError(endpoint, apiErr string) *Error {
	msg := strings.ToLower(apiErr)
	switch {
	case strings.Contains(msg, "sandbox"), strings.Contains(msg, "test mode"):
		return NewError(KindSandbox, endpoint, apiErr)
	case strings.Contains(msg, "not found"), strings.Contains(msg, "unknown hotel"), strings.Contains(msg, "order_not_found"):
		return NewError(KindNotFound, endpoint, apiErr)
	case strings.Contains(msg, "no rates"), strings.Contains(msg, "rate_not_found"), strings.Contains(msg, "hash expired"):
		return NewError(KindTransient, endpoint, apiErr)
	case strings.Contains(msg, "too many requests"):
		return NewError(KindRateLimited, endpoint, apiErr)
	default:
		return NewError(KindUnavailable, endpoint, apiErr)
	}
}

func (c *Client) Multicomplete(ctx context.Context, query, language string) (*MulticompleteResponse, error) {
	var out MulticompleteResponse
	payload := map[string]string{"query": query, "language": language}
	if err := c.post(ctx, "/search/multicomplete/", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchRegion(ctx context.Context, req *SERPRequest) (*SERPResponse, error) {
	var out SERPResponse
	if err := c.post(ctx, "/search/serp/region/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) HotelPage(ctx context.Context, req *HotelPageRequest) (*HotelPageResponse, error) {
	var out HotelPageResponse
	if err := c.post(ctx, "/search/hp/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Prebook(ctx context.Context, req *PrebookRequest) (*PrebookResponse, error) {
	var out PrebookResponse
	if err := c.post(ctx, "/hotel/prebook/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BookingForm(ctx context.Context, req *BookingFormRequest) (*BookingFormResponse, error) {
	var out BookingFormResponse
	if err := c.post(ctx, "/hotel/order/booking/form/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BookingFinish(ctx context.Context, req *BookingFinishRequest) (*BookingFinishResponse, error) {
	var out BookingFinishResponse
	if err := c.post(ctx, "/hotel/order/booking/finish/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BookingStatus(ctx context.Context, partnerOrderID string) (*BookingStatusResponse, error) {
	var out BookingStatusResponse
	payload := map[string]string{"partner_order_id": partnerOrderID}
	if err := c.post(ctx, "/hotel/order/booking/finish/status/", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) OrderInfo(ctx context.Context, partnerOrderID string) (*OrderInfoResponse, error) {
	var out OrderInfoResponse
	payload := map[string]string{"partner_order_id": partnerOrderID}
	if err := c.post(ctx, "/hotel/order/info/", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Cancel(ctx context.Context, partnerOrderID string) (*CancelResponse, error) {
	var out CancelResponse
	payload := map[string]string{"partner_order_id": partnerOrderID}
	if err := c.post(ctx, "/hotel/order/cancel/", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
