package seller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goinginblind/lso-gateway/internal/config"
	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/pkg/metrics"
	"golang.org/x/time/rate"
)

var (
	// ErrUpstreamUnavailable is returned when the Seller could not be reached at all.
	ErrUpstreamUnavailable = errors.New("seller unavailable")
	// ErrUpstreamTimeout is returned when the Seller did not answer in time.
	// Unlike a 4xx/5xx answer it is safe to retry.
	ErrUpstreamTimeout = errors.New("seller timed out")
)

// Gateway is the fulfilment backend as the lifecycle sees it. Payloads are
// already mapped to the Seller wire schema; token is the Buyer's bearer
// credential, forwarded as is.
type Gateway interface {
	PlaceOrder(ctx context.Context, payload any, token string) (*Result, error)
	CancelOrder(ctx context.Context, payload any, token string) (*Result, error)
	MoveOrder(ctx context.Context, payload any, token string) (*Result, error)
	DeinstallOrder(ctx context.Context, payload any, token string) (*Result, error)
	GetOrderDetails(ctx context.Context, payload any, token string) (*Result, error)
	ListOrders(ctx context.Context, payload any, token string) (*Result, error)
	UploadAttachment(ctx context.Context, filename string, content io.Reader, token string) (*Result, error)
	DeleteAttachment(ctx context.Context, attachmentID, token string) (*Result, error)
}

// HTTPClient talks to the Seller over HTTP. Every call is bounded by the
// configured timeout and shares one rate limiter.
type HTTPClient struct {
	http    *http.Client
	cfg     config.SellerConfig
	limiter *rate.Limiter
	logger  logger.Logger
}

var _ Gateway = (*HTTPClient)(nil)

func NewHTTPClient(cfg config.SellerConfig, logger logger.Logger) *HTTPClient {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &HTTPClient{
		http:    &http.Client{},
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

func (c *HTTPClient) PlaceOrder(ctx context.Context, payload any, token string) (*Result, error) {
	return c.postJSON(ctx, "place_order", c.cfg.Paths.Order, payload, token)
}

func (c *HTTPClient) CancelOrder(ctx context.Context, payload any, token string) (*Result, error) {
	return c.postJSON(ctx, "cancel_order", c.cfg.Paths.Cancel, payload, token)
}

func (c *HTTPClient) MoveOrder(ctx context.Context, payload any, token string) (*Result, error) {
	return c.postJSON(ctx, "move_order", c.cfg.Paths.Move, payload, token)
}

func (c *HTTPClient) DeinstallOrder(ctx context.Context, payload any, token string) (*Result, error) {
	return c.postJSON(ctx, "deinstall_order", c.cfg.Paths.Deinstall, payload, token)
}

func (c *HTTPClient) GetOrderDetails(ctx context.Context, payload any, token string) (*Result, error) {
	return c.postJSON(ctx, "order_details", c.cfg.Paths.Details, payload, token)
}

func (c *HTTPClient) ListOrders(ctx context.Context, payload any, token string) (*Result, error) {
	return c.postJSON(ctx, "list_orders", c.cfg.Paths.List, payload, token)
}

// UploadAttachment sends content as the "file" part of a multipart form.
func (c *HTTPClient) UploadAttachment(ctx context.Context, filename string, content io.Reader, token string) (*Result, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("copying attachment: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}
	return c.do(ctx, "upload_attachment", http.MethodPost, c.cfg.Paths.UploadAttachment, w.FormDataContentType(), &buf, token)
}

func (c *HTTPClient) DeleteAttachment(ctx context.Context, attachmentID, token string) (*Result, error) {
	path := strings.ReplaceAll(c.cfg.Paths.DeleteAttachment, "{id}", attachmentID)
	return c.do(ctx, "delete_attachment", http.MethodDelete, path, "application/json;charset=utf-8", nil, token)
}

func (c *HTTPClient) postJSON(ctx context.Context, op, path string, payload any, token string) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", op, err)
	}
	return c.do(ctx, op, http.MethodPost, path, "application/json;charset=utf-8", bytes.NewReader(body), token)
}

func (c *HTTPClient) do(ctx context.Context, op, method, path, contentType string, body io.Reader, token string) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.SellerRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.SellerRequestCount.WithLabelValues(op, "timeout").Inc()
		return nil, fmt.Errorf("%s: waiting for rate limiter: %w", op, ErrUpstreamTimeout)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			metrics.SellerRequestCount.WithLabelValues(op, "timeout").Inc()
			c.logger.Warnw("Seller call timed out", "operation", op, "error", err)
			return nil, fmt.Errorf("%s: %w", op, ErrUpstreamTimeout)
		}
		metrics.SellerRequestCount.WithLabelValues(op, "unavailable").Inc()
		c.logger.Warnw("Seller call failed", "operation", op, "error", err)
		return nil, fmt.Errorf("%s: %w: %v", op, ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			metrics.SellerRequestCount.WithLabelValues(op, "timeout").Inc()
			return nil, fmt.Errorf("%s: reading response: %w", op, ErrUpstreamTimeout)
		}
		metrics.SellerRequestCount.WithLabelValues(op, "unavailable").Inc()
		return nil, fmt.Errorf("%s: reading response: %w: %v", op, ErrUpstreamUnavailable, err)
	}

	res := &Result{
		StatusCode: resp.StatusCode,
		Body:       raw,
		Reason:     http.StatusText(resp.StatusCode),
	}
	outcome := "success"
	if !res.OK() {
		outcome = "failure"
		c.logger.Warnw("Seller rejected the call", "operation", op, "status", resp.StatusCode, "message", res.Message())
	}
	metrics.SellerRequestCount.WithLabelValues(op, outcome).Inc()
	return res, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
