package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shopify-mirror-layer/internal/domain"
	"shopify-mirror-layer/internal/ports"

	"github.com/rs/zerolog"
)

// APIError is returned for any non-success remote response. It carries the
// request path and status code so a failed collection pull is attributable.
type APIError struct {
	Path   string
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify API request failed: %s: status %d", e.Path, e.Status)
}

// Options configures the REST client.
type Options struct {
	// APIVersion selects the admin API version path segment.
	APIVersion string
	// PageSize is the limit parameter sent on every collection request.
	PageSize int
	// OrderStatus is always set on order pulls so the result is not
	// implicitly limited to open orders.
	OrderStatus string
	// HTTPClient overrides the default HTTP client when set.
	HTTPClient *http.Client
}

// Client talks to the Shopify admin REST API, following cursor pagination
// until the Link header carries no rel="next" entry. It implements
// ports.RemoteClient.
type Client struct {
	opts        Options
	httpClient  *http.Client
	rateLimiter *RateLimiter
	retry       RetryConfig
	logger      zerolog.Logger
}

// NewClient creates a Shopify REST client with rate limiting and retry
// options.
func NewClient(opts Options, rateLimiter *RateLimiter, retry RetryConfig, logger zerolog.Logger) *Client {
	if opts.APIVersion == "" {
		opts.APIVersion = "2024-01"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 250
	}
	if opts.OrderStatus == "" {
		opts.OrderStatus = "any"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		opts:        opts,
		httpClient:  httpClient,
		rateLimiter: rateLimiter,
		retry:       retry,
		logger:      logger,
	}
}

// ListCustomers pulls the complete customer collection for a shop.
func (c *Client) ListCustomers(ctx context.Context, shopDomain, accessToken string) ([]domain.RemoteCustomer, error) {
	var all []domain.RemoteCustomer
	err := c.fetchAll(ctx, shopDomain, accessToken, "customers", nil, func(body []byte) error {
		var env struct {
			Customers []domain.RemoteCustomer `json:"customers"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("failed to decode customers page: %w", err)
		}
		all = append(all, env.Customers...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// ListProducts pulls the complete product collection for a shop.
func (c *Client) ListProducts(ctx context.Context, shopDomain, accessToken string) ([]domain.RemoteProduct, error) {
	var all []domain.RemoteProduct
	err := c.fetchAll(ctx, shopDomain, accessToken, "products", nil, func(body []byte) error {
		var env struct {
			Products []domain.RemoteProduct `json:"products"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("failed to decode products page: %w", err)
		}
		all = append(all, env.Products...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// ListOrders pulls the complete order collection for a shop. The status
// filter is always applied so closed and cancelled orders are included.
func (c *Client) ListOrders(ctx context.Context, shopDomain, accessToken string) ([]domain.RemoteOrder, error) {
	extra := url.Values{}
	extra.Set("status", c.opts.OrderStatus)

	var all []domain.RemoteOrder
	err := c.fetchAll(ctx, shopDomain, accessToken, "orders", extra, func(body []byte) error {
		var env struct {
			Orders []domain.RemoteOrder `json:"orders"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("failed to decode orders page: %w", err)
		}
		all = append(all, env.Orders...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// GetCustomer fetches a single customer by remote id. A 404 response maps
// to ports.ErrRemoteNotFound.
func (c *Client) GetCustomer(ctx context.Context, shopDomain, accessToken string, customerID int64) (*domain.RemoteCustomer, error) {
	path := fmt.Sprintf("customers/%d", customerID)
	body, _, err := c.doRequest(ctx, shopDomain, accessToken, path, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: customer %d", ports.ErrRemoteNotFound, customerID)
		}
		return nil, err
	}

	var env struct {
		Customer domain.RemoteCustomer `json:"customer"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode customer: %w", err)
	}
	return &env.Customer, nil
}

// fetchAll drives the pagination loop for one collection: the first request
// carries only the page size and any extra filters, every later request
// carries the continuation token from the previous response's Link header.
// The loop terminates when no rel="next" entry is present.
func (c *Client) fetchAll(ctx context.Context, shopDomain, accessToken, collection string, extra url.Values, decode func(body []byte) error) error {
	pageInfo := ""
	pages := 0
	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(c.opts.PageSize))
		if pageInfo == "" {
			for k, vs := range extra {
				for _, v := range vs {
					query.Add(k, v)
				}
			}
		} else {
			// Past the first page only limit and page_info are accepted;
			// the cursor encodes the filters.
			query.Set("page_info", pageInfo)
		}

		body, header, err := c.doRequest(ctx, shopDomain, accessToken, collection, query)
		if err != nil {
			return err
		}
		if err := decode(body); err != nil {
			return err
		}
		pages++

		pageInfo = nextPageInfo(header.Get("Link"))
		if pageInfo == "" {
			break
		}
	}

	c.logger.Debug().
		Str("shop", shopDomain).
		Str("collection", collection).
		Int("pages", pages).
		Msg("Completed paginated pull")
	return nil
}

// doRequest performs one authenticated request, pacing through the rate
// limiter and retrying 429 responses per the retry config. Any other
// non-2xx status aborts with an APIError.
func (c *Client) doRequest(ctx context.Context, shopDomain, accessToken, path string, query url.Values) ([]byte, http.Header, error) {
	reqURL := fmt.Sprintf("%s/admin/api/%s/%s.json", normalizeShopURL(shopDomain), c.opts.APIVersion, path)
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	attempts := c.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if c.rateLimiter != nil {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return nil, nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("X-Shopify-Access-Token", accessToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, nil, fmt.Errorf("request to %s failed: %w", path, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			delay := retryAfter(resp.Header, c.retry.BaseDelay)
			c.logger.Warn().
				Str("path", path).
				Dur("delay", delay).
				Int("attempt", attempt+1).
				Msg("Rate limited by remote API, backing off")
			lastErr = &APIError{Path: path, Status: resp.StatusCode}
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, nil, &APIError{Path: path, Status: resp.StatusCode}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read response from %s: %w", path, err)
		}
		return body, resp.Header, nil
	}
	return nil, nil, lastErr
}

// retryAfter honors the Retry-After header when present.
func retryAfter(h http.Header, fallback time.Duration) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return fallback
}

// normalizeShopURL turns a shop domain into a base URL. Domains without a
// scheme get https; anything else is used as-is so tests can point the
// client at a local server.
func normalizeShopURL(shopDomain string) string {
	if strings.Contains(shopDomain, "://") {
		return strings.TrimSuffix(shopDomain, "/")
	}
	return "https://" + strings.TrimSuffix(shopDomain, "/")
}
