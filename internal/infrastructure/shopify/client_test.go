package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopify-mirror-layer/internal/domain"
	"shopify-mirror-layer/internal/ports"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	return NewClient(Options{
		APIVersion:  "2024-01",
		PageSize:    250,
		OrderStatus: "any",
	}, nil, RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}, zerolog.Nop())
}

func linkNext(token string) string {
	return fmt.Sprintf(`<https://x.myshopify.com/admin/api/2024-01/any.json?page_info=%s&limit=250>; rel="next"`, token)
}

func productPage(count int, startID int64) map[string]any {
	products := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		products = append(products, map[string]any{"id": startID + int64(i)})
	}
	return map[string]any{"products": products}
}

func TestListProducts_FollowsCursorUntilNoNextLink(t *testing.T) {
	var requests []*http.Request

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Clone(context.Background()))
		switch len(requests) {
		case 1:
			w.Header().Set("Link", linkNext("cursor-2"))
			json.NewEncoder(w).Encode(productPage(250, 1))
		case 2:
			w.Header().Set("Link", linkNext("cursor-3"))
			json.NewEncoder(w).Encode(productPage(250, 251))
		case 3:
			// No Link header on the last page.
			json.NewEncoder(w).Encode(productPage(1, 501))
		default:
			t.Errorf("unexpected extra request %d", len(requests))
		}
	}))
	defer srv.Close()

	c := testClient(t)
	products, err := c.ListProducts(context.Background(), srv.URL, "token")
	require.NoError(t, err)

	assert.Len(t, products, 501)
	require.Len(t, requests, 3)

	first := requests[0]
	assert.Equal(t, "/admin/api/2024-01/products.json", first.URL.Path)
	assert.Equal(t, "250", first.URL.Query().Get("limit"))
	assert.Empty(t, first.URL.Query().Get("page_info"))
	assert.Equal(t, "token", first.Header.Get("X-Shopify-Access-Token"))

	assert.Equal(t, "cursor-2", requests[1].URL.Query().Get("page_info"))
	assert.Equal(t, "cursor-3", requests[2].URL.Query().Get("page_info"))
	assert.Equal(t, "250", requests[2].URL.Query().Get("limit"))
}

func TestListProducts_SinglePage(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(productPage(3, 1))
	}))
	defer srv.Close()

	c := testClient(t)
	products, err := c.ListProducts(context.Background(), srv.URL, "token")
	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.Equal(t, 1, calls)
}

func TestListOrders_AlwaysSendsStatusFilter(t *testing.T) {
	var queries []map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query())
		if len(queries) == 1 {
			w.Header().Set("Link", linkNext("page2"))
		}
		json.NewEncoder(w).Encode(map[string]any{"orders": []map[string]any{{"id": int64(len(queries))}}})
	}))
	defer srv.Close()

	c := testClient(t)
	orders, err := c.ListOrders(context.Background(), srv.URL, "token")
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	require.Len(t, queries, 2)
	assert.Equal(t, []string{"any"}, queries[0]["status"])
	// Past the first page the cursor encodes the filters.
	assert.NotContains(t, queries[1], "status")
	assert.Equal(t, []string{"page2"}, queries[1]["page_info"])
}

func TestListCustomers_AbortsOnErrorStatus(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Link", linkNext("page2"))
			json.NewEncoder(w).Encode(map[string]any{"customers": []map[string]any{{"id": 1}}})
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(t)
	customers, err := c.ListCustomers(context.Background(), srv.URL, "token")
	require.Error(t, err)
	assert.Nil(t, customers)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "customers", apiErr.Path)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, 2, calls)
}

func TestGetCustomer(t *testing.T) {
	email := "a@example.com"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-01/customers/42.json", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"customer": domain.RemoteCustomer{ID: 42, Email: &email},
		})
	}))
	defer srv.Close()

	c := testClient(t)
	customer, err := c.GetCustomer(context.Background(), srv.URL, "token", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), customer.ID)
	require.NotNil(t, customer.Email)
	assert.Equal(t, email, *customer.Email)
}

func TestGetCustomer_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(t)
	customer, err := c.GetCustomer(context.Background(), srv.URL, "token", 42)
	assert.Nil(t, customer)
	assert.ErrorIs(t, err, ports.ErrRemoteNotFound)
}

func TestDoRequest_RetriesRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(productPage(1, 1))
	}))
	defer srv.Close()

	c := testClient(t)
	products, err := c.ListProducts(context.Background(), srv.URL, "token")
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 2, calls)
}

func TestDoRequest_RateLimitExhaustsAttempts(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(t)
	_, err := c.ListProducts(context.Background(), srv.URL, "token")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, 3, calls)
}

func TestNormalizeShopURL(t *testing.T) {
	assert.Equal(t, "https://shop.myshopify.com", normalizeShopURL("shop.myshopify.com"))
	assert.Equal(t, "https://shop.myshopify.com", normalizeShopURL("shop.myshopify.com/"))
	assert.Equal(t, "http://127.0.0.1:9999", normalizeShopURL("http://127.0.0.1:9999"))
}
