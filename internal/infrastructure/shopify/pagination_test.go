package shopify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextPageInfo(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{
			name:   "empty header",
			header: "",
			want:   "",
		},
		{
			name:   "next only",
			header: `<https://shop.myshopify.com/admin/api/2024-01/products.json?page_info=abc123&limit=250>; rel="next"`,
			want:   "abc123",
		},
		{
			name: "previous and next",
			header: `<https://shop.myshopify.com/admin/api/2024-01/products.json?page_info=prev111&limit=250>; rel="previous", ` +
				`<https://shop.myshopify.com/admin/api/2024-01/products.json?page_info=next222&limit=250>; rel="next"`,
			want: "next222",
		},
		{
			name:   "previous only means exhausted",
			header: `<https://shop.myshopify.com/admin/api/2024-01/products.json?page_info=prev111&limit=250>; rel="previous"`,
			want:   "",
		},
		{
			name:   "unquoted rel",
			header: `<https://shop.myshopify.com/admin/api/2024-01/orders.json?page_info=tok&limit=250>; rel=next`,
			want:   "tok",
		},
		{
			name:   "malformed entry is skipped",
			header: `garbage, <https://shop.myshopify.com/admin/api/2024-01/orders.json?page_info=ok>; rel="next"`,
			want:   "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextPageInfo(tt.header))
		})
	}
}
