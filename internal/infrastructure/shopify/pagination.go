package shopify

import (
	"net/url"
	"strings"
)

// nextPageInfo extracts the continuation token from a Link response header.
// The header lists navigation entries like
//
//	<https://shop.myshopify.com/admin/api/2024-01/products.json?page_info=abc&limit=250>; rel="next"
//
// separated by commas. The token is the page_info query parameter of the
// entry whose relation is "next"; an empty result means the collection is
// exhausted.
func nextPageInfo(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	for _, entry := range strings.Split(linkHeader, ",") {
		parts := strings.Split(entry, ";")
		if len(parts) < 2 {
			continue
		}
		if !isNextRel(parts[1:]) {
			continue
		}
		rawURL := strings.TrimSpace(parts[0])
		rawURL = strings.TrimPrefix(rawURL, "<")
		rawURL = strings.TrimSuffix(rawURL, ">")
		u, err := url.Parse(rawURL)
		if err != nil {
			continue
		}
		return u.Query().Get("page_info")
	}
	return ""
}

func isNextRel(params []string) bool {
	for _, p := range params {
		p = strings.TrimSpace(p)
		if p == `rel="next"` || p == "rel=next" {
			return true
		}
	}
	return false
}
