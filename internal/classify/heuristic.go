package classify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// Hosts that are shops regardless of page content. Matched as a hostname
// prefix or a dot-separated suffix, so www. and country variants hit too.
var commerceHosts = []string{
	"amazon.", "ebay.", "etsy.", "aliexpress.", "alibaba.",
	"walmart.", "bestbuy.", "target.com", "newegg.", "wayfair.",
	"ikea.", "zalando.", "bol.com", "flipkart.", "rakuten.",
	"shopify.com", "myshopify.com", "temu.", "shein.",
}

// Purchase-intent phrases, one point each.
var purchaseSignals = []string{
	"add to cart", "add to basket", "buy now", "buy it now",
	"free shipping", "in stock", "out of stock", "ships from",
	"checkout", "order now", "shop now", "best price", "price match",
	"add to wishlist", "product details", "customer reviews",
	"limited offer", "% off", "discount code",
}

// URL path segments typical of product pages, two points each.
var productPathHints = []string{
	"/product/", "/products/", "/dp/", "/gp/product", "/item/", "/itm/",
	"/listing/", "/cart", "/checkout", "/shop/", "/buy/",
}

var (
	currencyAmount = regexp.MustCompile(`[$€£¥]\s?\d|\b\d+(?:[.,]\d+)?\s?(usd|eur|gbp)\b`)
	buyingGuide    = regexp.MustCompile(`\b(?:\d+\s+(?:best|top)|(?:best|top)\s+\d+)\b`)
)

const productScoreThreshold = 3

// Heuristic classifies without any I/O. The same metadata always yields the
// same category. fallback applies when no commerce signal accumulates;
// an invalid fallback means article.
func Heuristic(meta models.LinkMetadata, fallback models.Category) models.Category {
	if hostIsCommerce(meta.URL) {
		return models.CategoryProduct
	}

	urlLower := strings.ToLower(meta.URL)
	text := strings.ToLower(strings.Join([]string{
		meta.URL, meta.Title, meta.Description, meta.Excerpt,
	}, " "))

	score := 0
	for _, s := range purchaseSignals {
		if strings.Contains(text, s) {
			score++
		}
	}
	for _, p := range productPathHints {
		if strings.Contains(urlLower, p) {
			score += 2
		}
	}
	if currencyAmount.MatchString(text) {
		score++
	}
	if buyingGuide.MatchString(strings.ToLower(meta.Title)) {
		score += 2
	}

	if score >= productScoreThreshold {
		return models.CategoryProduct
	}
	if fallback.Valid() {
		return fallback
	}
	return models.CategoryArticle
}

func hostIsCommerce(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, h := range commerceHosts {
		if strings.HasPrefix(host, h) || strings.Contains(host, "."+h) {
			return true
		}
	}
	return false
}
