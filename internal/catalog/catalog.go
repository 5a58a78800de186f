// Package catalog defines the product model shared by the search, selection,
// and assembly stages, together with the affiliate-link and price-text helpers
// that keep its invariants.
package catalog

import (
	"net/url"
	"strings"

	"rotativa/internal/textnorm"
)

// PricePlaceholder is the display text the search layer emits when a product
// exposes no usable price. Downstream stages treat it as "no price".
const PricePlaceholder = "Precio no disponible"

// Product represents one catalog item surfaced by the search pipeline. It is
// created fresh per search response and never mutated after assembly, except
// to attach the affiliate tag.
type Product struct {
	ASIN         string `json:"asin,omitempty"`
	Title        string `json:"titulo"`
	ProductURL   string `json:"url_producto"`
	AffiliateURL string `json:"url_afiliado"`
	ImageURL     string `json:"url_imagen,omitempty"`
	Price        string `json:"precio,omitempty"`
	Brand        string `json:"marca,omitempty"`
	// Discounted is set when the upstream source already detected a markdown.
	Discounted bool `json:"descuento,omitempty"`
}

// DisplayName returns "brand title" when a brand is known and the title does
// not already start with it, otherwise the title alone.
func (p Product) DisplayName() string {
	title := strings.TrimSpace(p.Title)
	brand := strings.TrimSpace(p.Brand)
	if brand == "" || strings.HasPrefix(strings.ToLower(title), strings.ToLower(brand)) {
		return title
	}
	return brand + " " + title
}

// HasPrice reports whether the product carries a displayable, non-placeholder
// price.
func (p Product) HasPrice() bool {
	price := strings.TrimSpace(p.Price)
	if price == "" {
		return false
	}
	return !strings.Contains(strings.ToLower(price), "no disponible")
}

// HasDiscountSignal reports whether either the source flagged a markdown or
// the price text itself carries a discount annotation: a percent sign, or the
// locale words for "before" and "savings".
func (p Product) HasDiscountSignal() bool {
	if p.Discounted {
		return true
	}
	if !p.HasPrice() {
		return false
	}
	price := strings.ToLower(textnorm.Fold(p.Price))
	return strings.Contains(price, "%") ||
		strings.Contains(price, "antes") ||
		strings.Contains(price, "ahorro")
}

// EnsureAffiliateTag returns rawURL carrying exactly one tracking-tag query
// parameter. An existing tag parameter is replaced, never duplicated, so the
// operation is idempotent. Empty inputs pass through unchanged.
func EnsureAffiliateTag(rawURL, tag string) string {
	rawURL = strings.TrimSpace(rawURL)
	tag = strings.TrimSpace(tag)
	if rawURL == "" || tag == "" {
		return rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	query.Set("tag", tag)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// AttachAffiliateTag fills AffiliateURL from the product URL (or refreshes an
// existing affiliate URL) so it carries the supplied tracking tag.
func (p *Product) AttachAffiliateTag(tag string) {
	base := p.AffiliateURL
	if strings.TrimSpace(base) == "" {
		base = p.ProductURL
	}
	p.AffiliateURL = EnsureAffiliateTag(base, tag)
}
