package paapi

import (
	"fmt"
	"strconv"
	"strings"

	"rotativa/internal/catalog"
)

// fieldPath addresses a value inside the parsed JSON tree. Elements are either
// string map keys or int list indices.
type fieldPath []any

var titlePaths = []fieldPath{
	{"item_info", "title", "display_value"},
	{"item_info", "product_title", "display_value"},
	{"titulo"},
	{"title"},
	{"product_title"},
}

var productURLPaths = []fieldPath{
	{"detail_page_url"},
	{"url_producto"},
	{"url"},
}

var imagePaths = []fieldPath{
	{"image_url"},
	{"url_imagen"},
	{"large_image_url"},
	{"images", "primary", "large", "url"},
	{"images", "primary", "medium", "url"},
	{"images", "primary", "small", "url"},
	{"large_image", "url"},
	{"medium_image", "url"},
	{"small_image", "url"},
	{"image", "url"},
}

var brandPaths = []fieldPath{
	{"brand"},
	{"marca"},
	{"manufacturer"},
	{"item_info", "by_line_info", "brand", "display_value"},
	{"item_info", "by_line_info", "manufacturer", "display_value"},
}

var priceDisplayPaths = []fieldPath{
	{"offers", "listings", 0, "price", "display_amount"},
	{"offers", "summaries", 0, "lowest_price", "display_amount"},
	{"price", "display_amount"},
	{"precio"},
}

var priceAmountPaths = []fieldPath{
	{"offers", "listings", 0, "price", "amount"},
	{"offers", "summaries", 0, "lowest_price", "amount"},
	{"list_price", "amount"},
	{"price", "amount"},
}

var priceCurrencyPaths = []fieldPath{
	{"offers", "listings", 0, "price", "currency"},
	{"offers", "summaries", 0, "lowest_price", "currency"},
	{"list_price", "currency"},
	{"price", "currency"},
}

var savingsBasisPaths = []fieldPath{
	{"offers", "listings", 0, "price", "savings", "basis"},
	{"list_price", "amount"},
}

var savingsCurrencyPaths = []fieldPath{
	{"list_price", "currency"},
	{"offers", "listings", 0, "price", "currency"},
}

var savingsPercentagePaths = []fieldPath{
	{"offers", "listings", 0, "price", "savings", "percentage"},
	{"offers", "summaries", 0, "lowest_price", "savings", "percentage"},
}

var savingsDisplayPaths = []fieldPath{
	{"offers", "listings", 0, "price", "savings", "display_amount"},
	{"offers", "summaries", 0, "lowest_price", "savings", "display_amount"},
}

var savingsAmountPaths = []fieldPath{
	{"offers", "listings", 0, "price", "savings", "amount"},
	{"offers", "summaries", 0, "lowest_price", "savings", "amount"},
}

// extractProduct maps one loosely-typed response item onto the catalog model.
// Items exposing neither a title nor a product URL are unusable and reported
// with ok=false; every other missing field degrades to an omission.
func extractProduct(item map[string]any) (catalog.Product, bool) {
	title := probeString(item, titlePaths)
	productURL := probeString(item, productURLPaths)
	if title == "" && productURL == "" {
		return catalog.Product{}, false
	}
	if title == "" {
		title = "Sin título"
	}

	price, discounted := extractPrice(item)

	return catalog.Product{
		ASIN:       probeString(item, []fieldPath{{"asin"}}),
		Title:      title,
		ProductURL: productURL,
		ImageURL:   probeString(item, imagePaths),
		Price:      price,
		Brand:      probeString(item, brandPaths),
		Discounted: discounted,
	}, true
}

// extractPrice assembles the display price, enriched with the list price and
// savings annotation when the backend exposes them. The second return reports
// whether a markdown was detected.
func extractPrice(item map[string]any) (string, bool) {
	price := probeString(item, priceDisplayPaths)
	if price == "" {
		amount, okAmount := probeNumber(item, priceAmountPaths)
		currency := probeString(item, priceCurrencyPaths)
		if okAmount && currency != "" {
			price = formatAmount(amount, currency)
		}
	}
	if price == "" {
		return catalog.PricePlaceholder, false
	}

	listAmount, okList := probeNumber(item, savingsBasisPaths)
	listCurrency := probeString(item, savingsCurrencyPaths)
	savePct, okPct := probeNumber(item, savingsPercentagePaths)
	saveDisplay := probeString(item, savingsDisplayPaths)
	saveAmount, okSave := probeNumber(item, savingsAmountPaths)

	if okList && listCurrency != "" {
		listDisplay := formatAmount(listAmount, listCurrency)
		switch {
		case okPct:
			return fmt.Sprintf("%s (antes %s, -%d%%)", price, listDisplay, int(savePct)), true
		case saveDisplay != "":
			return fmt.Sprintf("%s (ahorro %s, antes %s)", price, saveDisplay, listDisplay), true
		case okSave:
			return fmt.Sprintf("%s (ahorro %s, antes %s)", price, formatAmount(saveAmount, listCurrency), listDisplay), true
		}
	}
	if okPct {
		return fmt.Sprintf("%s (-%d%%)", price, int(savePct)), true
	}
	return price, false
}

// walk resolves a fieldPath against the item, returning nil when any step is
// missing or of the wrong shape.
func walk(item map[string]any, path fieldPath) any {
	var current any = item
	for _, step := range path {
		switch key := step.(type) {
		case string:
			node, ok := current.(map[string]any)
			if !ok {
				return nil
			}
			current = node[key]
		case int:
			list, ok := current.([]any)
			if !ok || key < 0 || key >= len(list) {
				return nil
			}
			current = list[key]
		default:
			return nil
		}
		if current == nil {
			return nil
		}
	}
	return current
}

// probeString tries each path in order and returns the first non-empty string.
func probeString(item map[string]any, paths []fieldPath) string {
	for _, path := range paths {
		if value, ok := walk(item, path).(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// probeNumber tries each path in order, accepting JSON numbers and numeric
// strings.
func probeNumber(item map[string]any, paths []fieldPath) (float64, bool) {
	for _, path := range paths {
		switch value := walk(item, path).(type) {
		case float64:
			return value, true
		case string:
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}

// formatAmount renders a monetary amount. Euro amounts use the es-ES
// convention (dot thousands separator, comma decimals, trailing symbol).
func formatAmount(amount float64, currency string) string {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "EUR", "EURO", "€":
		return formatEuro(amount)
	default:
		return fmt.Sprintf("%.2f %s", amount, currency)
	}
}

func formatEuro(amount float64) string {
	formatted := strconv.FormatFloat(amount, 'f', 2, 64)
	negative := strings.HasPrefix(formatted, "-")
	formatted = strings.TrimPrefix(formatted, "-")

	parts := strings.SplitN(formatted, ".", 2)
	integer, decimals := parts[0], parts[1]

	var grouped strings.Builder
	for i, digit := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return sign + grouped.String() + "," + decimals + " €"
}
