// Package selection narrows aggregated search results down to the
// products worth writing about and splits them into per-article groups.
//
// Everything here is a pure function over catalog.Product slices: no
// I/O, no shared state, and an empty result is a valid outcome rather
// than an error.
package selection

import (
	"sort"
	"strings"

	"rotativa/internal/catalog"
	"rotativa/internal/textnorm"
)

// DefaultSeasonalKeyword marks queries that run during a seasonal sale
// where upstream discount metadata is unreliable.
const DefaultSeasonalKeyword = "black friday"

// Criteria drives filtering and truncation for one generation batch.
type Criteria struct {
	// Query is the raw search phrase the batch was requested with.
	Query string
	// Keyword optionally restricts results to titles sharing a word
	// stem with it.
	Keyword string
	// ArticleCount and ItemsPerArticle bound the total number of
	// products kept.
	ArticleCount    int
	ItemsPerArticle int
	// SeasonalKeyword relaxes the discount filter when it appears in
	// the query. Empty means DefaultSeasonalKeyword.
	SeasonalKeyword string
}

func (c Criteria) seasonal() string {
	if strings.TrimSpace(c.SeasonalKeyword) == "" {
		return DefaultSeasonalKeyword
	}
	return c.SeasonalKeyword
}

// FilterRank orders and prunes products for a batch. Priced items sort
// before unpriced ones (stable, so upstream relevance order survives
// within each class), then items without a discount signal are dropped.
// When that empties the list and the query mentions the seasonal sale
// keyword, the discount requirement relaxes to "has any price": during
// a sale event upstream discount metadata routinely lags the actual
// prices. An optional keyword filter then keeps only titles whose word
// stems overlap the keyword's, with no fallback, and the survivors are
// truncated to the batch capacity.
func FilterRank(products []catalog.Product, c Criteria) []catalog.Product {
	if len(products) == 0 {
		return nil
	}

	ranked := make([]catalog.Product, len(products))
	copy(ranked, products)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].HasPrice() && !ranked[j].HasPrice()
	})

	kept := keep(ranked, catalog.Product.HasDiscountSignal)
	if len(kept) == 0 && querySignalsSeason(c.Query, c.seasonal()) {
		kept = keep(ranked, catalog.Product.HasPrice)
	}

	if keyword := strings.TrimSpace(c.Keyword); keyword != "" {
		kept = keep(kept, func(p catalog.Product) bool {
			return textnorm.Match(keyword, p.Title)
		})
	}

	if limit := c.ArticleCount * c.ItemsPerArticle; limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

func keep(products []catalog.Product, pred func(catalog.Product) bool) []catalog.Product {
	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}

func querySignalsSeason(query, seasonal string) bool {
	return strings.Contains(textnorm.Fold(strings.ToLower(query)), textnorm.Fold(strings.ToLower(seasonal)))
}

// Partition splits products into exactly articleCount contiguous
// groups. The first len(products)%articleCount groups get one extra
// item, every group is capped at itemsPerArticle, and products are
// consumed in order so no product lands in two groups. Trailing groups
// may be empty when there are not enough products to go around.
func Partition(products []catalog.Product, articleCount, itemsPerArticle int) [][]catalog.Product {
	if articleCount <= 0 {
		return nil
	}
	groups := make([][]catalog.Product, articleCount)
	total := len(products)
	base := total / articleCount
	extra := total % articleCount

	next := 0
	for i := range groups {
		size := base
		if i < extra {
			size++
		}
		if itemsPerArticle > 0 && size > itemsPerArticle {
			size = itemsPerArticle
		}
		if size > total-next {
			size = total - next
		}
		groups[i] = products[next : next+size]
		next += size
	}
	return groups
}
