// Package search aggregates paginated product search results into a
// single candidate list sized for a generation batch.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rotativa/internal/catalog"
	"rotativa/internal/logging"
	"rotativa/internal/metrics"
	"rotativa/internal/services"
	"rotativa/internal/services/paapi"
)

// relaxedItemCap bounds the item count of the fallback request issued
// after a page fails with its original parameters.
const relaxedItemCap = 5

// Aggregator walks search result pages until it has collected the
// requested number of products or exhausted the page cap.
type Aggregator struct {
	searcher paapi.Searcher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger attaches a logger to the aggregator.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics attaches batch metrics to the aggregator.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// NewAggregator wraps a page searcher.
func NewAggregator(searcher paapi.Searcher, opts ...Option) *Aggregator {
	agg := &Aggregator{
		searcher: searcher,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(agg)
	}
	return agg
}

// Search collects up to target products for the query. The category is
// normalized to a marketplace search index; unknown categories search
// across all indices. Each page requests only the items still missing,
// capped at the per-page maximum, and a page that yields fewer items
// than requested is tolerated: the loop advances to the next page until
// the target or the page cap is reached.
func (a *Aggregator) Search(ctx context.Context, query, category string, target int) ([]catalog.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, services.Wrap(services.ErrValidation, "search", "aggregate", "search query must not be empty", nil)
	}
	if target <= 0 {
		return nil, nil
	}

	searchIndex := paapi.ResolveSearchIndex(category)
	products := make([]catalog.Product, 0, target)
	remaining := target

	for page := 1; page <= paapi.MaxPages && remaining > 0; page++ {
		count := remaining
		if count > paapi.MaxItemsPerPage {
			count = paapi.MaxItemsPerPage
		}
		batch, err := a.fetchPage(ctx, paapi.PageRequest{
			Keywords:    query,
			SearchIndex: searchIndex,
			ItemCount:   count,
			Page:        page,
		})
		if err != nil {
			return nil, err
		}
		a.metrics.IncSearchPage()
		if len(batch) < count {
			a.logger.Debug("short search page",
				slog.Int("page", page),
				slog.Int("requested", count),
				slog.Int("received", len(batch)))
		}
		products = append(products, batch...)
		remaining -= len(batch)
	}

	if len(products) > target {
		products = products[:target]
	}
	a.logger.Info("search complete",
		slog.String("query", query),
		slog.String("search_index", searchIndex),
		slog.Int("collected", len(products)),
		slog.Int("target", target))
	return products, nil
}

// fetchPage issues a page request, retrying exactly once with relaxed
// parameters (no search index, reduced item count) when the original
// request fails. A second failure is fatal and carries the messages of
// both attempts so operators can see whether relaxation changed the
// outcome.
func (a *Aggregator) fetchPage(ctx context.Context, req paapi.PageRequest) ([]catalog.Product, error) {
	batch, err := a.searcher.SearchPage(ctx, req)
	if err == nil {
		return batch, nil
	}

	a.metrics.IncSearchRetry()
	a.logger.Warn("search page failed, retrying relaxed",
		slog.Int("page", req.Page),
		slog.String("error", err.Error()))

	relaxed := req
	relaxed.SearchIndex = ""
	if relaxed.ItemCount > relaxedItemCap {
		relaxed.ItemCount = relaxedItemCap
	}
	batch, retryErr := a.searcher.SearchPage(ctx, relaxed)
	if retryErr == nil {
		return batch, nil
	}
	return nil, services.Wrap(services.ErrUpstream, "search", "aggregate",
		fmt.Sprintf("page %d failed: %v; relaxed retry failed: %v", req.Page, err, retryErr), retryErr)
}
