// Package metrics bundles the Prometheus collectors exposed by the HTTP
// server. All methods tolerate a nil receiver so pipeline code can run without
// a registry in tests and one-shot CLI invocations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the generation pipeline.
type Metrics struct {
	Registry               *prometheus.Registry
	SearchPagesTotal       prometheus.Counter
	SearchRetriesTotal     prometheus.Counter
	ProductsSelectedTotal  prometheus.Counter
	ArticlesGeneratedTotal prometheus.Counter
	GenerationErrorsTotal  *prometheus.CounterVec
	BatchDuration          prometheus.Histogram
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	searchPages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rotativa_search_pages_total",
			Help: "Total search result pages fetched from the product backend.",
		},
	)
	searchRetries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rotativa_search_retries_total",
			Help: "Total relaxed-parameter retries issued against the product backend.",
		},
	)
	productsSelected := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rotativa_products_selected_total",
			Help: "Total products surviving filtering and ranking.",
		},
	)
	articlesGenerated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rotativa_articles_generated_total",
			Help: "Total assembled articles produced.",
		},
	)
	generationErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rotativa_generation_errors_total",
			Help: "Total batch failures by stage.",
		},
		[]string{"stage"},
	)
	batchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rotativa_batch_duration_seconds",
			Help:    "Wall-clock duration of one article-generation batch.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(searchPages, searchRetries, productsSelected, articlesGenerated, generationErrors, batchDuration)

	return &Metrics{
		Registry:               registry,
		SearchPagesTotal:       searchPages,
		SearchRetriesTotal:     searchRetries,
		ProductsSelectedTotal:  productsSelected,
		ArticlesGeneratedTotal: articlesGenerated,
		GenerationErrorsTotal:  generationErrors,
		BatchDuration:          batchDuration,
	}
}

// IncSearchPage increments the fetched-pages counter.
func (m *Metrics) IncSearchPage() {
	if m == nil {
		return
	}
	m.SearchPagesTotal.Inc()
}

// IncSearchRetry increments the relaxed-retry counter.
func (m *Metrics) IncSearchRetry() {
	if m == nil {
		return
	}
	m.SearchRetriesTotal.Inc()
}

// AddProductsSelected records products surviving selection.
func (m *Metrics) AddProductsSelected(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.ProductsSelectedTotal.Add(float64(count))
}

// AddArticlesGenerated records assembled articles.
func (m *Metrics) AddArticlesGenerated(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.ArticlesGeneratedTotal.Add(float64(count))
}

// IncGenerationError records a batch failure for the named stage.
func (m *Metrics) IncGenerationError(stage string) {
	if m == nil {
		return
	}
	m.GenerationErrorsTotal.WithLabelValues(stage).Inc()
}

// ObserveBatchDuration records the duration of one batch.
func (m *Metrics) ObserveBatchDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.BatchDuration.Observe(d.Seconds())
}
