// Package generate orchestrates one article batch: search, filter,
// partition, per-group model calls, assembly.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"rotativa/internal/article"
	"rotativa/internal/catalog"
	"rotativa/internal/logging"
	"rotativa/internal/metrics"
	"rotativa/internal/selection"
	"rotativa/internal/services"
)

const (
	// maxArticles and maxItemsPerArticle bound one batch request.
	maxArticles        = 10
	maxItemsPerArticle = 10
)

// Request carries the parameters of one generation batch.
type Request struct {
	Query             string   `json:"busqueda"`
	Category          string   `json:"categoria,omitempty"`
	ArticleCount      int      `json:"num_articulos"`
	ItemsPerArticle   int      `json:"items_por_articulo"`
	Keyword           string   `json:"palabra_clave_principal,omitempty"`
	SecondaryKeywords []string `json:"palabras_clave_secundarias,omitempty"`
}

func (r Request) normalized() Request {
	r.Query = strings.TrimSpace(r.Query)
	if r.ArticleCount < 1 {
		r.ArticleCount = 1
	}
	if r.ArticleCount > maxArticles {
		r.ArticleCount = maxArticles
	}
	if r.ItemsPerArticle < 1 {
		r.ItemsPerArticle = 1
	}
	if r.ItemsPerArticle > maxItemsPerArticle {
		r.ItemsPerArticle = maxItemsPerArticle
	}
	return r
}

// Searcher aggregates search result pages into a candidate list.
type Searcher interface {
	Search(ctx context.Context, query, category string, target int) ([]catalog.Product, error)
}

// Completer produces free-form text for a prompt pair.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Pipeline runs generation batches. Groups carry no data dependency on
// each other, so their model calls may run concurrently up to the
// configured cap; the output order always matches the partition order.
type Pipeline struct {
	searcher  Searcher
	completer Completer
	logger    *slog.Logger
	metrics   *metrics.Metrics

	concurrency     int
	limiter         *rate.Limiter
	seasonalKeyword string
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics attaches batch metrics.
func WithMetrics(m *metrics.Metrics) PipelineOption {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithConcurrency caps how many model calls run at once. Values below 1
// fall back to sequential processing.
func WithConcurrency(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithRateLimit spaces model calls at the given requests-per-second.
// Zero or negative disables the limiter.
func WithRateLimit(rps float64) PipelineOption {
	return func(p *Pipeline) {
		if rps > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			p.limiter = nil
		}
	}
}

// WithSeasonalKeyword overrides the query keyword that relaxes the
// discount filter during sale events.
func WithSeasonalKeyword(keyword string) PipelineOption {
	return func(p *Pipeline) {
		p.seasonalKeyword = keyword
	}
}

// NewPipeline wires a search aggregator and a model completer into a
// batch pipeline.
func NewPipeline(searcher Searcher, completer Completer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		searcher:    searcher,
		completer:   completer,
		logger:      logging.NewNop(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one batch. An exhausted candidate pool yields an empty
// article list, not an error; any upstream failure fails the whole
// batch with no partial result.
func (p *Pipeline) Run(ctx context.Context, req Request) ([]article.Article, error) {
	req = req.normalized()
	if req.Query == "" {
		return nil, services.Wrap(services.ErrValidation, "generate", "run", "query must not be empty", nil)
	}
	started := time.Now()

	target := req.ArticleCount * req.ItemsPerArticle
	candidates, err := p.searcher.Search(ctx, req.Query, req.Category, target)
	if err != nil {
		p.metrics.IncGenerationError("search")
		return nil, err
	}

	kept := selection.FilterRank(candidates, selection.Criteria{
		Query:           req.Query,
		Keyword:         req.Keyword,
		ArticleCount:    req.ArticleCount,
		ItemsPerArticle: req.ItemsPerArticle,
		SeasonalKeyword: p.seasonalKeyword,
	})
	p.metrics.AddProductsSelected(len(kept))
	if len(kept) == 0 {
		p.logger.Info("no candidates after filtering",
			slog.String("query", req.Query),
			slog.Int("searched", len(candidates)))
		return []article.Article{}, nil
	}

	groups := selection.Partition(kept, req.ArticleCount, req.ItemsPerArticle)
	nonEmpty := groups[:0]
	for _, g := range groups {
		if len(g) > 0 {
			nonEmpty = append(nonEmpty, g)
		}
	}
	groups = nonEmpty

	articles, err := p.generateGroups(ctx, req, groups)
	if err != nil {
		return nil, err
	}

	p.metrics.AddArticlesGenerated(len(articles))
	p.metrics.ObserveBatchDuration(time.Since(started))
	p.logger.Info("batch complete",
		slog.String("query", req.Query),
		slog.Int("articles", len(articles)),
		slog.Duration("elapsed", time.Since(started)))
	return articles, nil
}

// generateGroups runs one model call per group, at most p.concurrency
// at a time. Results land in the slot matching their group so output
// order never depends on completion order; the first failure wins and
// cancels the rest.
func (p *Pipeline) generateGroups(ctx context.Context, req Request, groups [][]catalog.Product) ([]article.Article, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	articles := make([]article.Article, len(groups))
	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, group := range groups {
		wg.Add(1)
		go func(idx int, group []catalog.Product) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			art, err := p.generateOne(ctx, req, idx, group)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				cancel()
				return
			}
			articles[idx] = art
		}(i, group)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return articles, nil
}

func (p *Pipeline) generateOne(ctx context.Context, req Request, idx int, group []catalog.Product) (article.Article, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return article.Article{}, err
		}
	}
	userPrompt := buildUserPrompt(req.Query, req.Keyword, req.SecondaryKeywords, group)
	raw, err := p.completer.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		p.metrics.IncGenerationError("completion")
		return article.Article{}, services.Wrap(services.ErrUpstream, "generate", "complete",
			fmt.Sprintf("group %d with %d products", idx+1, len(group)), err)
	}
	art := article.Assemble(article.ParseFragment(raw), group)
	p.logger.Debug("article assembled",
		slog.Int("group", idx+1),
		slog.Int("products", len(group)),
		slog.Int("body_bytes", len(art.Body)))
	return art, nil
}
