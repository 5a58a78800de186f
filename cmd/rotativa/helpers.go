package main

import (
	"fmt"
	"log/slog"

	"rotativa/internal/config"
	"rotativa/internal/export"
	"rotativa/internal/generate"
	"rotativa/internal/metrics"
	"rotativa/internal/search"
	"rotativa/internal/services/llm"
	"rotativa/internal/services/paapi"
)

// buildPipeline wires the search backend, model client, and formatter
// from the resolved configuration. The metrics argument may be nil for
// one-shot invocations.
func buildPipeline(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*generate.Pipeline, *llm.Client, *export.Formatter, error) {
	searchClient, err := paapi.New(paapi.Config{
		APIKey:         cfg.Search.APIKey,
		BaseURL:        cfg.Search.BaseURL,
		PartnerTag:     cfg.Search.PartnerTag,
		Marketplace:    cfg.Search.Marketplace,
		TimeoutSeconds: cfg.Search.TimeoutSeconds,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build search client: %w", err)
	}

	aggregator := search.NewAggregator(searchClient,
		search.WithLogger(logger),
		search.WithMetrics(m),
	)

	completer := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})

	pipeline := generate.NewPipeline(aggregator, completer,
		generate.WithLogger(logger),
		generate.WithMetrics(m),
		generate.WithConcurrency(cfg.Content.Concurrency),
		generate.WithRateLimit(cfg.Content.RateLimitPerSecond),
		generate.WithSeasonalKeyword(cfg.Content.SeasonalKeyword),
	)

	formatter := export.NewFormatter(
		export.WithFeaturedImages(cfg.Export.FeaturedImages),
		export.WithCategories(cfg.Export.Categories),
	)

	return pipeline, completer, formatter, nil
}
