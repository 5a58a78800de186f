package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSearch()
	c.normalizeLLM()
	c.normalizeContent()
	c.normalizeExport()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeSearch() {
	c.Search.APIKey = strings.TrimSpace(c.Search.APIKey)
	c.Search.BaseURL = strings.TrimRight(strings.TrimSpace(c.Search.BaseURL), "/")
	if c.Search.BaseURL == "" {
		c.Search.BaseURL = defaultSearchBaseURL
	}
	c.Search.PartnerTag = strings.TrimSpace(c.Search.PartnerTag)
	if c.Search.PartnerTag == "" {
		c.Search.PartnerTag = defaultPartnerTag
	}
	c.Search.Marketplace = strings.TrimSpace(c.Search.Marketplace)
	if c.Search.Marketplace == "" {
		c.Search.Marketplace = defaultMarketplace
	}
	if c.Search.TimeoutSeconds <= 0 {
		c.Search.TimeoutSeconds = defaultSearchTimeout
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeContent() {
	c.Content.SeasonalKeyword = strings.TrimSpace(c.Content.SeasonalKeyword)
	if c.Content.SeasonalKeyword == "" {
		c.Content.SeasonalKeyword = defaultSeasonalKeyword
	}
	c.Content.DefaultCategory = strings.TrimSpace(c.Content.DefaultCategory)
	if c.Content.Concurrency <= 0 {
		c.Content.Concurrency = defaultConcurrency
	}
	if c.Content.RateLimitPerSecond < 0 {
		c.Content.RateLimitPerSecond = 0
	}
}

func (c *Config) normalizeExport() {
	c.Export.FeaturedImages = trimNonEmpty(c.Export.FeaturedImages)
	c.Export.Categories = trimNonEmpty(c.Export.Categories)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
