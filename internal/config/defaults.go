package config

const (
	defaultOutputDir         = "~/.local/share/rotativa/exports"
	defaultLogDir            = "~/.local/share/rotativa/logs"
	defaultAPIBind           = "127.0.0.1:8320"
	defaultSearchBaseURL     = "http://localhost:8010"
	defaultPartnerTag        = "rotativa-21"
	defaultMarketplace       = "www.amazon.es"
	defaultSearchTimeout     = 30
	defaultLLMBaseURL        = "https://api.deepseek.com/v1/chat/completions"
	defaultLLMModel          = "deepseek-chat"
	defaultLLMTitle          = "Rotativa Article Writer"
	defaultLLMTimeoutSeconds = 60
	defaultSeasonalKeyword   = "black friday"
	defaultConcurrency       = 1
	defaultRatePerSecond     = 1.0
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Search: Search{
			BaseURL:        defaultSearchBaseURL,
			PartnerTag:     defaultPartnerTag,
			Marketplace:    defaultMarketplace,
			TimeoutSeconds: defaultSearchTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Content: Content{
			SeasonalKeyword:    defaultSeasonalKeyword,
			Concurrency:        defaultConcurrency,
			RateLimitPerSecond: defaultRatePerSecond,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
