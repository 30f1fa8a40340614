package config

const (
	defaultInboxDir     = "~/.local/share/docket/inbox"
	defaultProcessedDir = "~/.local/share/docket/processed"
	defaultStateDir     = "~/.local/share/docket/state"
	defaultLogDir       = "~/.local/share/docket/logs"
	defaultSummaryDir   = "~/.local/share/docket/summary"

	defaultExtension      = ".pdf"
	defaultTargetLanguage = "en"

	defaultTranslateTimeoutSeconds = 15
	defaultGoogleEndpoint          = "https://translation.googleapis.com/language/translate/v2"
	defaultLibreEndpoint           = "https://libretranslate.com/translate"

	defaultCacheTTLHours = 24

	defaultMaxRetryAttempts = 3
	defaultRetryDelayHours  = 24

	defaultExtractionBaseURL        = "https://api.openai.com/v1/chat/completions"
	defaultExtractionModel          = "gpt-4o-mini"
	defaultExtractionTimeoutSeconds = 60

	defaultWorkers = 4

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InboxDir:     defaultInboxDir,
			ProcessedDir: defaultProcessedDir,
			StateDir:     defaultStateDir,
			LogDir:       defaultLogDir,
			SummaryDir:   defaultSummaryDir,
		},
		Naming: Naming{
			Extension: defaultExtension,
		},
		Translation: Translation{
			TargetLanguage: defaultTargetLanguage,
			Providers:      []string{"google", "libre"},
			TimeoutSeconds: defaultTranslateTimeoutSeconds,
			GoogleEndpoint: defaultGoogleEndpoint,
			LibreEndpoint:  defaultLibreEndpoint,
		},
		Cache: Cache{
			Enabled:  true,
			TTLHours: defaultCacheTTLHours,
		},
		Retry: Retry{
			MaxAttempts: defaultMaxRetryAttempts,
			DelayHours:  defaultRetryDelayHours,
		},
		Extraction: Extraction{
			BaseURL:        defaultExtractionBaseURL,
			Model:          defaultExtractionModel,
			TimeoutSeconds: defaultExtractionTimeoutSeconds,
		},
		Workflow: Workflow{
			Workers: defaultWorkers,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RunSummary:     true,
			Errors:         true,
		},
	}
}
