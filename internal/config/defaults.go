package config

// Supported scoring backends.
const (
	ScoringBackendHeuristic = "heuristic"
	ScoringBackendModel     = "model"
)

const (
	defaultDataDir        = "~/.local/share/lightbox"
	defaultLogDir         = "~/.local/share/lightbox/logs"
	defaultAPIBind        = "127.0.0.1:7311"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultScanWorkers    = 4
	defaultHistoryLimit   = 5
	defaultShortlistSize  = 5
	defaultBrightnessDrop = 30.0
	defaultBrightnessSoft = 50.0
	defaultContrastDrop   = 10.0
	defaultSharpnessDrop  = 50.0
	defaultSharpnessSoft  = 120.0
	defaultMinDimension   = 600
	defaultMinAspect      = 0.33
	defaultMaxAspect      = 3.0
	defaultClusterDist    = 5
	defaultKeepPerCluster = 2

	defaultScoringBackend = ScoringBackendHeuristic
	defaultScoringTimeout = 60
	defaultScoringModel   = "cafe-aesthetic"

	defaultPrintBaseURL        = "https://api.sandbox.prodigi.com/v4.0"
	defaultPrintAssetExpiry    = 24
	defaultPrintMaxAttempts    = 3
	defaultPrintRetryBackoffMS = 500
	defaultPrintTimeout        = 30

	defaultThumbnailMaxEdge = 320

	defaultNtfyTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Scan: Scan{
			Workers:       defaultScanWorkers,
			HistoryLimit:  defaultHistoryLimit,
			ShortlistSize: defaultShortlistSize,
		},
		Quality: Quality{
			BrightnessDrop: defaultBrightnessDrop,
			BrightnessSoft: defaultBrightnessSoft,
			ContrastDrop:   defaultContrastDrop,
			SharpnessDrop:  defaultSharpnessDrop,
			SharpnessSoft:  defaultSharpnessSoft,
			MinDimension:   defaultMinDimension,
			MinAspect:      defaultMinAspect,
			MaxAspect:      defaultMaxAspect,
		},
		Cluster: Cluster{
			DistanceThreshold: defaultClusterDist,
			KeepPerCluster:    defaultKeepPerCluster,
		},
		Scoring: Scoring{
			Backend:         defaultScoringBackend,
			Model:           defaultScoringModel,
			TimeoutSeconds:  defaultScoringTimeout,
			FallbackOnError: true,
		},
		Printing: Printing{
			BaseURL:          defaultPrintBaseURL,
			AssetExpiryHours: defaultPrintAssetExpiry,
			MaxAttempts:      defaultPrintMaxAttempts,
			RetryBackoffMS:   defaultPrintRetryBackoffMS,
			TimeoutSeconds:   defaultPrintTimeout,
		},
		Thumbnails: Thumbnails{
			Enabled: true,
			MaxEdge: defaultThumbnailMaxEdge,
		},
		Notifications: Notifications{
			TimeoutSeconds: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
