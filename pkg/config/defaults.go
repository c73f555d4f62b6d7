package config

// Default configuration values.
const (
	DefaultNamesWatch           = false
	DefaultNamesSimilarDistance = 2
	DefaultNamesCacheSize       = 1024
	DefaultNamesSearchLimit     = 50

	DefaultValidationMaxSuggestions = 3
	DefaultValidationMaxKnownHint   = 5

	DefaultLoggingLevel = "info"
	DefaultLoggingJSON  = false

	DefaultTelemetryOTLPInsecure = false
)
