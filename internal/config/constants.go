package config

// Application constants
const (
	AppName = "assaymerge"

	// EnvPrefix prefixes every environment variable read by Load
	EnvPrefix         = "ASSAY"
	DefaultConfigFile = "assaymerge.yaml"

	DefaultOutputFile     = "merged_experiment_data.csv"
	DefaultMaxUploadBytes = 32 << 20 // 32MB per uploaded table

	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 40

	DefaultLogLevel = "info"
	DefaultLogFile  = "logs/assaymerge.log"
)
