// Package common provides shared utilities and default configuration.
package common

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in custos.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Tracker: TrackerConfig{
			BaseURL:           "http://localhost:2990",
			RequestTimeout:    "30s",
			RequestsPerSecond: 5,
		},
		Bot: BotConfig{
			Name:               "custos",
			ProjectPattern:     "[A-Za-z][A-Za-z0-9]+",
			MaxList:            10,
			DedupWindowSeconds: 10,
			IgnoredUsers:       []string{},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Maintenance: MaintenanceConfig{
			GCSchedule: "0 */15 * * * *", // Every 15 minutes (cron format with seconds)
		},
	}
}
