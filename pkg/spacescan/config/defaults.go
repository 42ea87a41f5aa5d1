// Package config provides configuration management for spacescan.
package config

// Default configuration values.
const (
	// DefaultLargeThreshold is the immediate-file size that makes a directory large.
	DefaultLargeThreshold = "100MiB"

	// DefaultTopK is the number of large directories kept.
	DefaultTopK = 100

	// DefaultProgressInterval is the minimum gap between progress updates.
	DefaultProgressInterval = "100ms"

	// DefaultOutput is the formatter used for results.
	DefaultOutput = "pretty"

	// DefaultRetentionDays is how long saved reports and history are kept.
	DefaultRetentionDays = 30

	// DefaultConfigDir is the default configuration directory path.
	DefaultConfigDir = "~/.config/spacescan"

	// EnvPrefix prefixes environment overrides, e.g. SPACESCAN_TOP_K.
	EnvPrefix = "SPACESCAN"
)

// DefaultComponents are the per-component log levels written by WriteDefault.
var DefaultComponents = map[string]string{
	"engine":  "info",
	"scanner": "info",
	"volume":  "info",
	"report":  "info",
}
