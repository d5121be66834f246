// Package buildinfo exposes link-time build metadata.
package buildinfo

import "time"

// Set via -ldflags "-X github.com/xelth-com/wooassist/internal/buildinfo.CommitHash=..."
var (
	BuildTime  string // when the binary was compiled
	CommitHash string // short git commit hash
)

// StartTime is recorded when the process starts
var StartTime = time.Now().UTC().Format(time.RFC3339)

// Fields renders the metadata for status endpoints; unset values read "dev"
func Fields() map[string]string {
	return map[string]string{
		"commit":    orDev(CommitHash),
		"buildTime": orDev(BuildTime),
		"startedAt": StartTime,
	}
}

func orDev(s string) string {
	if s == "" {
		return "dev"
	}
	return s
}
