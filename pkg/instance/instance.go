package instance

import (
	"os"
	"strings"
)

// EnvWorkerID overrides the identifier attached to worker logs.
const EnvWorkerID = "BREWBAR_WORKER_ID"

// ID returns the configured worker identifier, then the hostname, then
// "<kind>-0" when neither is available.
func ID(kind string) string {
	if id := strings.TrimSpace(os.Getenv(EnvWorkerID)); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	if kind == "" {
		kind = "worker"
	}
	return kind + "-0"
}
