package env

import (
	"os"
	"strings"
)

// Prefix namespaces process-level switches read before config.Load runs.
const Prefix = "BREWBAR_"

// Get returns BREWBAR_<key>, then the bare key, then fallback.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
