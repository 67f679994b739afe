// Package testing switches a test binary into test mode on import. Importing
// it for side effects keeps cmd binaries and app wiring off Postgres, Redis
// and the trace collector.
package testing

import "os"

// Defaults applied when the variable is unset. ODYSSEY_TEST_MODE is always forced.
var defaults = map[string]string{
	"OTEL_TRACES":  "none",
	"LOG_FORMAT":   "json",
	"EVENTS_ASYNC": "false",
	"AUTO_MIGRATE": "false",
}

func init() {
	_ = os.Setenv("ODYSSEY_TEST_MODE", "1")
	for key, value := range defaults {
		if _, ok := os.LookupEnv(key); !ok {
			_ = os.Setenv(key, value)
		}
	}
}
