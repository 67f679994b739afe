package app

import (
	"os"
	"strconv"
	"sync"
)

const testModeEnv = "ODYSSEY_TEST_MODE"

var testMode struct {
	once    sync.Once
	mu      sync.RWMutex
	enabled bool
}

func readTestMode() bool {
	v, err := strconv.ParseBool(os.Getenv(testModeEnv))
	return err == nil && v
}

// InTestMode reports whether binaries should skip connecting to Postgres,
// Redis and the collector. The environment is read once per process.
func InTestMode() bool {
	testMode.once.Do(RefreshTestMode)
	testMode.mu.RLock()
	defer testMode.mu.RUnlock()
	return testMode.enabled
}

// RefreshTestMode re-reads ODYSSEY_TEST_MODE after the environment changed.
func RefreshTestMode() {
	enabled := readTestMode()
	testMode.mu.Lock()
	testMode.enabled = enabled
	testMode.mu.Unlock()
}
