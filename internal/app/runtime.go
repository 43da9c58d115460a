package app

import (
	"os"
	"sync"
)

var testModeOnce = sync.OnceValue(func() bool {
	return os.Getenv("SAMUDRA_TEST_MODE") == "1"
})

// InTestMode reports whether the binaries should skip runtime side effects,
// letting go test compile and exercise main without external services.
func InTestMode() bool {
	return testModeOnce()
}
