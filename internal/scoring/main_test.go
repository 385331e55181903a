package scoring

import (
	"testing"

	"go.uber.org/goleak"
)

// The scheduler spawns its ticking goroutine from Run; every test must
// wind it down before returning.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
