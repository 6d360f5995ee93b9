package workerpool

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain fails the package if a worker goroutine outlives the tests, which
// would mean some pool was never shut down or released.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
