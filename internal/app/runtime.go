package app

import "os"

// testModeEnv short-circuits runtime startup. Integration harnesses set it to
// exercise the binary without live postgres and redis backends.
const testModeEnv = "AMPARO_TEST_MODE"

// InTestMode reports whether the process should skip runtime side effects.
// The environment is consulted on every call so tests can toggle it.
func InTestMode() bool {
	return os.Getenv(testModeEnv) == "1"
}
