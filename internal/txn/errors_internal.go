package txn

import "fmt"

// assertf is the loud assertion used for invariant violations that indicate
// a bug in a caller (e.g. Track pushing Actual past Reserved). It panics
// rather than returning an error: these are not conditions production
// callers can recover from, only conditions tests should catch.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("txn: assertion failed: "+format, args...))
	}
}
