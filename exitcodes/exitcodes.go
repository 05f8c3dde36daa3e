// Package exitcodes defines the standard exit codes used by livetest.
package exitcodes

// Exit code constants used by livetest
//
// * Success (0): every selected case passed
// * TestFailure (1): one or more cases failed
// * RuntimeErr (2): configuration, suite loading or setup failures
const (
	Success     = 0 // All cases pass
	TestFailure = 1 // Case failures
	RuntimeErr  = 2 // Runtime errors
)
