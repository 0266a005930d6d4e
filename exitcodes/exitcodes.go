// Package exitcodes defines the standard exit codes used by unit test binaries.
package exitcodes

// Exit code constants used by unit test binaries.
// These constants define the exit codes that a test program uses to indicate
// various states when it exits:
//
// * Success (0): Used when all executed cases pass
// * TestFailure (1): Used when one or more cases fail
// * RuntimeErr (2): Used for runtime errors such as bad configuration or I/O failures
const (
	Success     = 0 // All cases pass
	TestFailure = 1 // Case failures
	RuntimeErr  = 2 // Runtime errors
)
