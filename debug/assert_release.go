//go:build !debug

// Package debug provides assertions that can be enabled with the debug build
// tag or will otherwise compile to no-ops, and the diagnostic logger shared
// by all drivers.
//
// Assertions aren't idiomatic Go, but driver code has preconditions that hang
// the hardware instead of returning an error if violated.  Checking them on
// every call is too expensive for release builds.
package debug

// Enabled reports if assertions are compiled in. Guard assertions which are
// expensive to evaluate with `if debug.Enabled {...}`.
const Enabled = false

// Assert panics with the formatted message if b is false.
func Assert(b bool, format string, args ...any) {}

// AssertErrNil panics if err is not nil.
func AssertErrNil(err error) {}
