// Package debug provides global debug logging flags
package debug

import "fmt"

// Enabled controls whether debug logging is active
var Enabled bool

// Pulses controls whether per-pulse actuation logs are shown.
// These fire on every motor pulse and timer expiry, so they are
// behind their own flag to keep --debug output readable.
var Pulses bool

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Printf(format, args...)
	}
}

// Logln prints a message with newline only if debug mode is enabled
func Logln(msg string) {
	if Enabled {
		fmt.Println(msg)
	}
}

// PulseLog prints a message only if pulse debug mode is enabled
func PulseLog(format string, args ...interface{}) {
	if Pulses {
		fmt.Printf(format, args...)
	}
}
