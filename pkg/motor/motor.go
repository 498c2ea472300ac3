// Package motor drives the vehicle's two L298N H-bridge channels and
// enforces pulse timing on top of them.
//
// The package is split in two layers. Driver is the pin-level
// abstraction: set one channel to a direction and duty cycle. Actuator
// sits above it and owns the safety rules: bounded drive pulses with
// automatic stop, steering pulses with a minimum interval between kicks,
// and forced-neutral recovery on driver faults.
package motor

import "github.com/gemobotics/gemo/internal/log"

// Channel identifies one H-bridge channel.
type Channel int

// The two vehicle channels.
const (
	ChannelDrive Channel = iota
	ChannelSteer
)

func (c Channel) String() string {
	switch c {
	case ChannelDrive:
		return "drive"
	case ChannelSteer:
		return "steer"
	}
	return "unknown"
}

// Direction selects which of the two H-bridge control lines is
// energized. DirStop de-energizes both.
type Direction int

// Channel directions.
const (
	DirStop Direction = iota
	DirForward
	DirReverse
)

func (d Direction) String() string {
	switch d {
	case DirForward:
		return "forward"
	case DirReverse:
		return "reverse"
	}
	return "stop"
}

// Driver sets one channel of the motor hardware. Duty is the PWM duty
// cycle in [0,1]; callers clamp before calling. Implementations must be
// safe for concurrent use from both channels.
type Driver interface {
	Set(ch Channel, dir Direction, duty float64) error
}

// Nop is a Driver that only logs. Used by --dry-run to exercise the
// full control path on machines without GPIO hardware.
type Nop struct{}

// Set logs the requested state and succeeds.
func (Nop) Set(ch Channel, dir Direction, duty float64) error {
	log.Debug("dry-run motor set", "channel", ch.String(), "dir", dir.String(), "duty", duty)
	return nil
}
