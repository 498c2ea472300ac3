// Package command defines the drive/steer command model and the policy
// that turns untrusted model output into safe, fully-specified commands.
//
// A Command always carries both axes. The drive axis moves the vehicle
// forward or backward, the steer axis kicks the front wheels left or
// right. The two are independent and may be combined in one command.
package command

// Drive is the drive-axis direction.
type Drive string

// Drive directions.
const (
	DriveForward Drive = "FORWARD"
	DriveStop    Drive = "STOP"
	DriveReverse Drive = "REVERSE"
)

// Steer is the steer-axis direction.
type Steer string

// Steer directions.
const (
	SteerLeft   Steer = "LEFT"
	SteerCenter Steer = "CENTER"
	SteerRight  Steer = "RIGHT"
)

// Command is one fully-specified actuation request. Powers are duty-cycle
// magnitudes in [0,1]; they are meaningful only when the matching axis is
// not in its neutral state. Reason is free text from the model, carried
// for logging only.
type Command struct {
	Drive      Drive
	Steer      Steer
	DrivePower float64
	SteerPower float64
	Reason     string
}

// Neutral returns the safe default command: STOP / CENTER.
func Neutral() Command {
	return Command{Drive: DriveStop, Steer: SteerCenter}
}

// IsNeutral reports whether both axes are in their neutral state.
func (c Command) IsNeutral() bool {
	return c.Drive == DriveStop && c.Steer == SteerCenter
}

// RawCall is a tool call as received from the model, before validation.
// Any field may be missing or malformed; it exists only between receipt
// and Policy.Normalize.
type RawCall struct {
	ID   string
	Name string
	Args map[string]any
}
