package command

import "strings"

// ToolName is the function the model is instructed to call.
const ToolName = "set_rc_controls"

// Policy converts raw tool calls into safe commands. It never fails:
// anything it cannot understand becomes the STOP/CENTER default.
// The power fields supply the magnitude used when the model omits one.
type Policy struct {
	DrivePower float64
	SteerPower float64
}

// Normalize validates a raw tool call and returns a fully-specified
// command. Rules:
//
//   - nil call, wrong tool name, or no arguments: STOP/CENTER.
//   - single-axis form {"action": "forward", "power": 0.9}: the named
//     axis is set, the other stays neutral.
//   - two-axis form {"drive": "FORWARD", "steer": "LEFT"}: both axes
//     taken from the call; unrecognized values fall back to neutral
//     per axis.
//   - powers default to the policy defaults, then clamp to [0,1].
//   - reason is passed through verbatim.
//
// Every call commands a fresh state; an axis the model left out is
// neutral, never "whatever it was before".
func (p Policy) Normalize(raw *RawCall) Command {
	cmd := Neutral()
	cmd.DrivePower = clamp01(p.DrivePower)
	cmd.SteerPower = clamp01(p.SteerPower)
	if raw == nil || raw.Name != ToolName || len(raw.Args) == 0 {
		return cmd
	}
	args := raw.Args
	if reason, ok := args[argReason].(string); ok {
		cmd.Reason = reason
	}

	if action, ok := args[argAction].(string); ok {
		p.applyAction(&cmd, action, args)
		return cmd
	}

	if d, ok := args[argDrive].(string); ok {
		cmd.Drive = parseDrive(d)
	}
	if s, ok := args[argSteer].(string); ok {
		cmd.Steer = parseSteer(s)
	}
	if v, ok := lookupFloat(args, argDrivePower); ok {
		cmd.DrivePower = clamp01(v)
	}
	if v, ok := lookupFloat(args, argSteerPower); ok {
		cmd.SteerPower = clamp01(v)
	}
	return cmd
}

// Argument keys accepted in set_rc_controls calls.
const (
	argAction     = "action"
	argDrive      = "drive"
	argSteer      = "steer"
	argPower      = "power"
	argDrivePower = "drive_power"
	argSteerPower = "steer_power"
	argReason     = "reason"
)

// applyAction maps a single-axis action name onto cmd. Unknown actions
// leave the command neutral. The generic "power" argument applies to
// whichever axis the action commands.
func (p Policy) applyAction(cmd *Command, action string, args map[string]any) {
	power, hasPower := lookupFloat(args, argPower)
	switch strings.ToUpper(action) {
	case "FORWARD":
		cmd.Drive = DriveForward
	case "REVERSE":
		cmd.Drive = DriveReverse
	case "STOP":
		cmd.Drive = DriveStop
	case "LEFT":
		cmd.Steer = SteerLeft
	case "RIGHT":
		cmd.Steer = SteerRight
	case "CENTER":
		cmd.Steer = SteerCenter
	default:
		return
	}
	if !hasPower {
		return
	}
	switch {
	case cmd.Drive != DriveStop:
		cmd.DrivePower = clamp01(power)
	case cmd.Steer != SteerCenter:
		cmd.SteerPower = clamp01(power)
	}
}

func parseDrive(s string) Drive {
	d := Drive(strings.ToUpper(s))
	switch d {
	case DriveForward, DriveReverse, DriveStop:
		return d
	}
	return DriveStop
}

func parseSteer(s string) Steer {
	st := Steer(strings.ToUpper(s))
	switch st {
	case SteerLeft, SteerRight, SteerCenter:
		return st
	}
	return SteerCenter
}

// lookupFloat reads a numeric argument. JSON decoding yields float64,
// but tolerate ints from hand-built calls too.
func lookupFloat(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
