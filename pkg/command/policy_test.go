package command

import "testing"

func TestNormalize_SafeDefaults(t *testing.T) {
	p := Policy{DrivePower: 0.45, SteerPower: 0.8}

	tests := []struct {
		name string
		raw  *RawCall
	}{
		{name: "nil call", raw: nil},
		{name: "wrong tool name", raw: &RawCall{Name: "open_pod_bay_doors", Args: map[string]any{"drive": "FORWARD"}}},
		{name: "no args", raw: &RawCall{Name: ToolName}},
		{name: "empty args", raw: &RawCall{Name: ToolName, Args: map[string]any{}}},
		{name: "unknown action", raw: &RawCall{Name: ToolName, Args: map[string]any{"action": "barrel_roll"}}},
		{name: "non-string axis values", raw: &RawCall{Name: ToolName, Args: map[string]any{"drive": 7, "steer": true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := p.Normalize(tt.raw)
			if cmd.Drive != DriveStop || cmd.Steer != SteerCenter {
				t.Errorf("got %s/%s, want STOP/CENTER", cmd.Drive, cmd.Steer)
			}
		})
	}
}

func TestNormalize_ActionForm(t *testing.T) {
	p := Policy{DrivePower: 0.45, SteerPower: 0.8}

	tests := []struct {
		name       string
		args       map[string]any
		wantDrive  Drive
		wantSteer  Steer
		wantDPower float64
		wantSPower float64
	}{
		{
			name:       "forward defaults to policy power",
			args:       map[string]any{"action": "forward"},
			wantDrive:  DriveForward,
			wantSteer:  SteerCenter,
			wantDPower: 0.45,
			wantSPower: 0.8,
		},
		{
			name:       "left with explicit power",
			args:       map[string]any{"action": "left", "power": 0.9},
			wantDrive:  DriveStop,
			wantSteer:  SteerLeft,
			wantDPower: 0.45,
			wantSPower: 0.9,
		},
		{
			name:       "power above one is clamped",
			args:       map[string]any{"action": "reverse", "power": 1.7},
			wantDrive:  DriveReverse,
			wantSteer:  SteerCenter,
			wantDPower: 1.0,
			wantSPower: 0.8,
		},
		{
			name:       "negative power is clamped",
			args:       map[string]any{"action": "right", "power": -0.3},
			wantDrive:  DriveStop,
			wantSteer:  SteerRight,
			wantDPower: 0.45,
			wantSPower: 0.0,
		},
		{
			name:       "uppercase action accepted",
			args:       map[string]any{"action": "STOP"},
			wantDrive:  DriveStop,
			wantSteer:  SteerCenter,
			wantDPower: 0.45,
			wantSPower: 0.8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := p.Normalize(&RawCall{Name: ToolName, Args: tt.args})
			if cmd.Drive != tt.wantDrive {
				t.Errorf("Drive: got %s, want %s", cmd.Drive, tt.wantDrive)
			}
			if cmd.Steer != tt.wantSteer {
				t.Errorf("Steer: got %s, want %s", cmd.Steer, tt.wantSteer)
			}
			if cmd.DrivePower != tt.wantDPower {
				t.Errorf("DrivePower: got %v, want %v", cmd.DrivePower, tt.wantDPower)
			}
			if cmd.SteerPower != tt.wantSPower {
				t.Errorf("SteerPower: got %v, want %v", cmd.SteerPower, tt.wantSPower)
			}
		})
	}
}

func TestNormalize_TwoAxisForm(t *testing.T) {
	p := Policy{DrivePower: 0.45, SteerPower: 0.8}

	cmd := p.Normalize(&RawCall{Name: ToolName, Args: map[string]any{
		"drive":  "FORWARD",
		"steer":  "LEFT",
		"reason": "clear path ahead",
	}})
	if cmd.Drive != DriveForward || cmd.Steer != SteerLeft {
		t.Errorf("got %s/%s, want FORWARD/LEFT", cmd.Drive, cmd.Steer)
	}
	if cmd.Reason != "clear path ahead" {
		t.Errorf("Reason: got %q", cmd.Reason)
	}
	if cmd.DrivePower != 0.45 || cmd.SteerPower != 0.8 {
		t.Errorf("powers: got %v/%v, want policy defaults", cmd.DrivePower, cmd.SteerPower)
	}
}

func TestNormalize_AxisOmittedStaysNeutral(t *testing.T) {
	p := Policy{DrivePower: 0.45, SteerPower: 0.8}

	// Steer-only call leaves drive at STOP, not at any previous value.
	cmd := p.Normalize(&RawCall{Name: ToolName, Args: map[string]any{"steer": "RIGHT"}})
	if cmd.Drive != DriveStop {
		t.Errorf("Drive: got %s, want STOP", cmd.Drive)
	}
	if cmd.Steer != SteerRight {
		t.Errorf("Steer: got %s, want RIGHT", cmd.Steer)
	}

	// Unrecognized value on one axis defaults only that axis.
	cmd = p.Normalize(&RawCall{Name: ToolName, Args: map[string]any{"drive": "WARP", "steer": "LEFT"}})
	if cmd.Drive != DriveStop || cmd.Steer != SteerLeft {
		t.Errorf("got %s/%s, want STOP/LEFT", cmd.Drive, cmd.Steer)
	}
}

func TestNormalize_PerAxisPowers(t *testing.T) {
	p := Policy{DrivePower: 0.45, SteerPower: 0.8}

	cmd := p.Normalize(&RawCall{Name: ToolName, Args: map[string]any{
		"drive":       "REVERSE",
		"steer":       "RIGHT",
		"drive_power": 2.5,
		"steer_power": 0.25,
	}})
	if cmd.DrivePower != 1.0 {
		t.Errorf("DrivePower: got %v, want 1.0 (clamped)", cmd.DrivePower)
	}
	if cmd.SteerPower != 0.25 {
		t.Errorf("SteerPower: got %v, want 0.25", cmd.SteerPower)
	}
}

func TestNeutral(t *testing.T) {
	n := Neutral()
	if !n.IsNeutral() {
		t.Error("Neutral() is not neutral")
	}
	if n.Drive != DriveStop || n.Steer != SteerCenter {
		t.Errorf("got %s/%s", n.Drive, n.Steer)
	}
}
