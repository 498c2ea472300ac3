// Package pilot runs the vehicle: it turns camera frames into model
// requests, normalizes the returned tool calls, and applies them to
// the motors. Two controllers exist, one per mode: Batch polls the
// generateContent API at a fixed rate, Live holds a persistent
// streaming session and applies tool calls as they arrive.
package pilot

import (
	"fmt"
	"time"

	"github.com/gemobotics/gemo/pkg/command"
	"github.com/gemobotics/gemo/pkg/genai"
	"github.com/gemobotics/gemo/pkg/motor"
)

// Mode selects the controller.
type Mode string

const (
	ModeBatch Mode = "batch"
	ModeLive  Mode = "live"
)

// Config holds everything both controllers need. Zero values are not
// usable; start from DefaultConfig.
type Config struct {
	Mode  Mode
	Model string // empty picks the mode's default

	// FPS is the batch decision rate (frames per second).
	FPS float64

	// DriveSpeed is the default drive duty when the model omits power.
	DriveSpeed float64

	// SteerPower is the default steering duty.
	SteerPower float64

	// Pulse lengths and the steering rate limit.
	DrivePulse       time.Duration
	SteerPulse       time.Duration
	MinSteerInterval time.Duration

	// RequestTimeout bounds one batch API call including retries held
	// inside it; zero derives it from the frame period.
	RequestTimeout time.Duration

	// Retry budget for transient upstream failures.
	MaxRetries int
	RetryDelay time.Duration

	CameraDevice int
	WebPort      string // empty disables the dashboard
	Debug        bool
}

// DefaultConfig mirrors the stock setup: a cautious batch driver at
// 5 decisions per second.
func DefaultConfig() Config {
	return Config{
		Mode:             ModeBatch,
		FPS:              5.0,
		DriveSpeed:       0.45,
		SteerPower:       0.80,
		DrivePulse:       120 * time.Millisecond,
		SteerPulse:       100 * time.Millisecond,
		MinSteerInterval: 50 * time.Millisecond,
		MaxRetries:       2,
		RetryDelay:       400 * time.Millisecond,
	}
}

// Validate rejects configurations that would stall or thrash the car.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeBatch, ModeLive:
	default:
		return fmt.Errorf("pilot: unknown mode %q", c.Mode)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("pilot: fps must be positive, got %v", c.FPS)
	}
	if c.DriveSpeed < 0 || c.DriveSpeed > 1 {
		return fmt.Errorf("pilot: drive speed %v outside [0,1]", c.DriveSpeed)
	}
	if c.SteerPower < 0 || c.SteerPower > 1 {
		return fmt.Errorf("pilot: steer power %v outside [0,1]", c.SteerPower)
	}
	if c.DrivePulse <= 0 || c.SteerPulse <= 0 {
		return fmt.Errorf("pilot: pulse durations must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("pilot: max retries must not be negative")
	}
	return nil
}

// Period is the batch frame period.
func (c Config) Period() time.Duration {
	return time.Duration(float64(time.Second) / c.FPS)
}

// ResolveModel picks the model for the mode. Live mode always uses the
// live-capable model; batch-tuned names fail the Bidi handshake, so an
// explicit Model is ignored there.
func (c Config) ResolveModel() string {
	if c.Mode == ModeLive {
		return genai.DefaultLiveModel
	}
	if c.Model != "" {
		return c.Model
	}
	return genai.DefaultBatchModel
}

// WithMode returns a copy with the mode set.
func (c Config) WithMode(m Mode) Config {
	c.Mode = m
	return c
}

// WithModel returns a copy with an explicit model.
func (c Config) WithModel(model string) Config {
	c.Model = model
	return c
}

// WithFPS returns a copy with the decision rate set.
func (c Config) WithFPS(fps float64) Config {
	c.FPS = fps
	return c
}

// ActuatorConfig maps the pilot timings onto the motor layer.
func (c Config) ActuatorConfig() motor.Config {
	return motor.Config{
		DrivePulse:       c.DrivePulse,
		SteerPulse:       c.SteerPulse,
		MinSteerInterval: c.MinSteerInterval,
	}
}

// Policy maps the default powers onto command normalization.
func (c Config) Policy() command.Policy {
	return command.Policy{
		DrivePower: c.DriveSpeed,
		SteerPower: c.SteerPower,
	}
}

// RetryPolicy maps the retry budget onto the genai layer.
func (c Config) RetryPolicy() genai.RetryPolicy {
	return genai.RetryPolicy{
		MaxRetries: c.MaxRetries,
		BaseDelay:  c.RetryDelay,
	}
}

// requestTimeout returns the per-request deadline: explicit when set,
// otherwise twice the frame period with a floor of one second.
func (c Config) requestTimeout() time.Duration {
	if c.RequestTimeout > 0 {
		return c.RequestTimeout
	}
	d := 2 * c.Period()
	if d < time.Second {
		d = time.Second
	}
	return d
}
