package motor

import (
	"sync"
	"time"

	"github.com/gemobotics/gemo/internal/log"
	"github.com/gemobotics/gemo/pkg/command"
	"github.com/gemobotics/gemo/pkg/debug"
)

// Config holds the pulse timing parameters.
type Config struct {
	// DrivePulse bounds how long a single drive command keeps the
	// motor energized before the automatic stop.
	DrivePulse time.Duration

	// SteerPulse is how long a steering kick lasts before the wheels
	// return to center.
	SteerPulse time.Duration

	// MinSteerInterval is the minimum gap between two non-center
	// steering pulses. Pulses arriving sooner are dropped to protect
	// the steering mechanism from rapid reversal.
	MinSteerInterval time.Duration
}

// DefaultConfig returns the stock gemo pulse timing.
func DefaultConfig() Config {
	return Config{
		DrivePulse:       120 * time.Millisecond,
		SteerPulse:       100 * time.Millisecond,
		MinSteerInterval: 50 * time.Millisecond,
	}
}

// channelState is the per-channel actuation state. gen bumps on every
// applied change so a stale reset timer can detect it was preempted.
type channelState struct {
	mu        sync.Mutex
	gen       uint64
	timer     *time.Timer
	lastPulse time.Time
	dir       Direction
	duty      float64
}

// Actuator applies commands to the motor driver while enforcing the
// pulse contract: every non-neutral actuation is followed by an
// automatic return to neutral, no external command required. Each
// channel has its own lock, so drive and steer never block each other.
// Driver faults are absorbed: the channel is forced neutral and the
// caller's loop keeps running.
type Actuator struct {
	driver Driver
	cfg    Config
	drive  channelState
	steer  channelState
}

// New creates an Actuator over the given driver. Both channels start
// neutral.
func New(driver Driver, cfg Config) *Actuator {
	return &Actuator{driver: driver, cfg: cfg}
}

// Apply actuates both axes of cmd. It never fails; faults are logged
// and the affected channel is forced neutral.
func (a *Actuator) Apply(cmd command.Command) {
	a.applyDrive(cmd)
	a.applySteer(cmd)
}

// Neutral forces both channels to STOP/CENTER and cancels any pending
// pulse timers. This is the mandatory finalizer on shutdown and error
// paths.
func (a *Actuator) Neutral() {
	a.drive.mu.Lock()
	a.neutralLocked(&a.drive, ChannelDrive)
	a.drive.mu.Unlock()

	a.steer.mu.Lock()
	a.neutralLocked(&a.steer, ChannelSteer)
	a.steer.mu.Unlock()
}

// DriveState returns the current drive direction and duty.
func (a *Actuator) DriveState() (Direction, float64) {
	a.drive.mu.Lock()
	defer a.drive.mu.Unlock()
	return a.drive.dir, a.drive.duty
}

// SteerState returns the current steer direction and duty.
func (a *Actuator) SteerState() (Direction, float64) {
	a.steer.mu.Lock()
	defer a.steer.mu.Unlock()
	return a.steer.dir, a.steer.duty
}

func (a *Actuator) applyDrive(cmd command.Command) {
	st := &a.drive
	st.mu.Lock()
	defer st.mu.Unlock()

	switch cmd.Drive {
	case command.DriveForward:
		a.pulseLocked(st, ChannelDrive, DirForward, cmd.DrivePower, a.cfg.DrivePulse)
	case command.DriveReverse:
		a.pulseLocked(st, ChannelDrive, DirReverse, cmd.DrivePower, a.cfg.DrivePulse)
	default:
		a.neutralLocked(st, ChannelDrive)
	}
}

func (a *Actuator) applySteer(cmd command.Command) {
	st := &a.steer
	st.mu.Lock()
	defer st.mu.Unlock()

	var dir Direction
	switch cmd.Steer {
	case command.SteerLeft:
		dir = DirForward
	case command.SteerRight:
		dir = DirReverse
	default:
		// CENTER is the safe state and always applies, even inside
		// the minimum interval.
		a.neutralLocked(st, ChannelSteer)
		return
	}

	if a.cfg.MinSteerInterval > 0 && !st.lastPulse.IsZero() {
		if since := time.Since(st.lastPulse); since < a.cfg.MinSteerInterval {
			debug.PulseLog("steer %s dropped (%.0fms since last pulse)\n", cmd.Steer, since.Seconds()*1000)
			return
		}
	}
	a.pulseLocked(st, ChannelSteer, dir, cmd.SteerPower, a.cfg.SteerPulse)
}

// pulseLocked energizes the channel and schedules the automatic return
// to neutral. A newer command bumps gen, turning the pending timer into
// a no-op. Caller holds st.mu.
func (a *Actuator) pulseLocked(st *channelState, ch Channel, dir Direction, duty float64, pulse time.Duration) {
	if duty < 0 {
		duty = 0
	}
	if duty > 1 {
		duty = 1
	}

	st.gen++
	gen := st.gen
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	st.lastPulse = time.Now()

	if err := a.driver.Set(ch, dir, duty); err != nil {
		a.recoverLocked(st, ch, err)
		return
	}
	st.dir, st.duty = dir, duty
	debug.PulseLog("%s pulse %s duty=%.2f for %s\n", ch, dir, duty, pulse)

	if pulse > 0 {
		st.timer = time.AfterFunc(pulse, func() { a.expire(st, ch, gen) })
	}
}

// expire is the pulse timer callback: return the channel to neutral
// unless a newer command preempted this pulse.
func (a *Actuator) expire(st *channelState, ch Channel, gen uint64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.gen != gen {
		return
	}
	debug.PulseLog("%s pulse expired\n", ch)
	a.neutralLocked(st, ch)
}

// neutralLocked de-energizes the channel. Caller holds st.mu.
func (a *Actuator) neutralLocked(st *channelState, ch Channel) {
	st.gen++
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	if err := a.driver.Set(ch, DirStop, 0); err != nil {
		a.recoverLocked(st, ch, err)
		return
	}
	st.dir, st.duty = DirStop, 0
}

// recoverLocked handles a driver fault: log it, try once more to reach
// the neutral state, and record neutral regardless so the next tick
// starts from a known baseline. Caller holds st.mu.
func (a *Actuator) recoverLocked(st *channelState, ch Channel, err error) {
	log.Error("actuator fault, forcing neutral", "channel", ch.String(), "err", err)
	if err := a.driver.Set(ch, DirStop, 0); err != nil {
		log.Error("neutral recovery failed", "channel", ch.String(), "err", err)
	}
	st.dir, st.duty = DirStop, 0
}
