package motor

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Pins is the BCM wiring of one L298N channel: EN is the PWM enable
// line, IN1/IN2 pick the direction.
type Pins struct {
	EN, IN1, IN2 int
}

// Default wiring for the gemo chassis.
var (
	DefaultDrivePins = Pins{EN: 18, IN1: 23, IN2: 24}
	DefaultSteerPins = Pins{EN: 19, IN1: 27, IN2: 22}
)

// pwmFreq matches the 200Hz the L298N board is comfortable with.
const pwmFreq = 200 * physic.Hertz

type l298nChannel struct {
	en, in1, in2 gpio.PinIO
}

// L298N is a Driver for a dual H-bridge board wired to Raspberry Pi
// GPIO via periph.io. One instance owns both channels.
type L298N struct {
	mu       sync.Mutex
	channels [2]l298nChannel
}

// NewL298N initializes the GPIO host and claims the six pins. All
// channels start de-energized.
func NewL298N(drive, steer Pins) (*L298N, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("motor: gpio host init: %w", err)
	}

	d := &L298N{}
	for i, pins := range []Pins{drive, steer} {
		ch, err := openChannel(pins)
		if err != nil {
			return nil, fmt.Errorf("motor: %s channel: %w", Channel(i), err)
		}
		d.channels[i] = ch
	}

	if err := d.Set(ChannelDrive, DirStop, 0); err != nil {
		return nil, err
	}
	if err := d.Set(ChannelSteer, DirStop, 0); err != nil {
		return nil, err
	}
	return d, nil
}

func openChannel(p Pins) (l298nChannel, error) {
	ch := l298nChannel{
		en:  gpioreg.ByName(fmt.Sprintf("GPIO%d", p.EN)),
		in1: gpioreg.ByName(fmt.Sprintf("GPIO%d", p.IN1)),
		in2: gpioreg.ByName(fmt.Sprintf("GPIO%d", p.IN2)),
	}
	if ch.en == nil || ch.in1 == nil || ch.in2 == nil {
		return l298nChannel{}, fmt.Errorf("pins %d/%d/%d not found", p.EN, p.IN1, p.IN2)
	}
	return ch, nil
}

// Set energizes one channel. Direction picks which IN line goes high;
// DirStop drops both lines and the enable duty.
func (d *L298N) Set(ch Channel, dir Direction, duty float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := d.channels[ch]

	var in1, in2 gpio.Level
	switch dir {
	case DirForward:
		in1, in2 = gpio.High, gpio.Low
	case DirReverse:
		in1, in2 = gpio.Low, gpio.High
	default:
		in1, in2 = gpio.Low, gpio.Low
		duty = 0
	}

	if err := c.in1.Out(in1); err != nil {
		return fmt.Errorf("motor: %s in1: %w", ch, err)
	}
	if err := c.in2.Out(in2); err != nil {
		return fmt.Errorf("motor: %s in2: %w", ch, err)
	}
	if err := c.en.PWM(toDuty(duty), pwmFreq); err != nil {
		return fmt.Errorf("motor: %s pwm: %w", ch, err)
	}
	return nil
}

// Close de-energizes both channels.
func (d *L298N) Close() error {
	var first error
	for ch := range d.channels {
		if err := d.Set(Channel(ch), DirStop, 0); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func toDuty(f float64) gpio.Duty {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return gpio.Duty(f * float64(gpio.DutyMax))
}
