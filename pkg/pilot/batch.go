package pilot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gemobotics/gemo/internal/log"
	"github.com/gemobotics/gemo/pkg/command"
	"github.com/gemobotics/gemo/pkg/frames"
	"github.com/gemobotics/gemo/pkg/genai"
)

// Requester asks the model for one driving decision from one frame. A
// nil RawCall with a nil error means the model answered without
// calling the control tool.
type Requester interface {
	RequestCommand(ctx context.Context, model string, jpeg []byte) (*command.RawCall, error)
}

// Actuator applies normalized commands to the motors. Faults are
// absorbed below this interface; the motor layer forces neutral and
// keeps going.
type Actuator interface {
	Apply(cmd command.Command)
	Neutral()
}

// Batch is the polling controller: capture a frame, ask the model,
// apply the answer, sleep out the remainder of the period. Every tick
// applies exactly one command, falling back to neutral when the
// upstream fails.
type Batch struct {
	cfg      Config
	model    string
	policy   command.Policy
	retry    genai.RetryPolicy
	requests Requester
	camera   frames.Provider
	actuator Actuator
	cmdlog   *CommandLog
}

// NewBatch wires a batch controller.
func NewBatch(cfg Config, requests Requester, camera frames.Provider, actuator Actuator, cmdlog *CommandLog) *Batch {
	return &Batch{
		cfg:      cfg,
		model:    cfg.ResolveModel(),
		policy:   cfg.Policy(),
		retry:    cfg.RetryPolicy(),
		requests: requests,
		camera:   camera,
		actuator: actuator,
		cmdlog:   cmdlog,
	}
}

// Run drives until the context is cancelled or a credential error
// makes further requests pointless. The motors always end neutral.
func (b *Batch) Run(ctx context.Context) error {
	defer b.actuator.Neutral()

	log.Info("batch pilot started", "model", b.model, "fps", b.cfg.FPS)
	period := b.cfg.Period()

	for {
		start := time.Now()
		if err := b.tick(ctx); err != nil {
			return err
		}

		// Sleep out the remainder of the frame period.
		remaining := period - time.Since(start)
		if remaining > 0 {
			select {
			case <-time.After(remaining):
			case <-ctx.Done():
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

// tick runs one decision cycle. It returns a non-nil error only when
// the loop must stop: context cancelled, or the upstream rejected our
// credentials. Every other failure degrades to a neutral command.
func (b *Batch) tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return nil
	}

	jpeg, err := b.camera.CaptureFrame()
	if err != nil {
		b.fallback(fmt.Sprintf("camera failed: %v", err))
		return nil
	}

	raw, err := b.request(ctx, jpeg)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if genai.IsAuth(err) {
			b.cmdlog.Error("credentials rejected, stopping", err)
			return err
		}
		b.fallback(fmt.Sprintf("request failed: %v", err))
		return nil
	}

	cmd := b.policy.Normalize(raw)
	note := ""
	if raw == nil {
		note = "no tool call"
	}
	b.actuator.Apply(cmd)
	b.cmdlog.Record(cmd, note)
	return nil
}

// request performs one upstream call with the transient retry budget.
// The deadline covers all attempts of the tick.
func (b *Batch) request(ctx context.Context, jpeg []byte) (*command.RawCall, error) {
	rctx, cancel := context.WithTimeout(ctx, b.cfg.requestTimeout())
	defer cancel()

	var lastErr error
	for attempt := 0; ; attempt++ {
		raw, err := b.requests.RequestCommand(rctx, b.model, jpeg)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		delay, retry := b.retry.Next(attempt, err)
		if !retry {
			return nil, lastErr
		}
		log.Warn("transient upstream error, retrying",
			"attempt", attempt+1, "delay", delay, "err", err)
		b.cmdlog.NoteRetry()

		select {
		case <-time.After(delay):
		case <-rctx.Done():
			return nil, errors.Join(lastErr, rctx.Err())
		}
	}
}

// fallback applies the safe default for this tick and keeps going.
func (b *Batch) fallback(why string) {
	cmd := command.Neutral()
	cmd.Reason = why
	b.actuator.Apply(cmd)
	b.cmdlog.NoteFallback()
	b.cmdlog.Record(cmd, "fallback")
}
