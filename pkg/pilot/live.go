package pilot

import (
	"context"
	"time"

	"github.com/gemobotics/gemo/internal/log"
	"github.com/gemobotics/gemo/pkg/command"
	"github.com/gemobotics/gemo/pkg/debug"
	"github.com/gemobotics/gemo/pkg/frames"
	"github.com/gemobotics/gemo/pkg/genai"
)

// LiveSession is the streaming transport the live controller drives.
// *genai.Session satisfies it.
type LiveSession interface {
	SendFrame(jpeg []byte) error
	SendAudio(pcm16 []byte) error
	Calls() <-chan command.RawCall
	Err() error
	Close() error
}

const (
	// frameQueueDepth bounds frames waiting to be sent. When the
	// uplink falls behind, old frames are dropped for new ones; the
	// model should always see the freshest view.
	frameQueueDepth = 5

	// keepaliveInterval paces the silence stream that keeps a
	// native-audio model's session open between frames.
	keepaliveInterval = time.Second

	audioSampleRate = 16000
)

// Live is the streaming controller: frames go up continuously, tool
// calls come back whenever the model decides, and each one is applied
// as soon as it arrives. A dropped session is terminal; the caller
// decides whether to start a new one.
type Live struct {
	cfg      Config
	policy   command.Policy
	session  LiveSession
	camera   frames.Provider
	actuator Actuator
	cmdlog   *CommandLog
}

// NewLive wires a live controller around an established session.
func NewLive(cfg Config, session LiveSession, camera frames.Provider, actuator Actuator, cmdlog *CommandLog) *Live {
	return &Live{
		cfg:      cfg,
		policy:   cfg.Policy(),
		session:  session,
		camera:   camera,
		actuator: actuator,
		cmdlog:   cmdlog,
	}
}

// Run applies tool calls until the context is cancelled or the session
// drops. On a drop the motors go neutral first, then the transport
// error is returned. A cancelled context returns nil.
func (l *Live) Run(ctx context.Context) error {
	defer l.session.Close()
	defer l.actuator.Neutral()

	log.Info("live pilot started", "fps", l.cfg.FPS)

	sendCtx, stopSenders := context.WithCancel(ctx)
	defer stopSenders()

	queue := make(chan []byte, frameQueueDepth)
	go l.captureLoop(sendCtx, queue)
	go l.sendLoop(sendCtx, queue)

	for {
		select {
		case <-ctx.Done():
			return nil

		case raw, ok := <-l.session.Calls():
			if !ok {
				// Stop the motors before reporting why the session
				// ended; the car must not coast on a dead link.
				l.actuator.Neutral()
				if err := l.session.Err(); err != nil {
					l.cmdlog.Error("live session dropped", err)
					return err
				}
				return nil
			}

			cmd := l.policy.Normalize(&raw)
			l.actuator.Apply(cmd)
			l.cmdlog.Record(cmd, "")
		}
	}
}

// captureLoop grabs frames at the configured rate and queues them,
// dropping the oldest queued frame when the sender falls behind.
func (l *Live) captureLoop(ctx context.Context, queue chan<- []byte) {
	ticker := time.NewTicker(l.cfg.Period())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		jpeg, err := l.camera.CaptureFrame()
		if err != nil {
			debug.Log("live: frame capture failed: %v\n", err)
			continue
		}

		select {
		case queue <- jpeg:
		default:
			// Queue full: evict the oldest frame and retry once.
			select {
			case <-queue:
			default:
			}
			select {
			case queue <- jpeg:
			default:
			}
		}
	}
}

// sendLoop pushes queued frames into the session and streams silence
// between them so the audio-native model keeps the session open.
func (l *Live) sendLoop(ctx context.Context, queue <-chan []byte) {
	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case jpeg := <-queue:
			if err := l.session.SendFrame(jpeg); err != nil {
				debug.Log("live: frame send failed: %v\n", err)
			}

		case <-keepalive.C:
			pcm := genai.SilencePCM16(audioSampleRate, keepaliveInterval)
			if err := l.session.SendAudio(pcm); err != nil {
				debug.Log("live: keepalive send failed: %v\n", err)
			}
		}
	}
}
