package pilot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gemobotics/gemo/pkg/command"
)

// fakeSession is a scriptable LiveSession.
type fakeSession struct {
	calls chan command.RawCall

	mu     sync.Mutex
	err    error
	frames int
	audio  int
	closed bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{calls: make(chan command.RawCall, 8)}
}

func (f *fakeSession) SendFrame(jpeg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames++
	return nil
}

func (f *fakeSession) SendAudio(pcm16 []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio++
	return nil
}

func (f *fakeSession) Calls() <-chan command.RawCall { return f.calls }

func (f *fakeSession) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSession) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

func (f *fakeSession) drop(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
	close(f.calls)
}

func testLive(session LiveSession, act Actuator) *Live {
	cfg := DefaultConfig().WithMode(ModeLive).WithFPS(100)
	return NewLive(cfg, session, &fakeCamera{}, act, NewCommandLog(nil))
}

func TestLiveRun_AppliesToolCall(t *testing.T) {
	session := newFakeSession()
	act := &fakeActuator{}
	l := testLive(session, act)

	session.calls <- command.RawCall{
		Name: command.ToolName,
		Args: map[string]any{"drive": "FORWARD", "steer": "LEFT", "reason": "doorway left"},
	}

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	waitFor(t, func() bool { return act.count() > 0 })
	session.drop(nil)

	if err := <-done; err != nil {
		t.Fatalf("clean close should return nil, got %v", err)
	}
	cmd, _ := act.last()
	if cmd.Drive != command.DriveForward || cmd.Steer != command.SteerLeft {
		t.Errorf("applied %+v", cmd)
	}
}

func TestLiveRun_SessionDropNeutralsThenErrors(t *testing.T) {
	session := newFakeSession()
	act := &fakeActuator{}
	l := testLive(session, act)

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	dropErr := errors.New("connection reset")
	session.drop(dropErr)

	select {
	case err := <-done:
		if !errors.Is(err, dropErr) {
			t.Fatalf("expected transport error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after session drop")
	}
	if act.neutralCount() == 0 {
		t.Error("motors not neutraled after drop")
	}
}

func TestLiveRun_ContextCancel(t *testing.T) {
	session := newFakeSession()
	act := &fakeActuator{}
	l := testLive(session, act)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancelled Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if act.neutralCount() == 0 {
		t.Error("motors not neutraled on shutdown")
	}
}

func TestLiveRun_StreamsFrames(t *testing.T) {
	session := newFakeSession()
	act := &fakeActuator{}
	l := testLive(session, act)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	waitFor(t, func() bool { return session.frameCount() > 0 })
	cancel()
	<-done
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
