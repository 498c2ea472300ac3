package pilot

import (
	"fmt"
	"sync"
	"time"

	"github.com/gemobotics/gemo/internal/log"
	"github.com/gemobotics/gemo/pkg/command"
	"github.com/gemobotics/gemo/pkg/web"
)

// CommandLog records every decision the controller makes: the
// normalized command, how long since the last one, and a note about
// where it came from (model, fallback, retry). When a dashboard is
// attached, entries mirror there too.
type CommandLog struct {
	mu   sync.Mutex
	last time.Time

	dashboard *web.Server // may be nil
}

// NewCommandLog creates a command log, optionally mirrored to the
// dashboard.
func NewCommandLog(dashboard *web.Server) *CommandLog {
	return &CommandLog{dashboard: dashboard}
}

// Record logs one applied command. The note distinguishes normal
// decisions from fallbacks and retry outcomes.
func (l *CommandLog) Record(cmd command.Command, note string) {
	l.mu.Lock()
	now := time.Now()
	var elapsed time.Duration
	if !l.last.IsZero() {
		elapsed = now.Sub(l.last)
	}
	l.last = now
	l.mu.Unlock()

	log.Info("command",
		"drive", cmd.Drive, "steer", cmd.Steer,
		"drive_power", fmt.Sprintf("%.2f", cmd.DrivePower),
		"steer_power", fmt.Sprintf("%.2f", cmd.SteerPower),
		"reason", cmd.Reason,
		"elapsed_ms", elapsed.Milliseconds(),
		"note", note,
	)

	if l.dashboard != nil {
		l.dashboard.RecordCommand(cmd)
		if note != "" {
			l.dashboard.AddLog("info", note)
		}
	}
}

// NoteRetry bumps the dashboard retry counter.
func (l *CommandLog) NoteRetry() {
	if l.dashboard != nil {
		l.dashboard.UpdateState(func(st *web.CarState) { st.Retries++ })
	}
}

// NoteFallback bumps the dashboard fallback counter.
func (l *CommandLog) NoteFallback() {
	if l.dashboard != nil {
		l.dashboard.UpdateState(func(st *web.CarState) { st.Fallbacks++ })
	}
}

// Error logs a controller-level error, mirrored to the dashboard.
func (l *CommandLog) Error(msg string, err error) {
	log.Error(msg, "err", err)
	if l.dashboard != nil {
		l.dashboard.AddLog("error", fmt.Sprintf("%s: %v", msg, err))
	}
}
