package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gemobotics/gemo/internal/log"
	"github.com/gemobotics/gemo/pkg/command"
	"github.com/gemobotics/gemo/pkg/debug"
)

// Gemini Live API WebSocket endpoint.
const liveEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// LiveConfig configures a live session.
type LiveConfig struct {
	Model  string
	APIKey string

	// Prompt is the standing system instruction; BasePrompt if empty.
	Prompt string

	// HandshakeTimeout bounds the WebSocket dial; 10s if zero.
	HandshakeTimeout time.Duration
}

// Session is one persistent BidiGenerateContent connection. Frames and
// audio go out through SendFrame/SendAudio; tool calls come back on
// Calls. The calls channel closes when the session ends; Err then
// reports why (nil for a local Close).
type Session struct {
	id string

	ws   *websocket.Conn
	wsMu sync.Mutex // serializes writes

	calls chan command.RawCall

	mu     sync.Mutex
	closed bool
	err    error
}

// Connect dials the live endpoint and configures the session. There is
// no retry here: a failed live connect is fatal to the controller.
func Connect(ctx context.Context, cfg LiveConfig) (*Session, error) {
	if cfg.APIKey == "" {
		return nil, &FatalError{Status: 401, Body: "live mode requires GEMINI_API_KEY"}
	}
	model := cfg.Model
	if model == "" {
		model = DefaultLiveModel
	}
	if !strings.Contains(model, "/") {
		model = "models/" + model
	}
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = BasePrompt
	}
	handshake := cfg.HandshakeTimeout
	if handshake == 0 {
		handshake = 10 * time.Second
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshake}
	ws, _, err := dialer.DialContext(ctx, liveEndpoint+"?key="+cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("genai: live connect: %w", err)
	}

	s := &Session{
		id:    uuid.NewString(),
		ws:    ws,
		calls: make(chan command.RawCall, 16),
	}

	if err := s.sendSetup(model, prompt); err != nil {
		ws.Close()
		return nil, fmt.Errorf("genai: live setup: %w", err)
	}

	go s.readLoop()

	log.Info("live session established", "session", s.id, "model", model)
	return s, nil
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// sendSetup sends the initial session configuration: model, TEXT
// response modality (commands arrive as tool calls, no audio needed
// back), system instruction, and the control tool.
func (s *Session) sendSetup(model, prompt string) error {
	return s.sendJSON(map[string]any{
		"setup": map[string]any{
			"model": model,
			"generation_config": map[string]any{
				"response_modalities": []string{"TEXT"},
			},
			"system_instruction": map[string]any{
				"parts": []map[string]any{{"text": prompt}},
			},
			"tools": []map[string]any{
				{"function_declarations": toolDeclarations()},
			},
		},
	})
}

// SendFrame streams one JPEG frame into the session.
func (s *Session) SendFrame(jpeg []byte) error {
	return s.sendRealtime(jpeg, "image/jpeg")
}

// SendAudio streams PCM16 mono audio (16kHz) into the session.
func (s *Session) SendAudio(pcm16 []byte) error {
	return s.sendRealtime(pcm16, "audio/pcm;rate=16000")
}

func (s *Session) sendRealtime(data []byte, mime string) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	return s.sendJSON(map[string]any{
		"realtime_input": map[string]any{
			"media_chunks": []map[string]any{
				{
					"data":      base64.StdEncoding.EncodeToString(data),
					"mime_type": mime,
				},
			},
		},
	})
}

// Calls returns the stream of raw tool calls. It closes when the
// session ends; check Err afterwards.
func (s *Session) Calls() <-chan command.RawCall { return s.calls }

// Err reports why the calls channel closed. It is nil after a local
// Close and non-nil after a transport drop.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close tears the session down. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.ws.Close()
}

// readLoop pumps server messages until the connection drops, turning
// toolCall messages into RawCalls on the calls channel.
func (s *Session) readLoop() {
	defer close(s.calls)

	for {
		_, message, err := s.ws.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if !s.closed {
				s.closed = true
				s.err = fmt.Errorf("%w: %v", ErrSessionClosed, err)
			}
			s.mu.Unlock()
			return
		}

		var msg map[string]any
		if err := json.Unmarshal(message, &msg); err != nil {
			debug.Log("live: unparseable message: %v\n", err)
			continue
		}
		s.handleMessage(msg)
	}
}

// handleMessage processes a single server message.
func (s *Session) handleMessage(msg map[string]any) {
	if _, ok := msg["setupComplete"]; ok {
		log.Debug("live session ready", "session", s.id)
		return
	}

	if toolCall, ok := msg["toolCall"].(map[string]any); ok {
		for _, raw := range parseToolCalls(toolCall) {
			// The Live API requires a tool response for every call.
			if err := s.submitToolResult(raw.ID, raw.Name); err != nil {
				log.Warn("tool response failed", "session", s.id, "err", err)
			}
			s.enqueueCall(raw)
		}
		return
	}

	if _, ok := msg["toolCallCancellation"]; ok {
		log.Debug("tool call cancelled", "session", s.id)
		return
	}

	// serverContent (text/transcripts) is irrelevant to driving.
	debug.Log("live: ignoring message: %v\n", msg)
}

// parseToolCalls extracts function calls from a toolCall server
// message. Split out for tests.
func parseToolCalls(toolCall map[string]any) []command.RawCall {
	functionCalls, ok := toolCall["functionCalls"].([]any)
	if !ok {
		return nil
	}

	var out []command.RawCall
	for _, fc := range functionCalls {
		fcMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		name, _ := fcMap["name"].(string)
		id, _ := fcMap["id"].(string)
		args, _ := fcMap["args"].(map[string]any)
		out = append(out, command.RawCall{ID: id, Name: name, Args: args})
	}
	return out
}

// enqueueCall hands one call to the consumer without blocking the read
// loop. When the buffer is full the oldest queued call is evicted:
// calls apply in arrival order and later ones supersede earlier ones,
// so the freshest command must survive.
func (s *Session) enqueueCall(raw command.RawCall) {
	select {
	case s.calls <- raw:
		return
	default:
	}
	select {
	case <-s.calls:
		log.Warn("oldest tool call dropped, apply loop behind", "session", s.id)
	default:
	}
	select {
	case s.calls <- raw:
	default:
	}
}

// submitToolResult acknowledges a tool call back to the model.
func (s *Session) submitToolResult(callID, name string) error {
	return s.sendJSON(map[string]any{
		"tool_response": map[string]any{
			"function_responses": []map[string]any{
				{
					"id":       callID,
					"name":     name,
					"response": map[string]any{"result": "ok"},
				},
			},
		},
	})
}

// sendJSON writes one message; the mutex keeps concurrent senders from
// interleaving frames.
func (s *Session) sendJSON(v any) error {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	return s.ws.WriteJSON(v)
}

// SilencePCM16 returns d worth of 16-bit little-endian mono silence.
// Streamed as keep-alive when driving a native-audio live model.
func SilencePCM16(rate int, d time.Duration) []byte {
	samples := int(float64(rate) * d.Seconds())
	return make([]byte, 2*samples)
}
