package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gemobotics/gemo/internal/config"
	"github.com/gemobotics/gemo/pkg/command"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.Credentials{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.baseURL = srv.URL
	return c
}

func TestRequestCommand_ParsesFunctionCall(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("request not JSON: %v", err)
		}
		if _, ok := req["tools"]; !ok {
			t.Error("request missing tools declaration")
		}

		w.Write([]byte(`{
			"candidates": [{
				"content": {
					"parts": [
						{"text": "thinking..."},
						{"functionCall": {"name": "set_rc_controls", "args": {"drive": "FORWARD", "steer": "CENTER", "reason": "open corridor"}}}
					]
				}
			}]
		}`))
	})

	raw, err := c.RequestCommand(context.Background(), "gemini-3-flash-preview", []byte("jpeg"))
	if err != nil {
		t.Fatalf("RequestCommand: %v", err)
	}
	if raw == nil {
		t.Fatal("expected a tool call, got nil")
	}
	if raw.Name != command.ToolName {
		t.Errorf("Name: got %q", raw.Name)
	}
	if raw.Args["drive"] != "FORWARD" {
		t.Errorf("drive arg: got %v", raw.Args["drive"])
	}
}

func TestRequestCommand_NoFunctionCall(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "I see a wall"}]}}]}`))
	})

	raw, err := c.RequestCommand(context.Background(), "gemini-3-flash-preview", nil)
	if err != nil {
		t.Fatalf("RequestCommand: %v", err)
	}
	if raw != nil {
		t.Errorf("expected nil call for text-only response, got %+v", raw)
	}
}

func TestRequestCommand_ServerErrorIsTransient(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := c.RequestCommand(context.Background(), "gemini-3-flash-preview", nil)
	if !IsTransient(err) {
		t.Errorf("503 should yield a transient error, got %v", err)
	}
}

func TestRequestCommand_AuthErrorIsFatal(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	})

	_, err := c.RequestCommand(context.Background(), "gemini-3-flash-preview", nil)
	if err == nil || IsTransient(err) {
		t.Fatalf("401 should be fatal, got %v", err)
	}
	if !IsAuth(err) {
		t.Errorf("401 should be an auth error, got %v", err)
	}
}

func TestRequestCommand_ContextCancel(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.RequestCommand(ctx, "gemini-3-flash-preview", nil); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestThinkingBudget(t *testing.T) {
	if got := thinkingBudget("gemini-3-flash-preview"); got != 0 {
		t.Errorf("flash budget: got %d, want 0", got)
	}
	if got := thinkingBudget("gemini-3-pro-preview"); got != 128 {
		t.Errorf("pro budget: got %d, want 128", got)
	}
}
