package web

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gemobotics/gemo/pkg/command"
)

func TestStatusEndpoint(t *testing.T) {
	s := NewServer("0")
	s.RecordCommand(command.Command{
		Drive:      command.DriveForward,
		Steer:      command.SteerCenter,
		DrivePower: 0.45,
		Reason:     "open floor",
	})

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/status", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status: %d", resp.StatusCode)
	}

	var got statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Drive != "FORWARD" || got.Reason != "open floor" {
		t.Errorf("state: %+v", got.CarState)
	}
	if got.Ticks != 1 {
		t.Errorf("ticks: got %d, want 1", got.Ticks)
	}
	if got.Viewers != 0 {
		t.Errorf("viewers: got %d, want 0", got.Viewers)
	}
}

func TestLogsEndpoint(t *testing.T) {
	s := NewServer("0")
	s.AddLog("info", "camera ready")

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/logs", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var logs []LogEntry
	if err := json.NewDecoder(resp.Body).Decode(&logs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("entries: got %d, want 1", len(logs))
	}
	if logs[0].ID == "" || logs[0].Message != "camera ready" {
		t.Errorf("entry: %+v", logs[0])
	}
}
