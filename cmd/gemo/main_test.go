package main

import (
	"testing"
	"time"
)

func TestParseFlags_PulseSecondsSyntax(t *testing.T) {
	cfg, _, _, err := parseFlags([]string{"--drive_pulse", "0.12", "--steer_pulse", "0.10"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.DrivePulse != 120*time.Millisecond {
		t.Errorf("drive pulse: got %v, want 120ms", cfg.DrivePulse)
	}
	if cfg.SteerPulse != 100*time.Millisecond {
		t.Errorf("steer pulse: got %v, want 100ms", cfg.SteerPulse)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	cfg, dryRun, level, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Mode != "batch" || cfg.FPS != 5.0 {
		t.Errorf("defaults: mode %q fps %v", cfg.Mode, cfg.FPS)
	}
	if cfg.DrivePulse != 120*time.Millisecond || cfg.SteerPulse != 100*time.Millisecond {
		t.Errorf("default pulses: %v/%v", cfg.DrivePulse, cfg.SteerPulse)
	}
	if cfg.RequestTimeout != 0 {
		t.Errorf("default timeout: got %v", cfg.RequestTimeout)
	}
	if dryRun || level != "info" {
		t.Errorf("defaults: dryRun=%v level=%q", dryRun, level)
	}
}

func TestParseFlags_TimeoutSeconds(t *testing.T) {
	cfg, _, _, err := parseFlags([]string{"--timeout", "1.5"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.RequestTimeout != 1500*time.Millisecond {
		t.Errorf("timeout: got %v, want 1.5s", cfg.RequestTimeout)
	}
}

func TestParseFlags_WebPortEnvFallback(t *testing.T) {
	t.Setenv("GEMO_WEB_PORT", "8080")

	cfg, _, _, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.WebPort != "8080" {
		t.Errorf("env fallback: got %q, want 8080", cfg.WebPort)
	}

	cfg, _, _, err = parseFlags([]string{"--web-port", "9090"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.WebPort != "9090" {
		t.Errorf("flag must beat env: got %q", cfg.WebPort)
	}
}

func TestParseFlags_BadValue(t *testing.T) {
	if _, _, _, err := parseFlags([]string{"--drive_pulse", "fast"}); err == nil {
		t.Error("expected parse error for non-numeric pulse")
	}
}
