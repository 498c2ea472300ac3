// Gemo - vision-driven RC car controller
// A Gemini model watches the camera and drives through tool calls;
// this binary owns the safety layer between the model and the motors.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gemobotics/gemo/internal/config"
	"github.com/gemobotics/gemo/internal/log"
	"github.com/gemobotics/gemo/pkg/debug"
	"github.com/gemobotics/gemo/pkg/frames"
	"github.com/gemobotics/gemo/pkg/genai"
	"github.com/gemobotics/gemo/pkg/motor"
	"github.com/gemobotics/gemo/pkg/pilot"
	"github.com/gemobotics/gemo/pkg/web"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gemo: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	godotenv.Load()

	cfg, dryRun, logLevel, err := parseFlags(args)
	if err != nil {
		return err
	}
	log.Init(logLevel)
	debug.Enabled = cfg.Debug

	if err := cfg.Validate(); err != nil {
		return err
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}
	if cfg.Mode == pilot.ModeLive && creds.APIKey == "" {
		return errors.New("live mode requires GEMINI_API_KEY")
	}

	// Motors. Dry-run swaps in the no-op driver so the whole stack can
	// run off-car.
	var driver motor.Driver
	if dryRun {
		log.Info("dry run, motors disabled")
		driver = motor.Nop{}
	} else {
		l298n, err := motor.NewL298N(motor.DefaultDrivePins, motor.DefaultSteerPins)
		if err != nil {
			return fmt.Errorf("motor init: %w", err)
		}
		defer l298n.Close()
		driver = l298n
	}
	actuator := motor.New(driver, cfg.ActuatorConfig())
	defer actuator.Neutral()

	// Camera.
	camCfg := frames.DefaultWebcamConfig()
	camCfg.Device = cfg.CameraDevice
	camera, err := frames.OpenWebcam(camCfg)
	if err != nil {
		return fmt.Errorf("camera init: %w", err)
	}
	defer camera.Close()

	// Dashboard (optional).
	var dashboard *web.Server
	var provider frames.Provider = camera
	if cfg.WebPort != "" {
		dashboard = web.NewServer(cfg.WebPort)
		dashboard.UpdateState(func(st *web.CarState) {
			st.Mode = string(cfg.Mode)
			st.Model = cfg.ResolveModel()
			st.CameraOK = true
		})
		dashboard.StartAsync()
		defer dashboard.Shutdown()
		provider = &mirrorFrames{camera: camera, dashboard: dashboard}
	}

	cmdlog := pilot.NewCommandLog(dashboard)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch cfg.Mode {
	case pilot.ModeLive:
		session, err := genai.Connect(ctx, genai.LiveConfig{
			Model:  cfg.ResolveModel(),
			APIKey: creds.APIKey,
		})
		if err != nil {
			return err
		}
		return pilot.NewLive(cfg, session, provider, actuator, cmdlog).Run(ctx)

	default:
		client, err := genai.NewClient(creds)
		if err != nil {
			return err
		}
		return pilot.NewBatch(cfg, client, provider, actuator, cmdlog).Run(ctx)
	}
}

// parseFlags builds the pilot configuration from flags. Pulse lengths
// and the request timeout are plain seconds on the command line
// (--drive_pulse 0.12), matching the other duty/rate flags.
func parseFlags(args []string) (pilot.Config, bool, string, error) {
	cfg := pilot.DefaultConfig()
	fs := flag.NewFlagSet("gemo", flag.ContinueOnError)

	mode := fs.String("mode", string(cfg.Mode), "Controller mode: batch or live")
	model := fs.String("model", config.Getenv("GEMO_MODEL", ""), "Model name (default depends on mode)")
	fps := fs.Float64("fps", cfg.FPS, "Decision rate in frames per second")
	driveSpeed := fs.Float64("drive_speed", cfg.DriveSpeed, "Default drive duty 0-1")
	steerPower := fs.Float64("steer_power", cfg.SteerPower, "Default steering duty 0-1")
	drivePulse := fs.Float64("drive_pulse", cfg.DrivePulse.Seconds(), "Drive pulse length in seconds")
	steerPulse := fs.Float64("steer_pulse", cfg.SteerPulse.Seconds(), "Steering pulse length in seconds")
	timeout := fs.Float64("timeout", 0, "Per-request deadline in seconds (0 derives from fps)")
	retries := fs.Int("retries", cfg.MaxRetries, "Transient error retry budget per tick")
	camera := fs.Int("camera", 0, "Camera device index")
	webPort := fs.String("web-port", config.Getenv("GEMO_WEB_PORT", ""), "Dashboard port (empty disables)")
	dryRun := fs.Bool("dry-run", false, "Log motor commands without touching GPIO")
	dbg := fs.Bool("debug", false, "Enable verbose debug logging")
	pulses := fs.Bool("debug-pulses", false, "Log every motor pulse and expiry")
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return cfg, false, "", err
	}

	cfg.Mode = pilot.Mode(*mode)
	cfg.Model = *model
	cfg.FPS = *fps
	cfg.DriveSpeed = *driveSpeed
	cfg.SteerPower = *steerPower
	cfg.DrivePulse = seconds(*drivePulse)
	cfg.SteerPulse = seconds(*steerPulse)
	cfg.RequestTimeout = seconds(*timeout)
	cfg.MaxRetries = *retries
	cfg.CameraDevice = *camera
	cfg.WebPort = *webPort
	cfg.Debug = *dbg
	debug.Pulses = *pulses

	level := *logLevel
	if cfg.Debug {
		level = "debug"
	}
	return cfg, *dryRun, level, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// mirrorFrames tees captured frames to the dashboard camera feed.
type mirrorFrames struct {
	camera    frames.Provider
	dashboard *web.Server
}

func (m *mirrorFrames) CaptureFrame() ([]byte, error) {
	jpeg, err := m.camera.CaptureFrame()
	if err != nil {
		return nil, err
	}
	m.dashboard.SendCameraFrame(jpeg)
	return jpeg, nil
}
