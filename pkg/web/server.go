// Package web provides the real-time driving dashboard: vehicle
// status, the command log, and the live camera feed.
package web

import (
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/gemobotics/gemo/internal/log"
	"github.com/gemobotics/gemo/pkg/command"
	"github.com/gemobotics/gemo/pkg/hub"
)

// CarState is the vehicle snapshot shown on the dashboard.
type CarState struct {
	Mode       string  `json:"mode"` // batch or live
	Model      string  `json:"model"`
	CameraOK   bool    `json:"camera_ok"`
	UpstreamOK bool    `json:"upstream_ok"`
	Drive      string  `json:"drive"`
	Steer      string  `json:"steer"`
	DrivePower float64 `json:"drive_power"`
	SteerPower float64 `json:"steer_power"`
	Reason     string  `json:"reason"`
	Ticks      int     `json:"ticks"`
	Retries    int     `json:"retries"`
	Fallbacks  int     `json:"fallbacks"`
}

// LogEntry is one line of the dashboard command log.
type LogEntry struct {
	ID      string `json:"id"`
	Time    string `json:"time"`
	Type    string `json:"type"` // command, info, error
	Message string `json:"message"`
}

// Server is the dashboard server.
type Server struct {
	app  *fiber.App
	port string

	// State
	state   CarState
	stateMu sync.RWMutex

	// Log buffer (last 500 entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	// Hubs for websocket broadcast (thread-safe!)
	statusHub *hub.Hub
	logHub    *hub.Hub
	cameraHub *hub.Hub
}

// NewServer creates the dashboard server on the given port.
func NewServer(port string) *Server {
	s := &Server{
		port:      port,
		logs:      make([]LogEntry, 0, 500),
		statusHub: hub.New("status"),
		logHub:    hub.New("logs"),
		cameraHub: hub.New("camera"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Gemo Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleGetLogs)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Start starts the web server
func (s *Server) Start() error {
	log.Info("dashboard listening", "url", "http://localhost:"+s.port)

	// Start all hubs
	go s.statusHub.Run()
	go s.logHub.Run()
	go s.cameraHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Warn("dashboard server error", "err", err)
		}
	}()
}

// UpdateState applies an update to the vehicle state and broadcasts
// the new snapshot to clients.
func (s *Server) UpdateState(update func(*CarState)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state // Copy for broadcast
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// RecordCommand updates the state with an applied command and logs it.
func (s *Server) RecordCommand(cmd command.Command) {
	s.UpdateState(func(st *CarState) {
		st.Drive = string(cmd.Drive)
		st.Steer = string(cmd.Steer)
		st.DrivePower = cmd.DrivePower
		st.SteerPower = cmd.SteerPower
		st.Reason = cmd.Reason
		st.Ticks++
	})
	s.AddLog("command", fmt.Sprintf("%s/%s %s", cmd.Drive, cmd.Steer, cmd.Reason))
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		ID:      uuid.NewString(),
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > 500 {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// SendCameraFrame broadcasts one JPEG frame to all connected clients.
func (s *Server) SendCameraFrame(jpegData []byte) {
	s.cameraHub.BroadcastBinary(jpegData)
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
