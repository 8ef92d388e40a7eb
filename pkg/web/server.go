// Package web serves the ducky dashboard: REST control, a live event
// stream for viewers, and the control channel a headset uses as its
// remote microphone and speaker.
package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/teslashibe/go-ducky/pkg/audioio"
	"github.com/teslashibe/go-ducky/pkg/hub"
	"github.com/teslashibe/go-ducky/pkg/session"
	"github.com/teslashibe/go-ducky/pkg/voice"
)

// Controller is the part of the session controller the server drives.
// *session.Controller satisfies it.
type Controller interface {
	PressTalk()
	ReleaseTalk()
	Cancel()
	State() session.State
	CycleID() string
	History() *session.History
	Metrics() *voice.MetricsCollector
}

// TextSource supplies the current speech bubble text.
type TextSource interface {
	Text() string
}

// Config configures the dashboard server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Source receives headset microphone frames. Nil disables mic input.
	Source *audioio.PushSource

	// Bubble is reported by /api/status when set.
	Bubble TextSource

	// StaticDir serves dashboard assets at / when set.
	StaticDir string

	// AccessLog writes one line per request when non-nil.
	AccessLog io.Writer

	Logger *slog.Logger
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	source *audioio.PushSource
	bubble TextSource

	// events carries protocol events to dashboard viewers; control carries
	// headset traffic in both directions.
	events  *hub.Hub
	control *hub.Hub

	mu   sync.RWMutex
	ctrl Controller

	decodersMu sync.Mutex
	decoders   map[string]*audioio.OpusDecoder
}

// NewServer creates a new web dashboard server
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:     cfg.Addr,
		logger:   logger.With("component", "web"),
		source:   cfg.Source,
		bubble:   cfg.Bubble,
		events:   hub.New("events", logger),
		control:  hub.New("control", logger),
		decoders: make(map[string]*audioio.OpusDecoder),
	}
	s.events.OnConnect(s.greet)
	s.control.OnMessage(s.handleControl)
	s.control.OnDisconnect(s.forgetDecoder)

	app := fiber.New(fiber.Config{
		AppName:               "Ducky Dashboard",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	// CORS for local development
	app.Use(cors.New())
	if cfg.AccessLog != nil {
		app.Use(fiberlogger.New(fiberlogger.Config{Output: cfg.AccessLog}))
	}

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/history", s.handleHistory)
	api.Get("/metrics", s.handleMetrics)
	api.Post("/ptt/start", s.handlePTTStart)
	api.Post("/ptt/stop", s.handlePTTStop)
	api.Post("/cancel", s.handleCancel)

	s.routeSockets(app)

	s.app = app
	return s
}

// Bind attaches the session controller. Control requests made before
// Bind answer 503.
func (s *Server) Bind(ctrl Controller) {
	s.mu.Lock()
	s.ctrl = ctrl
	s.mu.Unlock()
}

func (s *Server) controller() Controller {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctrl
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// RemoteSink returns a sink that plays audio on connected headsets.
func (s *Server) RemoteSink(cfg audioio.Config) *RemoteSink {
	return NewRemoteSink(s.control, cfg, s.logger)
}

// Start runs the hubs and serves until ctx is done or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.RunHubs(ctx)
	s.logger.Info("web dashboard listening", "addr", s.addr)

	errc := make(chan error, 1)
	go func() { errc <- s.app.Listen(s.addr) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// RunHubs starts the event and control hubs. They stop with ctx.
func (s *Server) RunHubs(ctx context.Context) {
	go s.events.Run(ctx)
	go s.control.Run(ctx)
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(5 * time.Second)
}
