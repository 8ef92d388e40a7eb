package ducky

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/teslashibe/go-ducky/pkg/audioio"
	"github.com/teslashibe/go-ducky/pkg/chat"
	"github.com/teslashibe/go-ducky/pkg/memory"
	"github.com/teslashibe/go-ducky/pkg/session"
	"github.com/teslashibe/go-ducky/pkg/stt"
	"github.com/teslashibe/go-ducky/pkg/tts"
	"github.com/teslashibe/go-ducky/pkg/voice"
	"github.com/teslashibe/go-ducky/pkg/web"
)

var plainText = strings.NewReplacer("<b>", "", "</b>", "", "<i>", "", "</i>", "")

// App is the main ducky application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config Config
	logger *slog.Logger

	// Terminal I/O
	in  io.Reader
	out io.Writer

	// Backends
	transcriber stt.Provider
	chat        chat.Provider
	speaker     tts.Provider
	source      audioio.Source
	sink        audioio.Sink

	// Session
	exec    *session.Executor
	ctrl    *session.Controller
	bubble  *Bubble
	metrics *voice.MetricsCollector
	journal *memory.Journal

	// Web dashboard, nil when disabled
	webServer *web.Server
}

// New creates a new application with the given configuration.
func New(cfg Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		config: cfg,
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
	}, nil
}

// SetTerminal replaces stdin and stdout for keyboard control.
func (a *App) SetTerminal(in io.Reader, out io.Writer) {
	a.in, a.out = in, out
}

// Init builds backends, the session controller and the web server.
// Call this after New() and before Run().
func (a *App) Init(ctx context.Context) error {
	var err error
	cfg := a.config

	if a.transcriber, err = NewTranscriber(ctx, cfg, a.logger); err != nil {
		return fmt.Errorf("stt init: %w", err)
	}
	if a.chat, err = NewChat(cfg, a.logger); err != nil {
		return fmt.Errorf("chat init: %w", err)
	}
	if a.speaker, err = NewSpeaker(ctx, cfg, a.logger); err != nil {
		return fmt.Errorf("tts init: %w", err)
	}

	a.bubble = NewBubble()
	a.bubble.OnChange(func(text string) {
		if cfg.Keyboard && text != "" {
			fmt.Fprintf(a.out, "🦆 %s\n", plainText.Replace(text))
		}
	})

	var remote *audioio.PushSource
	if cfg.WebAddr != "" {
		if cfg.Audio.Backend == audioio.BackendRemote {
			remote = audioio.NewPushSource(cfg.Audio, a.logger)
		}
		wc := web.Config{
			Addr:      cfg.WebAddr,
			Source:    remote,
			Bubble:    a.bubble,
			StaticDir: cfg.StaticDir,
			Logger:    a.logger,
		}
		if cfg.AccessLog {
			wc.AccessLog = a.out
		}
		a.webServer = web.NewServer(wc)
	}

	if remote != nil {
		a.source, a.sink = remote, a.webServer.RemoteSink(cfg.Audio)
	} else if a.source, a.sink, err = NewAudio(cfg, a.logger); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	if err := a.sink.Start(ctx); err != nil {
		return fmt.Errorf("audio sink: %w", err)
	}

	history := session.NewHistory(cfg.SystemPrompt)
	if cfg.Journal != "" {
		a.journal, err = memory.NewJournal(memory.NewJSONStore(cfg.Journal), a.logger)
		if err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		history.Restore(a.journal.Messages())
		history.OnAppend(a.journal.Record)
		a.logger.Info("conversation restored", "turns", history.Len()-1, "path", cfg.Journal)
	}

	a.metrics = voice.NewMetricsCollector()
	a.metrics.OnUpdate(func(m voice.Metrics) {
		if !m.PlaybackDoneTime.IsZero() {
			a.logger.Debug("turn latency", "latency", m.FormatLatency())
		}
	})

	observers := session.Observers{a.bubble}
	if a.webServer != nil {
		observers = append(observers, a.webServer)
	}

	a.exec = session.NewExecutor(a.logger)
	a.ctrl, err = session.New(session.Config{
		Capture:     audioio.NewRecorder(a.source, cfg.MaxRecord, a.logger),
		Transcriber: a.transcriber,
		Chat:        a.chat,
		Speaker:     a.speaker,
		Sink:        a.sink,
		Executor:    a.exec,
		History:     history,
		Observer:    observers,
		Metrics:     a.metrics,
		Voice:       cfg.VoiceConfig(),
		Logger:      a.logger,
	})
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if a.webServer != nil {
		a.webServer.Bind(a.ctrl)
	}

	a.logger.Info("ducky initialized",
		"stt", a.transcriber.Name(),
		"chat", a.chat.Name(),
		"tts", a.speaker.Name(),
		"audio", a.source.Name(),
	)
	return nil
}

// Controller returns the session controller. It is nil before Init.
func (a *App) Controller() *session.Controller {
	return a.ctrl
}

// Bubble returns the speech bubble.
func (a *App) Bubble() *Bubble {
	return a.bubble
}

// Run drives the executor, the web server and keyboard input.
// Blocks until ctx is cancelled or the web server fails.
func (a *App) Run(ctx context.Context) error {
	if a.ctrl == nil {
		return errors.New("ducky: Run called before Init")
	}

	go a.exec.Run(ctx, a.config.Tick)

	errc := make(chan error, 2)
	if a.webServer != nil {
		go func() {
			if err := a.webServer.Start(ctx); err != nil {
				errc <- fmt.Errorf("web server: %w", err)
			}
		}()
	}
	if a.config.Keyboard {
		fmt.Fprintln(a.out, "🦆 Dev's Ducky is here. Press Enter to talk, Enter again to send, c + Enter to cancel.")
		go func() {
			if err := RunKeyboard(ctx, a.in, a.ctrl, a.logger); err != nil {
				a.logger.Warn("keyboard input ended", "error", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		return err
	}
}

// Shutdown cancels any cycle in flight and releases every component.
func (a *App) Shutdown() {
	if a.ctrl != nil {
		a.ctrl.Close()
		a.exec.Drain()
	}
	if a.webServer != nil {
		if err := a.webServer.Shutdown(); err != nil {
			a.logger.Warn("web shutdown", "error", err)
		}
	}
	closers := []io.Closer{a.sink, a.source, a.transcriber, a.chat, a.speaker}
	if a.journal != nil {
		closers = append(closers, a.journal)
	}
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.logger.Debug("close failed", "error", err)
		}
	}
	a.logger.Info("goodbye")
}
