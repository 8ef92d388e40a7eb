// Command ducky runs Dev's Ducky, a push-to-talk coding companion.
//
// Usage:
//
//	go run ./cmd/ducky
//	go run ./cmd/ducky --config ducky.yaml --tts elevenlabs-ws,openai
//	go run ./cmd/ducky --audio remote --web :8181 --keyboard=false
//	go run ./cmd/ducky --stt mock --chat mock --tts mock --audio mock
//
// Environment variables:
//
//	WIT_CLIENT_TOKEN    - Wit.ai speech recognition
//	LLM_API_ENDPOINT    - OpenAI-compatible base URL (default Groq)
//	LLM_API_KEY         - Chat completions key
//	LLM_MODEL           - Chat model
//	OPENAI_API_KEY      - OpenAI TTS (and chat fallback)
//	ELEVENLABS_API_KEY  - ElevenLabs TTS
//	ELEVENLABS_VOICE_ID - ElevenLabs voice
//	GOOGLE_API_KEY      - Gemini and Google Cloud speech
//	GOOGLE_ACCESS_TOKEN - OAuth token for Google Cloud speech
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-ducky/internal/log"
	"github.com/teslashibe/go-ducky/pkg/audioio"
	"github.com/teslashibe/go-ducky/pkg/ducky"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	sttName := flag.String("stt", "", "Speech-to-text backend: wit, google, mock")
	chatName := flag.String("chat", "", "Chat backends, in fallback order: openai, gemini, mock")
	ttsName := flag.String("tts", "", "Text-to-speech backends, in fallback order: openai, elevenlabs, elevenlabs-ws, google, mock")
	audioName := flag.String("audio", "", "Audio backend: auto, alsa, coreaudio, remote, mock")
	device := flag.String("device", "", "Audio device name")
	webAddr := flag.String("web", "", "Dashboard address, empty to disable")
	static := flag.String("static", "", "Directory served at / by the dashboard")
	keyboard := flag.Bool("keyboard", true, "Push-to-talk with Enter on stdin")
	journal := flag.String("journal", "", "Conversation journal file")
	voiceName := flag.String("voice", "", "TTS voice")
	model := flag.String("model", "", "Chat model")
	flag.Parse()

	cfg, err := ducky.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Config error: %v\n", err)
		os.Exit(1)
	}

	// Flags override the file and environment only when given.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug":
			if *debug {
				cfg.LogLevel = "debug"
			}
		case "log-level":
			cfg.LogLevel = *logLevel
		case "stt":
			cfg.STT = *sttName
		case "chat":
			cfg.Chat = *chatName
		case "tts":
			cfg.TTS = *ttsName
		case "audio":
			cfg.Audio.Backend = audioio.Backend(*audioName)
		case "device":
			cfg.Audio.Device = *device
		case "web":
			cfg.WebAddr = *webAddr
		case "static":
			cfg.StaticDir = *static
		case "keyboard":
			cfg.Keyboard = *keyboard
		case "journal":
			cfg.Journal = *journal
		case "voice":
			cfg.Voice = *voiceName
		case "model":
			cfg.LLMModel = *model
		}
	})

	log.Init(cfg.LogLevel)
	logger := log.L()

	app, err := ducky.New(cfg, logger)
	if err != nil {
		var cerr *ducky.ConfigError
		if errors.As(err, &cerr) {
			fmt.Fprintf(os.Stderr, "❌ %v\n", cerr)
			fmt.Fprintln(os.Stderr, "   See `ducky -h` for flags and environment variables.")
		} else {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		}
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Init(ctx); err != nil {
		logger.Error("init failed", "error", err)
		app.Shutdown()
		os.Exit(1)
	}
	defer app.Shutdown()

	logger.Info("ducky started",
		"stt", cfg.STT,
		"chat", cfg.Chat,
		"tts", cfg.TTS,
		"audio", cfg.Audio.Backend,
		"web", cfg.WebAddr,
	)

	if err := app.Run(ctx); err != nil {
		logger.Error("ducky stopped", "error", err)
		app.Shutdown()
		os.Exit(1)
	}
	fmt.Println("\n👋 Bye!")
}
