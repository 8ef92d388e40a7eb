// Command ducky-check measures push-to-talk latency against the configured
// backends without a microphone or speaker. Each loop transcribes a test
// utterance, streams a reply and synthesizes it, then prints per-stage
// timings.
//
// Usage:
//
//	go run ./cmd/ducky-check --loops 3
//	go run ./cmd/ducky-check --wav question.wav --tts elevenlabs-ws
//	go run ./cmd/ducky-check --stt mock --chat mock --tts mock
//
// Synthetic audio rarely yields a transcript, so --question is sent to the
// chat backend whenever recognition comes back empty.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-ducky/internal/log"
	"github.com/teslashibe/go-ducky/pkg/ducky"
	"github.com/teslashibe/go-ducky/pkg/voice"
	"github.com/teslashibe/go-ducky/pkg/wav"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	loops := flag.Int("loops", 3, "Number of cycles to run")
	duration := flag.Duration("duration", 2*time.Second, "Length of the synthetic utterance")
	wavPath := flag.String("wav", "", "Utterance WAV file (PCM16) instead of synthetic audio")
	question := flag.String("question", "What is a race condition?", "Question used when nothing is recognized")
	sttName := flag.String("stt", "", "Speech-to-text backend")
	chatName := flag.String("chat", "", "Chat backends")
	ttsName := flag.String("tts", "", "Text-to-speech backends")
	health := flag.Bool("health", true, "Check backend health before running")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := ducky.LoadConfig(*configPath)
	if err != nil {
		fatalf("config: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "stt":
			cfg.STT = *sttName
		case "chat":
			cfg.Chat = *chatName
		case "tts":
			cfg.TTS = *ttsName
		case "debug":
			if *debug {
				cfg.LogLevel = "debug"
			}
		}
	})
	// No audio devices are touched.
	cfg.Keyboard = false
	cfg.WebAddr = ""
	cfg.Audio.Backend = "mock"
	if err := cfg.Validate(); err != nil {
		fatalf("%v", err)
	}

	log.Init(cfg.LogLevel)
	logger := log.L()

	utterance := SpeechLike(*duration, cfg.Audio.SampleRate)
	if *wavPath != "" {
		data, err := os.ReadFile(*wavPath)
		if err != nil {
			fatalf("read %s: %v", *wavPath, err)
		}
		if utterance, err = wav.Decode(data); err != nil {
			fatalf("decode %s: %v", *wavPath, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	transcriber, err := ducky.NewTranscriber(ctx, cfg, logger)
	if err != nil {
		fatalf("stt: %v", err)
	}
	defer transcriber.Close()
	chatProvider, err := ducky.NewChat(cfg, logger)
	if err != nil {
		fatalf("chat: %v", err)
	}
	defer chatProvider.Close()
	speaker, err := ducky.NewSpeaker(ctx, cfg, logger)
	if err != nil {
		fatalf("tts: %v", err)
	}
	defer speaker.Close()

	fmt.Println("🦆 Ducky latency check")
	fmt.Println("======================")
	fmt.Printf("STT:   %s\n", transcriber.Name())
	fmt.Printf("Chat:  %s\n", chatProvider.Name())
	fmt.Printf("TTS:   %s\n", speaker.Name())
	fmt.Printf("Loops: %d\n", *loops)
	fmt.Printf("Audio: %s at %d Hz\n", utterance.Duration(), utterance.SampleRate)
	fmt.Println()

	if *health {
		hctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		checkHealth(hctx, os.Stdout, "chat", chatProvider.Health)
		checkHealth(hctx, os.Stdout, "tts", speaker.Health)
		cancel()
		fmt.Println()
	}

	prober := NewProber(transcriber, chatProvider, speaker, cfg.VoiceConfig(), *question)
	results := prober.Run(ctx, *loops, utterance, func(r Result) {
		fmt.Printf("📝 Test %d/%d\n", r.Loop, *loops)
		if r.Err != nil {
			fmt.Printf("   ❌ %s: %v\n", r.Stage, r.Err)
			return
		}
		if r.Transcript != "" {
			fmt.Printf("   🎤 %s\n", truncate(r.Transcript, 60))
		}
		fmt.Printf("   💬 %s\n", truncate(r.Reply, 60))
		fmt.Printf("   📊 %s\n", r.Metrics.FormatLatency())
	})

	printResults(os.Stdout, results, prober.Metrics().Average())
}

func checkHealth(ctx context.Context, w io.Writer, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		fmt.Fprintf(w, "⚠️  %s health: %v\n", name, err)
		return
	}
	fmt.Fprintf(w, "✅ %s healthy\n", name)
}

func printResults(w io.Writer, results []Result, avg voice.Metrics) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "📊 Results Summary")
	fmt.Fprintln(w, "==================")

	ok := 0
	for _, r := range results {
		if r.Err == nil {
			ok++
		}
	}
	if ok == 0 {
		fmt.Fprintf(w, "❌ All %d tests failed.\n", len(results))
		return
	}

	fmt.Fprintln(w, "┌─────────────────────────────────────────┐")
	fmt.Fprintln(w, "│           LATENCY METRICS (avg)         │")
	fmt.Fprintln(w, "├─────────────────────────────────────────┤")
	fmt.Fprintf(w, "│  Transcribe:     %-22s│\n", formatDuration(avg.TranscribeLatency))
	fmt.Fprintf(w, "│  First token:    %-22s│\n", formatDuration(avg.FirstTokenLatency))
	fmt.Fprintf(w, "│  Reply done:     %-22s│\n", formatDuration(avg.ReplyLatency))
	fmt.Fprintf(w, "│  Audio ready:    %-22s│\n", formatDuration(avg.AudioLatency))
	fmt.Fprintf(w, "│  Success rate:   %-22s│\n", fmt.Sprintf("%d/%d", ok, len(results)))
	fmt.Fprintln(w, "└─────────────────────────────────────────┘")

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Detailed Results:")
	fmt.Fprintln(w, "┌──────┬──────────┬──────────┬──────────┬──────────┬──────────┐")
	fmt.Fprintln(w, "│ Loop │ STT      │ Token    │ Reply    │ TTS      │ Status   │")
	fmt.Fprintln(w, "├──────┼──────────┼──────────┼──────────┼──────────┼──────────┤")
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Stage + " err"
		}
		m := r.Metrics
		fmt.Fprintf(w, "│ %4d │ %8s │ %8s │ %8s │ %8s │ %-8s │\n",
			r.Loop,
			formatDuration(m.TranscribeLatency),
			formatDuration(m.FirstTokenLatency),
			formatDuration(m.ReplyLatency),
			formatDuration(m.AudioLatency),
			status)
	}
	fmt.Fprintln(w, "└──────┴──────────┴──────────┴──────────┴──────────┴──────────┘")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "❌ "+format+"\n", args...)
	os.Exit(1)
}
