package audioio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
)

// commandSpec builds the argv for a capture or playback helper.
type commandSpec struct {
	backend Backend
	record  func(cfg Config) []string
	play    func(cfg Config) []string
	env     func(cfg Config) []string
}

var alsaSpec = commandSpec{
	backend: BackendALSA,
	record: func(cfg Config) []string {
		return []string{"arecord", "-q", "-t", "raw", "-f", "S16_LE",
			"-r", strconv.Itoa(cfg.SampleRate), "-c", strconv.Itoa(cfg.Channels),
			"-D", deviceOr(cfg.Device, "default")}
	},
	play: func(cfg Config) []string {
		return []string{"aplay", "-q", "-t", "raw", "-f", "S16_LE",
			"-r", strconv.Itoa(cfg.SampleRate), "-c", strconv.Itoa(cfg.Channels),
			"-D", deviceOr(cfg.Device, "default")}
	},
}

var soxSpec = commandSpec{
	backend: BackendCoreAudio,
	record: func(cfg Config) []string {
		return append([]string{"rec", "-q"}, soxRaw(cfg)...)
	},
	play: func(cfg Config) []string {
		return append([]string{"play", "-q"}, soxRaw(cfg)...)
	},
	env: func(cfg Config) []string {
		if cfg.Device == "" {
			return nil
		}
		return []string{"AUDIODEV=" + cfg.Device}
	},
}

func soxRaw(cfg Config) []string {
	return []string{"-t", "raw", "-b", "16", "-e", "signed-integer",
		"-r", strconv.Itoa(cfg.SampleRate), "-c", strconv.Itoa(cfg.Channels), "-"}
}

func deviceOr(device, def string) string {
	if device == "" {
		return def
	}
	return device
}

func (s commandSpec) command(ctx context.Context, argv []string, cfg Config) (*exec.Cmd, error) {
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrNoDevice, argv[0])
	}
	var cmd *exec.Cmd
	if ctx != nil {
		cmd = exec.CommandContext(ctx, argv[0], argv[1:]...)
	} else {
		cmd = exec.Command(argv[0], argv[1:]...)
	}
	if s.env != nil {
		if extra := s.env(cfg); len(extra) > 0 {
			cmd.Env = append(os.Environ(), extra...)
		}
	}
	return cmd, nil
}

// CommandSource captures raw PCM16 from a recorder subprocess
// (arecord or sox rec) reading its stdout in buffer-sized chunks.
type CommandSource struct {
	spec   commandSpec
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	cmd     *exec.Cmd
	ch      chan AudioChunk

	chunksRead  atomic.Int64
	samplesRead atomic.Int64
	overruns    atomic.Int64
}

func newCommandSource(spec commandSpec, cfg Config, logger *slog.Logger) (*CommandSource, error) {
	argv := spec.record(cfg)
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrNoDevice, argv[0])
	}
	return &CommandSource{
		spec:   spec,
		cfg:    cfg,
		logger: logger.With("component", "audioio.source", "backend", spec.backend),
	}, nil
}

// Start launches the recorder process.
func (s *CommandSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	cmd, err := s.spec.command(ctx, s.spec.record(s.cfg), s.cfg)
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("recorder stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start recorder: %v", ErrNoDevice, err)
	}

	s.cmd = cmd
	s.running = true
	s.ch = make(chan AudioChunk, 64)

	go s.captureLoop(bufio.NewReaderSize(stdout, s.cfg.BufferBytes()*4), s.ch)

	s.logger.Debug("capture started", "pid", cmd.Process.Pid)
	return nil
}

// captureLoop owns out and closes it when the process output ends.
func (s *CommandSource) captureLoop(r io.Reader, out chan<- AudioChunk) {
	defer close(out)

	buf := make([]byte, s.cfg.BufferBytes())
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, os.ErrClosed) {
				s.logger.Debug("capture read ended", "error", err)
			}
			return
		}
		chunk := AudioChunk{SampleRate: s.cfg.SampleRate, Channels: s.cfg.Channels}
		chunk.Samples = BytesToSamples(buf)
		select {
		case out <- chunk:
			s.chunksRead.Add(1)
			s.samplesRead.Add(int64(len(chunk.Samples)))
		default:
			s.overruns.Add(1)
		}
	}
}

// Stop terminates the recorder process.
func (s *CommandSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		go s.cmd.Wait()
	}
	s.cmd = nil
	return nil
}

// Read returns the next captured chunk, or io.EOF once the process exits.
func (s *CommandSource) Read(ctx context.Context) (AudioChunk, error) {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()

	if ch == nil {
		return AudioChunk{}, io.EOF
	}
	select {
	case <-ctx.Done():
		return AudioChunk{}, ctx.Err()
	case chunk, ok := <-ch:
		if !ok {
			return AudioChunk{}, io.EOF
		}
		return chunk, nil
	}
}

// Config returns the audio configuration.
func (s *CommandSource) Config() Config {
	return s.cfg
}

// Name returns the backend name.
func (s *CommandSource) Name() string {
	return string(s.spec.backend)
}

// Close stops capture permanently.
func (s *CommandSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Stop()
}

// Stats returns source statistics.
func (s *CommandSource) Stats() SourceStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	return SourceStats{
		ChunksRead:  s.chunksRead.Load(),
		SamplesRead: s.samplesRead.Load(),
		Overruns:    s.overruns.Load(),
		Running:     running,
		Backend:     string(s.spec.backend),
	}
}

var _ SourceWithStats = (*CommandSource)(nil)

// CommandSink plays raw PCM16 by piping it into a player subprocess
// (aplay or sox play). The process is started lazily on the first Write
// and killed by Clear, which is how playback is interrupted.
type CommandSink struct {
	spec   commandSpec
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	cmd     *exec.Cmd
	stdin   io.WriteCloser

	chunksWritten  atomic.Int64
	samplesWritten atomic.Int64
	clears         atomic.Int64
}

func newCommandSink(spec commandSpec, cfg Config, logger *slog.Logger) (*CommandSink, error) {
	argv := spec.play(cfg)
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrNoDevice, argv[0])
	}
	return &CommandSink{
		spec:   spec,
		cfg:    cfg,
		logger: logger.With("component", "audioio.sink", "backend", spec.backend),
	}, nil
}

// Start enables playback.
func (s *CommandSink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return io.ErrClosedPipe
	}
	s.running = true
	return nil
}

// Write pipes a chunk into the player, starting it if needed. The pipe
// write happens outside the lock so Clear can interrupt a blocked Write.
func (s *CommandSink) Write(ctx context.Context, chunk AudioChunk) error {
	samples := chunk.Samples
	if chunk.Channels > 1 && s.cfg.Channels == 1 {
		samples = StereoToMono(samples)
	}
	if chunk.SampleRate != 0 && chunk.SampleRate != s.cfg.SampleRate {
		samples = Resample(samples, chunk.SampleRate, s.cfg.SampleRate)
	}

	stdin, err := s.player()
	if err != nil {
		return err
	}

	if _, err := stdin.Write(SamplesToBytes(samples)); err != nil {
		s.mu.Lock()
		if s.stdin == stdin {
			s.killLocked()
		}
		s.mu.Unlock()
		return fmt.Errorf("write to player: %w", err)
	}
	s.chunksWritten.Add(1)
	s.samplesWritten.Add(int64(len(samples)))
	return nil
}

// player returns the running player's stdin, starting the process if
// needed.
func (s *CommandSink) player() (io.WriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.running {
		return nil, io.ErrClosedPipe
	}
	if s.stdin != nil {
		return s.stdin, nil
	}

	// Not tied to a request context: playback outlives the Write call.
	cmd, err := s.spec.command(nil, s.spec.play(s.cfg), s.cfg)
	if err != nil {
		return nil, err
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("player stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start player: %v", ErrNoDevice, err)
	}
	s.cmd, s.stdin = cmd, stdin
	go cmd.Wait()
	return stdin, nil
}

// Clear kills the player, dropping anything it has buffered.
func (s *CommandSink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killLocked()
	s.clears.Add(1)
	return nil
}

func (s *CommandSink) killLocked() {
	if s.stdin != nil {
		_ = s.stdin.Close()
		s.stdin = nil
	}
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	s.cmd = nil
}

// Stop halts playback.
func (s *CommandSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.killLocked()
	return nil
}

// Config returns the audio configuration.
func (s *CommandSink) Config() Config {
	return s.cfg
}

// Name returns the backend name.
func (s *CommandSink) Name() string {
	return string(s.spec.backend)
}

// Close stops playback permanently.
func (s *CommandSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Stop()
}

// Stats returns sink statistics.
func (s *CommandSink) Stats() SinkStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	return SinkStats{
		ChunksWritten:  s.chunksWritten.Load(),
		SamplesWritten: s.samplesWritten.Load(),
		Clears:         s.clears.Load(),
		Running:        running,
		Backend:        string(s.spec.backend),
	}
}

var _ SinkWithStats = (*CommandSink)(nil)
