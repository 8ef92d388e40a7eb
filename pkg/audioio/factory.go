package audioio

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

// NewSource creates a capture source for cfg.Backend. Remote sources are
// created with NewPushSource by whoever owns the control channel.
func NewSource(cfg Config, logger *slog.Logger) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	backend := resolve(cfg.Backend)
	logger.Info("creating audio source",
		"backend", backend,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"buffer_ms", cfg.BufferDuration.Milliseconds(),
	)

	switch backend {
	case BackendMock:
		return NewMockSource(cfg, logger), nil
	case BackendALSA:
		return newCommandSource(alsaSpec, cfg, logger)
	case BackendCoreAudio:
		return newCommandSource(soxSpec, cfg, logger)
	case BackendRemote:
		return NewPushSource(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

// NewSink creates a playback sink for cfg.Backend. The remote backend has
// no local sink; web.Server.RemoteSink delivers audio to headsets instead.
func NewSink(cfg Config, logger *slog.Logger) (Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	backend := resolve(cfg.Backend)
	logger.Info("creating audio sink", "backend", backend, "sample_rate", cfg.SampleRate)

	switch backend {
	case BackendMock:
		return NewMockSink(cfg, logger), nil
	case BackendALSA:
		return newCommandSink(alsaSpec, cfg, logger)
	case BackendCoreAudio:
		return newCommandSink(soxSpec, cfg, logger)
	case BackendRemote:
		return nil, errors.New("remote backend has no local sink")
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

func resolve(b Backend) Backend {
	if b == BackendAuto || b == "" {
		return detectBestBackend()
	}
	return b
}

// detectBestBackend picks the platform helper if it is on PATH.
func detectBestBackend() Backend {
	switch runtime.GOOS {
	case "linux":
		if _, err := exec.LookPath("arecord"); err == nil {
			return BackendALSA
		}
	case "darwin":
		if _, err := exec.LookPath("rec"); err == nil {
			return BackendCoreAudio
		}
	}
	return BackendMock
}

// AvailableBackends lists backends usable on this machine.
func AvailableBackends() []Backend {
	backends := []Backend{BackendMock, BackendRemote}
	if _, err := exec.LookPath("arecord"); err == nil {
		backends = append(backends, BackendALSA)
	}
	if _, err := exec.LookPath("rec"); err == nil {
		backends = append(backends, BackendCoreAudio)
	}
	return backends
}
