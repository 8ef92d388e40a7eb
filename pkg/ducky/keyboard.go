package ducky

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
)

// Talker is the push-to-talk surface the keyboard drives.
type Talker interface {
	ToggleTalk()
	Cancel()
}

// RunKeyboard reads lines from r until EOF or ctx is done. An empty line
// toggles talk and "c" cancels.
func RunKeyboard(ctx context.Context, r io.Reader, t Talker, logger *slog.Logger) error {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case line := <-lines:
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "":
				t.ToggleTalk()
			case "c", "cancel":
				t.Cancel()
			default:
				logger.Debug("unknown key command", "input", line)
			}
		}
	}
}
