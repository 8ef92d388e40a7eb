package voice

import (
	"sync"
	"time"
)

// Metrics tracks latency at each stage of one push-to-talk turn.
// All durations are measured from the moment capture ends (talk released).
type Metrics struct {
	// Timestamps for key events
	CaptureEndTime   time.Time `json:"capture_end_time"`
	TranscriptTime   time.Time `json:"transcript_time"`
	FirstTokenTime   time.Time `json:"first_token_time"`
	ReplyDoneTime    time.Time `json:"reply_done_time"`
	AudioReadyTime   time.Time `json:"audio_ready_time"`
	PlaybackDoneTime time.Time `json:"playback_done_time"`

	// Computed latencies (from capture end)
	TranscribeLatency time.Duration `json:"transcribe_latency"`
	FirstTokenLatency time.Duration `json:"first_token_latency"`
	ReplyLatency      time.Duration `json:"reply_latency"`
	AudioLatency      time.Duration `json:"audio_latency"`
	TotalLatency      time.Duration `json:"total_latency"`

	// Counts for this turn
	TokensGenerated int           `json:"tokens_generated"`
	CaptureDuration time.Duration `json:"capture_duration"`
	Cancelled       bool          `json:"cancelled"`
}

// MetricsCollector collects latency metrics during a turn.
// It is goroutine-safe.
type MetricsCollector struct {
	mu      sync.Mutex
	current Metrics
	history []Metrics // Recent turns for averaging
	limit   int

	onUpdate func(Metrics)
}

// NewMetricsCollector creates a collector that averages the last 100 turns.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		history: make([]Metrics, 0, 100),
		limit:   100,
	}
}

// OnUpdate sets a callback that fires whenever metrics are updated.
// It runs on its own goroutine.
func (m *MetricsCollector) OnUpdate(fn func(Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = fn
}

// MarkCaptureEnd starts a new turn. This is the reference point for all
// latency measurements.
func (m *MetricsCollector) MarkCaptureEnd(captured time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Metrics{
		CaptureEndTime:  time.Now(),
		CaptureDuration: captured,
	}
}

// MarkTranscript records when transcription completed.
func (m *MetricsCollector) MarkTranscript() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.TranscriptTime = time.Now()
	m.current.TranscribeLatency = m.since(m.current.TranscriptTime)
	m.notify()
}

// MarkToken counts a chat token and records the first one.
func (m *MetricsCollector) MarkToken() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.TokensGenerated++
	if m.current.FirstTokenTime.IsZero() {
		m.current.FirstTokenTime = time.Now()
		m.current.FirstTokenLatency = m.since(m.current.FirstTokenTime)
		m.notify()
	}
}

// MarkReplyDone records when the chat stream finished.
func (m *MetricsCollector) MarkReplyDone() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.ReplyDoneTime = time.Now()
	m.current.ReplyLatency = m.since(m.current.ReplyDoneTime)
	m.notify()
}

// MarkAudioReady records when synthesized audio was available.
func (m *MetricsCollector) MarkAudioReady() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.AudioReadyTime = time.Now()
	m.current.AudioLatency = m.since(m.current.AudioReadyTime)
	m.notify()
}

// MarkPlaybackDone closes the turn and archives it.
func (m *MetricsCollector) MarkPlaybackDone() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.PlaybackDoneTime = time.Now()
	m.current.TotalLatency = m.since(m.current.PlaybackDoneTime)
	m.archive()
}

// MarkCancelled closes the turn early. Turns cancelled before capture
// ended are not archived.
func (m *MetricsCollector) MarkCancelled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.CaptureEndTime.IsZero() {
		return
	}
	m.current.Cancelled = true
	m.archive()
}

func (m *MetricsCollector) since(t time.Time) time.Duration {
	if m.current.CaptureEndTime.IsZero() {
		return 0
	}
	return t.Sub(m.current.CaptureEndTime)
}

// archive must be called with mutex held.
func (m *MetricsCollector) archive() {
	m.history = append(m.history, m.current)
	if len(m.history) > m.limit {
		m.history = m.history[1:]
	}
	m.notify()
}

// Current returns the current metrics snapshot.
func (m *MetricsCollector) Current() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Turns returns the number of archived turns.
func (m *MetricsCollector) Turns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

// Average returns average latencies over recent completed turns.
// Cancelled turns are excluded.
func (m *MetricsCollector) Average() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	var avg Metrics
	var n time.Duration
	for _, h := range m.history {
		if h.Cancelled {
			continue
		}
		avg.TranscribeLatency += h.TranscribeLatency
		avg.FirstTokenLatency += h.FirstTokenLatency
		avg.ReplyLatency += h.ReplyLatency
		avg.AudioLatency += h.AudioLatency
		avg.TotalLatency += h.TotalLatency
		n++
	}
	if n == 0 {
		return Metrics{}
	}

	avg.TranscribeLatency /= n
	avg.FirstTokenLatency /= n
	avg.ReplyLatency /= n
	avg.AudioLatency /= n
	avg.TotalLatency /= n
	return avg
}

// notify must be called with mutex held.
func (m *MetricsCollector) notify() {
	if m.onUpdate != nil {
		metrics := m.current
		go m.onUpdate(metrics)
	}
}

// FormatLatency returns a one-line latency breakdown.
func (m Metrics) FormatLatency() string {
	return formatDuration(m.TranscribeLatency) + " STT | " +
		formatDuration(m.FirstTokenLatency) + " first token | " +
		formatDuration(m.ReplyLatency) + " reply | " +
		formatDuration(m.AudioLatency) + " TTS | " +
		formatDuration(m.TotalLatency) + " TOTAL"
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "---ms"
	}
	return d.Round(time.Millisecond).String()
}
