// Package voice holds the tunables and latency metrics of the
// push-to-talk pipeline.
//
// A turn runs capture, transcription, chat, and synthesis in order.
// Config gathers the knobs for each stage; MetricsCollector measures
// every stage from the moment the talk control is released:
//
//	m := voice.NewMetricsCollector()
//	m.MarkCaptureEnd(captured)
//	// ... transcription finishes
//	m.MarkTranscript()
//	// ... first chat token, reply complete, audio ready
//	m.MarkPlaybackDone()
//	fmt.Println(m.Current().FormatLatency())
package voice
