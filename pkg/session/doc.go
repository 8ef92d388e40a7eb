// Package session runs the push-to-talk loop.
//
// A Controller moves through Idle, Listening, Transcribing, Thinking and
// Speaking. Network and audio work runs on background goroutines; their
// results are posted back to an Executor, and every state change and
// observer callback happens inside an action drained by that executor.
//
//	exec := session.NewExecutor(logger)
//	ctrl, _ := session.New(session.Config{
//		Capture:     recorder,
//		Transcriber: witClient,
//		Chat:        groqClient,
//		Speaker:     tts.NewBounded(openaiTTS, 10*time.Second),
//		Sink:        speaker,
//		Executor:    exec,
//	})
//	go exec.Run(ctx, session.DefaultTick)
//	ctrl.PressTalk()
//	// ...
//	ctrl.ReleaseTalk()
//
// Cancel is accepted in every non-Idle state and takes effect on the
// next drain.
package session
