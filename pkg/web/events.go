package web

import (
	"github.com/teslashibe/go-ducky/pkg/protocol"
	"github.com/teslashibe/go-ducky/pkg/session"
)

// The Server is a session.Observer that forwards controller events to
// dashboard viewers.

func (s *Server) OnState(from, to session.State) {
	var cycle string
	if ctrl := s.controller(); ctrl != nil {
		cycle = ctrl.CycleID()
	}
	s.publish(protocol.TypeState, protocol.StateData{
		State: to.String(),
		From:  from.String(),
		Cycle: cycle,
	})
}

func (s *Server) OnTranscript(text string, final bool) {
	s.publish(protocol.TypeTranscript, protocol.TranscriptData{Text: text, Final: final})
}

func (s *Server) OnToken(token string) {
	s.publish(protocol.TypeToken, protocol.TokenData{Token: token})
}

func (s *Server) OnReply(text string) {
	s.publish(protocol.TypeReply, protocol.ReplyData{Text: text})
}

func (s *Server) OnFailure(f *session.Failure) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	s.publish(protocol.TypeError, protocol.ErrorData{
		Kind:    f.Kind.String(),
		Stage:   string(f.Stage),
		Message: msg,
	})
}

func (s *Server) publish(t protocol.MessageType, data any) {
	if err := s.events.Publish(t, data); err != nil {
		s.logger.Warn("publish failed", "type", t, "error", err)
	}
}

var _ session.Observer = (*Server)(nil)
