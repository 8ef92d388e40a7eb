package web

import (
	"time"

	contribws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-ducky/pkg/audioio"
	"github.com/teslashibe/go-ducky/pkg/hub"
	"github.com/teslashibe/go-ducky/pkg/protocol"
)

func (s *Server) routeSockets(app *fiber.App) {
	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/events", websocket.New(func(c *websocket.Conn) {
		hub.NewClient(s.events, c).Run()
	}))
	app.Get("/ws/control", contribws.New(func(c *contribws.Conn) {
		hub.NewClient(s.control, c).Run()
	}))
}

// greet sends the current state to a new viewer.
func (s *Server) greet(c *hub.Client) {
	ctrl := s.controller()
	if ctrl == nil {
		return
	}
	msg, err := protocol.NewStateMessage("", ctrl.State().String(), ctrl.CycleID())
	if err != nil {
		return
	}
	if wire, err := hub.NewProtocolMessage(msg); err == nil {
		c.Send(wire)
	}
}

// handleControl dispatches one headset message. It runs on the client's
// read goroutine.
func (s *Server) handleControl(c *hub.Client, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		s.logger.Warn("bad control message", "client", c.ID(), "error", err)
		return
	}

	if msg.Type == protocol.TypePing {
		s.pong(c, msg)
		return
	}
	if msg.Type == protocol.TypeMic {
		s.handleMic(c, msg)
		return
	}

	ctrl := s.controller()
	if ctrl == nil {
		s.logger.Debug("control message before bind", "type", msg.Type)
		return
	}
	switch msg.Type {
	case protocol.TypePTTStart:
		ctrl.PressTalk()
	case protocol.TypePTTStop:
		ctrl.ReleaseTalk()
	case protocol.TypeCancel:
		ctrl.Cancel()
	default:
		s.logger.Debug("unhandled control message", "type", msg.Type)
	}
}

func (s *Server) pong(c *hub.Client, msg *protocol.Message) {
	ping, err := msg.GetPingData()
	if err != nil {
		s.logger.Warn("bad ping", "client", c.ID(), "error", err)
		return
	}
	pong, err := protocol.NewPongMessage(ping.ID, ping.Timestamp, time.Now().UnixMilli())
	if err != nil {
		return
	}
	if wire, err := hub.NewProtocolMessage(pong); err == nil {
		c.Send(wire)
	}
}

func (s *Server) handleMic(c *hub.Client, msg *protocol.Message) {
	if s.source == nil {
		return
	}
	mic, err := msg.GetMicData()
	if err != nil {
		s.logger.Warn("bad mic message", "client", c.ID(), "error", err)
		return
	}
	payload, err := mic.DecodeMicData()
	if err != nil {
		s.logger.Warn("bad mic payload", "client", c.ID(), "error", err)
		return
	}

	rate := mic.SampleRate
	if rate <= 0 {
		rate = s.source.Config().SampleRate
	}
	channels := max(mic.Channels, 1)

	var chunk audioio.AudioChunk
	switch mic.Format {
	case protocol.FormatPCM16, "":
		chunk.FromBytes(payload, rate, channels)
	case protocol.FormatOpus:
		dec, err := s.decoder(c.ID(), rate, channels)
		if err != nil {
			s.logger.Warn("opus decoder unavailable", "client", c.ID(), "error", err)
			return
		}
		chunk, err = dec.Decode(payload)
		if err != nil {
			s.logger.Warn("opus frame dropped", "client", c.ID(), "error", err)
			return
		}
	default:
		s.logger.Warn("unsupported mic format", "client", c.ID(), "format", mic.Format)
		return
	}
	s.source.Push(chunk)
}

// decoder returns the client's Opus decoder, replacing it if the stream
// format changed.
func (s *Server) decoder(id string, rate, channels int) (*audioio.OpusDecoder, error) {
	s.decodersMu.Lock()
	defer s.decodersMu.Unlock()

	if dec, ok := s.decoders[id]; ok && dec.SampleRate() == rate && dec.Channels() == channels {
		return dec, nil
	}
	dec, err := audioio.NewOpusDecoder(rate, channels)
	if err != nil {
		return nil, err
	}
	s.decoders[id] = dec
	return dec, nil
}

func (s *Server) forgetDecoder(c *hub.Client) {
	s.decodersMu.Lock()
	delete(s.decoders, c.ID())
	s.decodersMu.Unlock()
}
