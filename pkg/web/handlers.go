package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-ducky/pkg/chat"
	"github.com/teslashibe/go-ducky/pkg/session"
	"github.com/teslashibe/go-ducky/pkg/voice"
)

// Status is the dashboard snapshot returned by /api/status.
type Status struct {
	State     string        `json:"state"`
	Cycle     string        `json:"cycle,omitempty"`
	Bubble    string        `json:"bubble"`
	Listening bool          `json:"listening"`
	Speaking  bool          `json:"speaking"`
	Headsets  int           `json:"headsets"`
	Viewers   int           `json:"viewers"`
	Metrics   voice.Metrics `json:"metrics"`
}

// MetricsReport is returned by /api/metrics.
type MetricsReport struct {
	Current voice.Metrics `json:"current"`
	Average voice.Metrics `json:"average"`
	Turns   int           `json:"turns"`
}

var errNotReady = fiber.NewError(fiber.StatusServiceUnavailable, "session not ready")

func (s *Server) handleStatus(c *fiber.Ctx) error {
	ctrl := s.controller()
	if ctrl == nil {
		return errNotReady
	}

	state := ctrl.State()
	st := Status{
		State:     state.String(),
		Cycle:     ctrl.CycleID(),
		Listening: state == session.Listening,
		Speaking:  state == session.Speaking,
		Headsets:  s.control.ClientCount(),
		Viewers:   s.events.ClientCount(),
		Metrics:   ctrl.Metrics().Current(),
	}
	if s.bubble != nil {
		st.Bubble = s.bubble.Text()
	}
	return c.JSON(st)
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	ctrl := s.controller()
	if ctrl == nil {
		return errNotReady
	}

	turns := ctrl.History().Snapshot()
	if c.QueryBool("system", false) {
		return c.JSON(turns)
	}
	out := make([]chat.Message, 0, len(turns))
	for _, m := range turns {
		if m.Role != chat.RoleSystem {
			out = append(out, m)
		}
	}
	return c.JSON(out)
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	ctrl := s.controller()
	if ctrl == nil {
		return errNotReady
	}
	m := ctrl.Metrics()
	return c.JSON(MetricsReport{
		Current: m.Current(),
		Average: m.Average(),
		Turns:   m.Turns(),
	})
}

func (s *Server) handlePTTStart(c *fiber.Ctx) error {
	return s.post(c, Controller.PressTalk)
}

func (s *Server) handlePTTStop(c *fiber.Ctx) error {
	return s.post(c, Controller.ReleaseTalk)
}

func (s *Server) handleCancel(c *fiber.Ctx) error {
	return s.post(c, Controller.Cancel)
}

// post queues an event on the controller. The event is applied on the
// next drain, so the response carries the state at request time.
func (s *Server) post(c *fiber.Ctx, event func(Controller)) error {
	ctrl := s.controller()
	if ctrl == nil {
		return errNotReady
	}
	event(ctrl)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"state": ctrl.State().String(),
	})
}
