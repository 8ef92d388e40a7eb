package session

import (
	"context"

	"github.com/google/uuid"
)

// cycle scopes one press-to-idle round. Background work runs under its
// context; results are applied only while it is still current.
type cycle struct {
	id     uuid.UUID
	ctx    context.Context
	cancel context.CancelFunc
}

func newCycle(parent context.Context) *cycle {
	ctx, cancel := context.WithCancel(parent)
	return &cycle{id: uuid.New(), ctx: ctx, cancel: cancel}
}

func (c *cycle) live() bool {
	return c.ctx.Err() == nil
}
