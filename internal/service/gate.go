package service

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/smart-trolley/internal/domain"
)

// Gate admits at most one pending confirmation per session. While a
// confirmation is held no other scan or removal may start.
type Gate struct {
	mu      sync.Mutex
	pending *Confirmation
}

func NewGate() *Gate {
	return &Gate{}
}

func (g *Gate) Pending() *Confirmation {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

func (g *Gate) check() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending != nil {
		return ErrConfirmationPending
	}
	return nil
}

func (g *Gate) hold(c *Confirmation) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending != nil {
		return ErrConfirmationPending
	}
	g.pending = c
	return nil
}

func (g *Gate) release(c *Confirmation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == c {
		g.pending = nil
	}
}

// Confirmation is a request suspended until the shopper answers. Decline
// ends it without any network call; Accept resumes it.
type Confirmation struct {
	domain.PendingConfirmation

	gate    *Gate
	mu      sync.Mutex
	done    bool
	accept  func(ctx context.Context) Outcome
	decline func(ctx context.Context) Outcome
}

func (c *Confirmation) Accept(ctx context.Context) (Outcome, error) {
	return c.Resolve(ctx, true)
}

func (c *Confirmation) Decline(ctx context.Context) (Outcome, error) {
	return c.Resolve(ctx, false)
}

// Resolve answers the confirmation. The gate is released before the
// request is sent so the shopper is never locked out by a slow backend.
func (c *Confirmation) Resolve(ctx context.Context, accept bool) (Outcome, error) {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return Outcome{}, ErrConfirmationResolved
	}
	c.done = true
	c.mu.Unlock()

	c.gate.release(c)
	if accept {
		return c.accept(ctx), nil
	}
	return c.decline(ctx), nil
}
