package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Prompt describes a destructive action awaiting the operator's decision.
type Prompt struct {
	Action  string `json:"action"`
	Target  string `json:"target"`
	Message string `json:"message"`
}

// Confirmer is the suspension point of a destructive operation: the
// operation proceeds only when Confirm returns nil. Return ErrNotConfirmed to
// decline, or *ConfirmationRequiredError when the decision is still pending.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) error
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, p Prompt) error

func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) error {
	return f(ctx, p)
}

// AlwaysConfirm approves every prompt. Used by trusted callers such as the
// admin CLI.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, Prompt) error { return nil })

// Decline rejects every prompt.
var Decline Confirmer = ConfirmFunc(func(context.Context, Prompt) error { return ErrNotConfirmed })

// ConfirmationRequiredError is returned when the action needs a decision the
// caller has not given yet. Repeating the request with Token approves it.
type ConfirmationRequiredError struct {
	Prompt    Prompt
	Token     string
	ExpiresAt time.Time
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("confirmation required: %s", e.Prompt.Message)
}

// Confirmations issues single-use tokens that bind an approval to one
// action on one target. It backs the two-step delete protocol of the HTTP
// API.
type Confirmations struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	pending map[string]pendingConfirm
}

type pendingConfirm struct {
	action    string
	target    string
	expiresAt time.Time
}

// DefaultConfirmTTL is how long a confirmation token stays valid.
const DefaultConfirmTTL = 2 * time.Minute

// NewConfirmations creates a token registry. ttl <= 0 means DefaultConfirmTTL.
func NewConfirmations(ttl time.Duration) *Confirmations {
	if ttl <= 0 {
		ttl = DefaultConfirmTTL
	}
	return &Confirmations{
		ttl:     ttl,
		now:     time.Now,
		pending: make(map[string]pendingConfirm),
	}
}

// WithToken returns a Confirmer for a request carrying token (possibly "").
// A token previously issued for the same action and target approves the
// prompt and is consumed; anything else issues a fresh token and returns
// *ConfirmationRequiredError.
func (c *Confirmations) WithToken(token string) Confirmer {
	return ConfirmFunc(func(_ context.Context, p Prompt) error {
		c.mu.Lock()
		defer c.mu.Unlock()

		now := c.now()
		c.expireLocked(now)

		if pc, ok := c.pending[token]; ok && pc.action == p.Action && pc.target == p.Target {
			delete(c.pending, token)
			return nil
		}

		issued := uuid.NewString()
		expiresAt := now.Add(c.ttl)
		c.pending[issued] = pendingConfirm{action: p.Action, target: p.Target, expiresAt: expiresAt}
		return &ConfirmationRequiredError{Prompt: p, Token: issued, ExpiresAt: expiresAt}
	})
}

// Pending returns the number of outstanding tokens.
func (c *Confirmations) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked(c.now())
	return len(c.pending)
}

func (c *Confirmations) expireLocked(now time.Time) {
	for token, pc := range c.pending {
		if !now.Before(pc.expiresAt) {
			delete(c.pending, token)
		}
	}
}
