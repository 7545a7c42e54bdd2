// Package query holds the client-side state machine behind a single
// vibe check interaction: one query string, one in-flight request, one
// outcome.
package query

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/vibecheck/vibecheck/internal/api"
	"github.com/vibecheck/vibecheck/internal/core"
)

// GenericFailureMessage is shown when the server rejects a request.
// Status codes and response bodies are deliberately not surfaced.
const GenericFailureMessage = "vibe check failed, try again"

// Phase identifies which variant of the request state is active.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseFailed
)

// String returns a readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RequestState is a tagged union over the request lifecycle. Result is
// set only in PhaseSuccess and Message only in PhaseFailed, so invalid
// combinations (loading with a result, error with a result) cannot be
// represented.
type RequestState struct {
	Phase   Phase
	Result  *core.VibeResult
	Message string
}

// AnalyzeClient is the transport the controller drives. *api.Client
// satisfies it.
type AnalyzeClient interface {
	Analyze(ctx context.Context, title string) (*core.VibeResult, error)
}

// Controller owns the query text and request state for one vibe check
// surface. Methods are safe for concurrent use; resolution of a
// superseded request never mutates state.
type Controller struct {
	client AnalyzeClient

	mu    sync.Mutex
	query string
	state RequestState
	gen   uint64
}

// NewController creates a Controller in the idle state.
func NewController(client AnalyzeClient) *Controller {
	return &Controller{client: client, state: RequestState{Phase: PhaseIdle}}
}

// SetQuery replaces the query text. Editing the query never resets the
// request state; only CheckVibe transitions it.
func (c *Controller) SetQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = query
}

// Query returns the current query text.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// State returns a snapshot of the request state.
func (c *Controller) State() RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Loading reports whether a request is in flight.
func (c *Controller) Loading() bool {
	return c.State().Phase == PhaseLoading
}

// Err returns the failure message, or "" outside the failed state.
func (c *Controller) Err() string {
	s := c.State()
	if s.Phase != PhaseFailed {
		return ""
	}
	return s.Message
}

// Result returns the successful result, or nil outside the success
// state.
func (c *Controller) Result() *core.VibeResult {
	s := c.State()
	if s.Phase != PhaseSuccess {
		return nil
	}
	return s.Result
}

// CheckVibe issues one analysis request for the current query and
// blocks until it resolves. An empty query is a no-op.
//
// Each call bumps a generation counter; when calls overlap, only the
// most recently started one is allowed to commit its outcome, so a
// stale response can never clobber newer state.
func (c *Controller) CheckVibe(ctx context.Context) {
	c.mu.Lock()
	title := strings.TrimSpace(c.query)
	if title == "" {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	c.state = RequestState{Phase: PhaseLoading}
	c.mu.Unlock()

	result, err := c.client.Analyze(ctx, title)

	next := RequestState{Phase: PhaseSuccess, Result: result}
	if err != nil {
		next = RequestState{Phase: PhaseFailed, Message: failureMessage(err)}
	}
	c.commit(gen, next)
}

// Reset returns the controller to the idle state without touching the
// query text. An in-flight request is superseded and its resolution
// discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.state = RequestState{Phase: PhaseIdle}
}

func (c *Controller) commit(gen uint64, next RequestState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// Superseded by a newer call or a reset.
		return
	}
	c.state = next
}

// failureMessage maps server rejections to the fixed generic message
// and everything else (transport, decode) to the error text verbatim.
func failureMessage(err error) string {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		return GenericFailureMessage
	}
	return err.Error()
}
