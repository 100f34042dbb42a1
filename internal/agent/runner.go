package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/minhdn/towerdesk/internal/catalog"
	"github.com/minhdn/towerdesk/internal/domain"
	"github.com/minhdn/towerdesk/internal/llm"
	"github.com/minhdn/towerdesk/internal/logging"
	"github.com/minhdn/towerdesk/internal/tenant"
)

// RunnerConfig configures the orchestration loop.
type RunnerConfig struct {
	// MaxDispatches bounds how many operations one turn may execute.
	MaxDispatches int
	// CallTimeout bounds each individual model call.
	CallTimeout time.Duration
}

// TurnResult is the outcome of one processed message. A turn always
// produces an answer; when something went wrong mid-turn the answer is
// a fallback, Degraded is set and Error carries the cause.
type TurnResult struct {
	Response    string              `json:"response"`
	SessionID   string              `json:"sessionId"`
	Invocations []domain.Invocation `json:"functionCalls"`
	Degraded    bool                `json:"degraded,omitempty"`
	Error       string              `json:"error,omitempty"`
	Duration    time.Duration       `json:"duration"`
}

// Runner drives one conversation turn: model call, operation dispatch,
// feed the result back, repeat until the model answers in text or the
// dispatch ceiling is hit.
type Runner struct {
	cfg      RunnerConfig
	client   llm.Client
	catalog  *catalog.Catalog
	sessions *Registry
	log      *logging.Logger
}

// NewRunner creates a runner over the given model client and catalog.
func NewRunner(cfg RunnerConfig, client llm.Client, cat *catalog.Catalog, sessions *Registry, log *logging.Logger) *Runner {
	if cfg.MaxDispatches <= 0 {
		cfg.MaxDispatches = 5
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 120 * time.Second
	}
	return &Runner{
		cfg:      cfg,
		client:   client,
		catalog:  cat,
		sessions: sessions,
		log:      log.Sub("agent"),
	}
}

// Run processes one user message on the given session. Turns on the
// same session are serialized. The credential-derived binding on the
// inbound context is what the turn runs under; the session is
// re-reconciled against it once the turn lock is held, so a rival
// request rebinding the session between resolve and turn start can
// never redirect this caller's data access to another building.
func (r *Runner) Run(ctx context.Context, sess *domain.Session, message string) *TurnResult {
	start := time.Now()

	unlock := r.sessions.beginTurn(sess.ID)
	defer unlock()

	building, _ := tenant.From(ctx)
	r.sessions.reconcile(sess, building)
	ctx = tenant.Bind(ctx, building)

	r.log.Info().
		Str("sessionId", sess.ID).
		Bool("authenticated", sess.Authenticated()).
		Int("historyLen", len(sess.History)).
		Msg("processing message")

	r.sessions.append(sess.ID, domain.Message{Role: llm.RoleUser, Content: message})

	system := systemPrompt(sess.Authenticated())
	var tools []llm.Declaration
	if sess.Authenticated() {
		tools = r.catalog.Declarations()
	}

	var invocations []domain.Invocation
	var partialText string
	var turnErr error

	for i := 0; i <= r.cfg.MaxDispatches; i++ {
		reply, err := r.complete(ctx, llm.Request{
			System:   system,
			Messages: r.sessions.history(sess.ID),
			Tools:    tools,
		})
		if err != nil {
			r.log.Error().Err(err).
				Str("sessionId", sess.ID).
				Msg("model call failed")
			turnErr = fmt.Errorf("model call: %w", err)
			break
		}

		if reply.FunctionCall == nil {
			r.sessions.append(sess.ID, domain.Message{Role: llm.RoleModel, Content: reply.Text})
			r.log.Info().
				Str("sessionId", sess.ID).
				Int("dispatches", len(invocations)).
				Dur("duration", time.Since(start)).
				Msg("turn complete")
			return &TurnResult{
				Response:    reply.Text,
				SessionID:   sess.ID,
				Invocations: invocations,
				Duration:    time.Since(start),
			}
		}

		// The model was never offered tools on an anonymous session;
		// a call request here is refused without dispatching anything.
		if !sess.Authenticated() {
			r.log.Warn().
				Str("sessionId", sess.ID).
				Str("function", reply.FunctionCall.Name).
				Msg("function call on anonymous session refused")
			partialText = reply.Text
			break
		}

		if i == r.cfg.MaxDispatches {
			// Ceiling reached with the model still asking for work.
			break
		}

		call := reply.FunctionCall
		r.log.Debug().
			Str("sessionId", sess.ID).
			Str("function", call.Name).
			Msg("dispatching operation")

		result, err := r.catalog.Dispatch(ctx, call.Name, call.Args)
		if err != nil {
			// Unknown operation or schema mismatch: nothing executed,
			// the turn closes with the fallback answer.
			r.log.Error().Err(err).
				Str("sessionId", sess.ID).
				Str("function", call.Name).
				Msg("operation rejected")
			turnErr = fmt.Errorf("operation %s: %w", call.Name, err)
			break
		}

		invocations = append(invocations, domain.Invocation{
			Function: call.Name,
			Args:     call.Args,
		})

		r.sessions.append(sess.ID, domain.Message{
			Role:         llm.RoleModel,
			FunctionCall: &domain.FunctionCall{Name: call.Name, Args: call.Args},
		})
		r.sessions.append(sess.ID, domain.Message{
			Role: llm.RoleUser,
			FunctionResponse: &domain.FunctionResponse{
				Name:     call.Name,
				Response: map[string]any{"result": result},
			},
		})
	}

	// Degraded close: the ceiling was hit, an anonymous call was
	// refused, or a mid-turn failure aborted the loop. Any text the
	// model sent alongside a refused call is still the better answer.
	// The transcript gets a closing answer either way so the user turn
	// never dangles without one.
	closing := partialText
	if closing == "" {
		closing = fallbackResponse
	}
	r.sessions.append(sess.ID, domain.Message{Role: llm.RoleModel, Content: closing})
	r.log.Warn().
		Str("sessionId", sess.ID).
		Int("dispatches", len(invocations)).
		Msg("turn closed without model answer")
	res := &TurnResult{
		Response:    closing,
		SessionID:   sess.ID,
		Invocations: invocations,
		Degraded:    true,
		Duration:    time.Since(start),
	}
	if turnErr != nil {
		res.Error = turnErr.Error()
	}
	return res
}

// complete runs one bounded model call.
func (r *Runner) complete(ctx context.Context, req llm.Request) (*llm.Reply, error) {
	cctx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()
	return r.client.Complete(cctx, req)
}
