// Package agent runs conversations: it owns the session registry and
// the orchestration loop that shuttles messages between the reasoning
// model and the operation catalog.
package agent

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minhdn/towerdesk/internal/domain"
	"github.com/minhdn/towerdesk/internal/llm"
	"github.com/minhdn/towerdesk/internal/logging"
)

// ErrSessionNotFound is returned for operations on a session id the
// registry does not hold.
var ErrSessionNotFound = errors.New("session not found")

type entry struct {
	sess *domain.Session
	turn sync.Mutex // serializes turns on this session
}

// Registry is the in-memory session registry. Sessions live for the
// process lifetime; there is no persistence and no eviction.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	log      *logging.Logger
}

// NewRegistry creates an empty session registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		log:      log.Sub("sessions"),
	}
}

// Resolve maps a caller-presented session id and the request's building
// binding to a session:
//
//   - anonymous caller: the presented id is discarded and a fresh
//     unbound session is created. Anonymous history never accumulates
//     under a guessable id. The presented session itself is left
//     untouched; an unauthenticated caller cannot evict another
//     building's live session by guessing its id.
//   - unknown or empty id: a new session bound to the building.
//   - id found, same building: the conversation continues.
//   - id found, different building: the history is cleared and the
//     session rebound. Nothing said under one building is visible
//     under another.
func (r *Registry) Resolve(presentedID, buildingID string) *domain.Session {
	if buildingID == "" {
		return r.Create("")
	}

	r.mu.Lock()
	e, ok := r.sessions[presentedID]
	if !ok {
		defer r.mu.Unlock()
		return r.createLocked(presentedID, buildingID)
	}
	r.mu.Unlock()

	// The turn lock, not the registry lock, guards session state; a
	// rebind must not run concurrently with an in-flight turn.
	e.turn.Lock()
	defer e.turn.Unlock()

	r.reconcile(e.sess, buildingID)
	e.sess.LastAccess = time.Now()
	return e.sess
}

// reconcile aligns a session with a request's building binding, clearing
// the history on a change of building. The caller must hold the
// session's turn lock. Resolve reconciles when it returns the session,
// but a rival request can rebind it again before the turn acquires its
// lock, so the runner reconciles once more at turn start.
func (r *Registry) reconcile(sess *domain.Session, buildingID string) {
	if sess.BuildingID == buildingID {
		return
	}
	r.log.Warn().
		Str("sessionId", sess.ID).
		Str("from", sess.BuildingID).
		Str("to", buildingID).
		Msg("session rebound to another building, history cleared")
	sess.History = nil
	sess.BuildingID = buildingID
}

// Create registers a new session. An empty building id makes an
// anonymous session.
func (r *Registry) Create(buildingID string) *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked("", buildingID)
}

func (r *Registry) createLocked(id, buildingID string) *domain.Session {
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()
	sess := &domain.Session{
		ID:         id,
		BuildingID: buildingID,
		CreatedAt:  now,
		LastAccess: now,
	}
	r.sessions[id] = &entry{sess: sess}
	r.log.Debug().
		Str("sessionId", id).
		Bool("authenticated", sess.Authenticated()).
		Msg("session created")
	return sess
}

// Get returns a session by id.
func (r *Registry) Get(id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.sess, nil
}

// Reset clears a session's history but keeps its identity and binding.
func (r *Registry) Reset(id string) error {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	e.turn.Lock()
	defer e.turn.Unlock()
	e.sess.History = nil
	e.sess.LastAccess = time.Now()
	return nil
}

// Delete removes a session entirely.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	r.log.Debug().Str("sessionId", id).Msg("session deleted")
	return nil
}

// List returns summaries of every live session, ordered by id.
func (r *Registry) List() []domain.SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]domain.SessionInfo, 0, len(r.sessions))
	for _, e := range r.sessions {
		infos = append(infos, domain.SessionInfo{
			SessionID:       e.sess.ID,
			BuildingID:      e.sess.BuildingID,
			IsAuthenticated: e.sess.Authenticated(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].SessionID < infos[j].SessionID })
	return infos
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// beginTurn serializes turns on one session. The returned func releases
// the turn lock; it is a no-op release if the session vanished.
func (r *Registry) beginTurn(id string) func() {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return func() {}
	}
	e.turn.Lock()
	return e.turn.Unlock
}

// history renders a session's transcript as model messages.
func (r *Registry) history(id string) []llm.Message {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	msgs := make([]llm.Message, 0, len(e.sess.History))
	for _, m := range e.sess.History {
		msg := llm.Message{Role: m.Role, Text: m.Content}
		if m.FunctionCall != nil {
			msg.FunctionCall = &llm.FunctionCall{
				Name: m.FunctionCall.Name,
				Args: m.FunctionCall.Args,
			}
		}
		if m.FunctionResponse != nil {
			msg.FunctionResponse = &llm.FunctionResponse{
				Name:     m.FunctionResponse.Name,
				Response: m.FunctionResponse.Response,
			}
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// append records a message on a session's history.
func (r *Registry) append(id string, msg domain.Message) {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	e.sess.History = append(e.sess.History, msg)
	e.sess.LastAccess = time.Now()
}
