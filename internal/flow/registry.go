package flow

import (
	"log/slog"
	"sync"

	"github.com/cropgen/agrichat/internal/models"
	"github.com/cropgen/agrichat/internal/responder"
)

// entry bundles everything the registry owns for one live connection.
type entry struct {
	session   *Session
	responder responder.Responder
	// archived holds transcripts of past sessions on this connection,
	// accumulated by resets and discarded on disconnect.
	archived [][]models.ChatMessage
}

// Registry owns the per-connection conversation state. Entries are created on
// connect and destroyed on disconnect; the lock guards only the map, since
// each session is mutated by its own connection's handler goroutine.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Create allocates a fresh session bound to the given responder. Any previous
// entry for the connection is replaced.
func (r *Registry) Create(connectionID string, rsp responder.Responder) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess := NewSession()
	r.entries[connectionID] = &entry{session: sess, responder: rsp}
	slog.Debug("Registry created session", "connectionID", connectionID)
	return sess
}

// Session returns the live session for a connection, if any.
func (r *Registry) Session(connectionID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[connectionID]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Responder returns the AI responder bound to a connection, if any.
func (r *Registry) Responder(connectionID string) (responder.Responder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[connectionID]
	if !ok {
		return nil, false
	}
	return e.responder, true
}

// Reset archives the current transcript (when non-empty) and swaps in a fresh
// empty session. It reports whether the connection was known.
func (r *Registry) Reset(connectionID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[connectionID]
	if !ok {
		return nil, false
	}
	if len(e.session.Transcript) > 0 {
		e.archived = append(e.archived, e.session.Transcript)
		slog.Debug("Registry archived transcript", "connectionID", connectionID, "messages", len(e.session.Transcript), "archivedSessions", len(e.archived))
	}
	e.session = NewSession()
	return e.session, true
}

// ArchivedSessions returns the archived transcripts for a connection.
func (r *Registry) ArchivedSessions(connectionID string) [][]models.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[connectionID]
	if !ok {
		return nil
	}
	return e.archived
}

// Remove releases all state for a connection.
func (r *Registry) Remove(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, connectionID)
	slog.Debug("Registry removed session", "connectionID", connectionID)
}
