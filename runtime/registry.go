// Package runtime owns the mutable connection state of the gateway: the
// session directory and the online-user set. It contains no transport or
// business logic.
package runtime

import (
	"sort"
	"sync"

	"canopy-realtime/contract"
)

type set map[string]struct{}

// Registry maps authenticated identities to their single live connection and
// tracks which identities are currently considered online.
//
// Presence has two independent triggers: a live session entry, or an explicit
// chat-join signal not yet matched by a chat-leave or a disconnect. An
// identity is online as long as at least one trigger holds.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink // identity -> live connection
	joined   set                           // identities held online by a join signal
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.EventSink),
		joined:   make(set),
	}
}

// Register inserts or overwrites the session entry for an identity.
// Last connection wins: a reconnecting user replaces their previous handle,
// a user is never represented by two connections at once.
func (r *Registry) Register(userID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = sink
}

// Deregister removes the session entry and the identity's own join signal.
// A disconnect matches an outstanding join the same way a chat-leave does,
// so the identity goes fully offline with its connection. Join signals for
// other identities are untouched.
func (r *Registry) Deregister(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	delete(r.joined, userID)
}

// Resolve returns the connections of the given identities that currently have
// a session entry. Offline identities are silently skipped; an empty or fully
// offline member list resolves to nothing rather than an error.
func (r *Registry) Resolve(userIDs []string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for _, id := range userIDs {
		if sink, ok := r.sessions[id]; ok {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

// MarkJoined records an explicit chat-join signal for an identity. The signal
// keeps the identity online independently of any connection.
func (r *Registry) MarkJoined(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joined[userID] = struct{}{}
}

// MarkLeft clears the join signal. The identity stays online while it still
// has a live session.
func (r *Registry) MarkLeft(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.joined, userID)
}

// Online returns the current online-user set: the union of identities with a
// live session and identities with an unmatched join signal. Sorted so that
// successive broadcasts of the same set are byte-identical.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	union := make(set, len(r.sessions)+len(r.joined))
	for id := range r.sessions {
		union[id] = struct{}{}
	}
	for id := range r.joined {
		union[id] = struct{}{}
	}

	ids := make([]string, 0, len(union))
	for id := range union {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Broadcast emits an event to every live connection. Best effort: a sink that
// refuses the event is skipped, not retried.
func (r *Registry) Broadcast(event string, payload any) {
	for _, sink := range r.snapshot("") {
		_ = sink.Emit(event, payload)
	}
}

// BroadcastExcept emits to every live connection except the one owned by the
// given identity. Used on disconnect, where the leaving connection is already
// gone.
func (r *Registry) BroadcastExcept(userID string, event string, payload any) {
	for _, sink := range r.snapshot(userID) {
		_ = sink.Emit(event, payload)
	}
}

func (r *Registry) snapshot(exceptID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for id, sink := range r.sessions {
		if exceptID != "" && id == exceptID {
			continue
		}
		sinks = append(sinks, sink)
	}
	return sinks
}
