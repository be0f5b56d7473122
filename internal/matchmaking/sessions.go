package matchmaking

import "time"

// Session records one side of an active pairing.
type Session struct {
	Partner   *Client
	RoomID    string
	StartedAt time.Time
}

// SessionTable maps a client ID to its active session. Entries always
// exist in reciprocal pairs: if A's session points at B then B's session
// points back at A with the same room ID. Pair and Teardown are the only
// mutations, so a one-sided ("dangling") session cannot be produced.
//
// Not safe for concurrent use; the hub goroutine is its only caller.
type SessionTable struct {
	sessions map[string]Session
}

func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[string]Session)}
}

// Pair creates the reciprocal sessions for a and b sharing roomID.
func (t *SessionTable) Pair(a, b *Client, roomID string, now time.Time) {
	t.sessions[a.ID] = Session{Partner: b, RoomID: roomID, StartedAt: now}
	t.sessions[b.ID] = Session{Partner: a, RoomID: roomID, StartedAt: now}
}

// Lookup returns the session for id, if any.
func (t *SessionTable) Lookup(id string) (Session, bool) {
	sess, ok := t.sessions[id]
	return sess, ok
}

// Teardown removes both halves of id's pairing and returns the departing
// side's session so the caller can notify the surviving partner.
// No-op if id is not paired.
func (t *SessionTable) Teardown(id string) (Session, bool) {
	sess, ok := t.sessions[id]
	if !ok {
		return Session{}, false
	}
	delete(t.sessions, id)
	delete(t.sessions, sess.Partner.ID)
	return sess, true
}

// Pairs returns the number of active pairings.
func (t *SessionTable) Pairs() int {
	return len(t.sessions) / 2
}
