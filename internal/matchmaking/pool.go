package matchmaking

import "time"

// Profile is the ephemeral matchmaking state for one connection: what
// kind of chat it wants and when it asked. It lives from the first
// find-partner request until disconnect.
type Profile struct {
	Mode     string
	JoinedAt time.Time
}

type waitingEntry struct {
	client  *Client
	profile Profile
}

// WaitingPool is the ordered set of clients awaiting a partner.
// Insertion order is significant: it is the FIFO tie-break among
// equally-compatible candidates. A client appears at most once.
//
// The pool is not safe for concurrent use; the hub goroutine is its
// only caller.
type WaitingPool struct {
	entries []waitingEntry
}

func NewWaitingPool() *WaitingPool {
	return &WaitingPool{}
}

// Enqueue inserts the client at the tail, removing any prior entry for
// the same client first so a re-queue never creates a duplicate.
func (p *WaitingPool) Enqueue(c *Client, profile Profile) {
	p.Remove(c.ID)
	p.entries = append(p.entries, waitingEntry{client: c, profile: profile})
}

// DequeueCompatible scans entries in insertion order and removes and
// returns the first live entry whose desired mode equals mode. Dead
// entries encountered during the scan are evicted as a side effect.
// Returns nil when no same-mode candidate is waiting; a requester is
// never matched across modes.
func (p *WaitingPool) DequeueCompatible(mode string, alive func(*Client) bool) *Client {
	kept := p.entries[:0]
	var match *Client

	for i, entry := range p.entries {
		if !alive(entry.client) {
			// Stale entry from a connection that is already gone.
			continue
		}
		if match == nil && entry.profile.Mode == mode {
			match = entry.client
			continue
		}
		kept = append(kept, p.entries[i])
	}

	p.entries = kept
	return match
}

// Remove deletes the entry for id. No-op if absent.
func (p *WaitingPool) Remove(id string) {
	for i, entry := range p.entries {
		if entry.client.ID == id {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return
		}
	}
}

// Contains reports whether id is currently waiting.
func (p *WaitingPool) Contains(id string) bool {
	for _, entry := range p.entries {
		if entry.client.ID == id {
			return true
		}
	}
	return false
}

// Len returns the number of waiting entries.
func (p *WaitingPool) Len() int {
	return len(p.entries)
}
