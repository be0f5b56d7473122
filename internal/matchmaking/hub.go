package matchmaking

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Settings are the tunable relay policies, filled from config.
type Settings struct {
	// MaxMessageLength caps chat text, in runes.
	MaxMessageLength int

	// DedupWindow is how long an identical repeat from the same sender
	// is suppressed.
	DedupWindow time.Duration

	// TypingExpiry is how long a typing-start lives without a
	// typing-stop before the hub forwards an implicit stop.
	TypingExpiry time.Duration
}

// Stats is a point-in-time snapshot of hub occupancy.
type Stats struct {
	Connected int `json:"connected"`
	Waiting   int `json:"waiting"`
	Pairs     int `json:"pairs"`
}

// Hub is the central brain of the server. It owns every piece of shared
// matchmaking state (connected clients, profiles, the waiting pool, the
// session table) and mutates it from a single goroutine, so pairing,
// relay and teardown never interleave. Everything reaches the hub
// through its channels.
type Hub struct {
	// Register is a channel for registering new clients.
	Register chan *Client

	// Unregister is a channel for unregistering clients.
	Unregister chan *Client

	// Inbound carries every decoded client message into the loop.
	Inbound chan *Message

	snapshots    chan chan Stats
	typingExpiry chan typingExpiryEvent
	quit         chan struct{}

	log      *slog.Logger
	settings Settings
	validate *validator.Validate

	clients  map[string]*Client
	handles  map[string]bool
	profiles map[string]Profile
	pool     *WaitingPool
	sessions *SessionTable
	relay    *Relay

	typing    map[string]typingTimer
	typingGen uint64
}

// typingTimer is a pending implicit-stop timer, stamped with the
// generation that created it.
type typingTimer struct {
	timer *time.Timer
	gen   uint64
}

// typingExpiryEvent re-enters the hub loop when a typing timer fires.
// The generation lets the loop ignore an expiry that was queued just as
// a newer typing-start replaced its timer.
type typingExpiryEvent struct {
	id  string
	gen uint64
}

// NewHub creates a new Hub instance.
func NewHub(settings Settings, log *slog.Logger) *Hub {
	h := &Hub{
		Register:     make(chan *Client),
		Unregister:   make(chan *Client),
		Inbound:      make(chan *Message),
		snapshots:    make(chan chan Stats),
		typingExpiry: make(chan typingExpiryEvent, 64),
		quit:         make(chan struct{}),
		log:          log,
		settings:     settings,
		validate:     validator.New(),
		clients:      make(map[string]*Client),
		handles:      make(map[string]bool),
		profiles:     make(map[string]Profile),
		pool:         NewWaitingPool(),
		sessions:     NewSessionTable(),
		typing:       make(map[string]typingTimer),
	}
	h.relay = NewRelay(h.sessions, h.deliver, settings.MaxMessageLength, settings.DedupWindow)
	return h
}

// Run starts the hub's main processing loop.
// This is the single goroutine that safely manages all state.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			client.Handle = newHandle(func(s string) bool { return h.handles[s] })
			h.handles[client.Handle] = true
			h.clients[client.ID] = client
			h.log.Debug("client registered", "client", client.ID, "handle", client.Handle)

		case client := <-h.Unregister:
			if _, ok := h.clients[client.ID]; !ok {
				continue
			}
			h.teardown(client)
			delete(h.clients, client.ID)
			delete(h.handles, client.Handle)
			close(client.Send)
			h.log.Debug("client unregistered", "client", client.ID)

		case msg := <-h.Inbound:
			h.dispatch(msg)

		case ev := <-h.typingExpiry:
			h.expireTyping(ev)

		case resp := <-h.snapshots:
			resp <- Stats{
				Connected: len(h.clients),
				Waiting:   h.pool.Len(),
				Pairs:     h.sessions.Pairs(),
			}

		case <-h.quit:
			return
		}
	}
}

// Stop terminates the Run loop. Pending timers are left to the runtime.
func (h *Hub) Stop() {
	close(h.quit)
}

// Snapshot returns current occupancy, answered from inside the loop.
func (h *Hub) Snapshot() Stats {
	resp := make(chan Stats, 1)
	h.snapshots <- resp
	return <-resp
}

func (h *Hub) dispatch(msg *Message) {
	c := msg.client
	if c == nil {
		return
	}
	if _, ok := h.clients[c.ID]; !ok {
		// Raced with its own disconnect.
		return
	}

	switch {
	case msg.Type == TypeFindPartner:
		var in FindPartnerPayload
		if err := json.Unmarshal(msg.Payload, &in); err != nil {
			h.log.Debug("bad find-partner payload", "client", c.ID, "error", err)
			return
		}
		if err := h.validate.Struct(in); err != nil {
			h.log.Debug("bad find-partner payload", "client", c.ID, "error", err)
			return
		}
		h.requestMatch(c, in.Mode)

	case msg.Type == TypeLeaveQueue:
		h.pool.Remove(c.ID)
		h.log.Debug("left queue", "client", c.ID)

	case msg.Type == TypeSkipPartner:
		h.teardown(c)

	case msg.Type == TypeSendMessage:
		if err := h.relay.Chat(c, msg.Payload, time.Now()); err != nil {
			h.log.Debug("chat dropped", "client", c.ID, "reason", err)
		}

	case msg.Type == TypeTypingStart:
		if err := h.relay.Typing(c, true); err != nil {
			return
		}
		h.resetTypingTimer(c.ID)

	case msg.Type == TypeTypingStop:
		h.stopTypingTimer(c.ID)
		if err := h.relay.Typing(c, false); err != nil {
			return
		}

	case signalingTypes[msg.Type]:
		if err := h.relay.Signal(c, msg); err != nil {
			h.log.Debug("signal dropped", "client", c.ID, "type", msg.Type, "reason", err)
		}

	default:
		h.log.Debug("unknown message type", "client", c.ID, "type", msg.Type)
	}
}

// requestMatch implements the pairing algorithm: guard against
// self-matching, record the profile, then either pair with the first
// compatible waiter or join the pool.
func (h *Hub) requestMatch(c *Client, mode string) {
	// A paired client asking again goes through an implicit skip first;
	// a second session for the same client must never exist.
	if _, ok := h.sessions.Lookup(c.ID); ok {
		h.teardown(c)
	}

	// Drop any stale queue entry so a client cannot match against
	// itself.
	h.pool.Remove(c.ID)

	now := time.Now()
	h.profiles[c.ID] = Profile{Mode: mode, JoinedAt: now}

	partner := h.pool.DequeueCompatible(mode, h.alive)
	if partner == nil {
		h.pool.Enqueue(c, h.profiles[c.ID])
		h.deliver(c, newMessage(TypeWaitingForPartner, nil))
		h.log.Debug("waiting for partner", "client", c.ID, "mode", mode)
		return
	}

	roomID := uuid.NewString()
	h.sessions.Pair(c, partner, roomID, now)

	h.deliver(c, newMessage(TypePartnerFound, PartnerFoundPayload{
		PartnerID:   partner.Handle,
		RoomID:      roomID,
		PartnerMode: h.profiles[partner.ID].Mode,
	}))
	h.deliver(partner, newMessage(TypePartnerFound, PartnerFoundPayload{
		PartnerID:   c.Handle,
		RoomID:      roomID,
		PartnerMode: mode,
	}))
	h.log.Info("partners matched", "client", c.ID, "partner", partner.ID, "room", roomID)
}

// teardown is the single exit path for both disconnects and skips:
// leave the pool, dissolve the session (notifying the survivor exactly
// once), and release all per-client ephemeral state.
func (h *Hub) teardown(c *Client) {
	h.pool.Remove(c.ID)

	if sess, ok := h.sessions.Teardown(c.ID); ok {
		h.relay.Forget(sess.Partner.ID)
		h.deliver(sess.Partner, newMessage(TypePartnerDisconnected, nil))
		h.log.Info("session ended", "client", c.ID, "partner", sess.Partner.ID, "room", sess.RoomID)
	}

	delete(h.profiles, c.ID)
	h.relay.Forget(c.ID)
	h.stopTypingTimer(c.ID)
}

// alive reports whether a pool entry still belongs to a connected
// client. Disconnects normally remove pool entries on the spot, so a
// dead entry is the exception; the pool evicts it during its scan.
func (h *Hub) alive(c *Client) bool {
	_, ok := h.clients[c.ID]
	return ok
}

// deliver queues an outbound message without ever blocking the loop.
// A missing or saturated client is treated as already disconnected; its
// own disconnect event reconciles the state.
func (h *Hub) deliver(to *Client, msg *Message) {
	if _, ok := h.clients[to.ID]; !ok {
		return
	}
	select {
	case to.Send <- msg:
	default:
	}
}

func (h *Hub) resetTypingTimer(id string) {
	h.stopTypingTimer(id)
	h.typingGen++
	gen := h.typingGen
	h.typing[id] = typingTimer{
		gen: gen,
		timer: time.AfterFunc(h.settings.TypingExpiry, func() {
			select {
			case h.typingExpiry <- typingExpiryEvent{id: id, gen: gen}:
			default:
			}
		}),
	}
}

func (h *Hub) stopTypingTimer(id string) {
	if t, ok := h.typing[id]; ok {
		t.timer.Stop()
		delete(h.typing, id)
	}
}

func (h *Hub) expireTyping(ev typingExpiryEvent) {
	cur, ok := h.typing[ev.id]
	if !ok || cur.gen != ev.gen {
		// Stopped, or already replaced by a newer typing-start whose
		// timer this expiry predates.
		return
	}
	delete(h.typing, ev.id)

	c, ok := h.clients[ev.id]
	if !ok {
		return
	}
	// The partner saw typing-start but the sender went quiet without a
	// stop; forward one on its behalf.
	_ = h.relay.Typing(c, false)
}
