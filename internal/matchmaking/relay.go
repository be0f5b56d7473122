package matchmaking

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Relay drop reasons. None of these is ever surfaced to the sender;
// matchmaking chat is best-effort under churn and every rejection here
// is recovered by silently dropping the event.
var (
	errNoSession      = errors.New("sender has no active session")
	errMalformed      = errors.New("malformed payload")
	errEmptyMessage   = errors.New("empty message after sanitizing")
	errDuplicate      = errors.New("duplicate message inside dedup window")
	errRoomMismatch   = errors.New("room id does not match session")
	errMissingPayload = errors.New("missing signaling payload")
)

// markupTags matches anything that looks like an HTML/XML tag. Chat text
// is plain text; tags are stripped, not escaped.
var markupTags = regexp.MustCompile(`<[^>]*>`)

type lastMessage struct {
	text string
	at   time.Time
}

// Relay validates and forwards per-event payloads between the two sides
// of a session. Chat messages get trimming, markup stripping, a length
// cap and duplicate suppression; signaling payloads are forwarded
// verbatim and never inspected. Delivery always targets the session's
// recorded partner and nobody else, whatever room ID a client claims.
type Relay struct {
	sessions *SessionTable
	deliver  func(to *Client, msg *Message)
	validate *validator.Validate

	maxTextLen  int
	dedupWindow time.Duration
	last        map[string]lastMessage
}

func NewRelay(sessions *SessionTable, deliver func(*Client, *Message), maxTextLen int, dedupWindow time.Duration) *Relay {
	return &Relay{
		sessions:    sessions,
		deliver:     deliver,
		validate:    validator.New(),
		maxTextLen:  maxTextLen,
		dedupWindow: dedupWindow,
		last:        make(map[string]lastMessage),
	}
}

// Chat handles the send-message path: validate, sanitize, suppress
// duplicates, then forward to the partner with a server timestamp and
// echo a delivery confirmation to the sender.
func (r *Relay) Chat(from *Client, payload json.RawMessage, now time.Time) error {
	sess, ok := r.sessions.Lookup(from.ID)
	if !ok {
		return errNoSession
	}

	var in SendMessagePayload
	if err := json.Unmarshal(payload, &in); err != nil {
		return errMalformed
	}
	if err := r.validate.Struct(in); err != nil {
		return errMalformed
	}

	text := sanitizeText(in.Text, r.maxTextLen)
	if text == "" {
		return errEmptyMessage
	}

	if prev, ok := r.last[from.ID]; ok && prev.text == text && now.Sub(prev.at) < r.dedupWindow {
		return errDuplicate
	}
	r.last[from.ID] = lastMessage{text: text, at: now}

	ts := now.UnixMilli()
	out := newMessage(TypeMessageReceived, MessageReceivedPayload{
		Text:            text,
		SenderID:        from.Handle,
		Timestamp:       ts,
		ClientMessageID: in.ClientMessageID,
	})
	out.SenderID = from.Handle
	r.deliver(sess.Partner, out)

	echo := newMessage(TypeMessageDelivered, MessageDeliveredPayload{
		ClientMessageID: in.ClientMessageID,
		Timestamp:       ts,
	})
	r.deliver(from, echo)
	return nil
}

// Typing forwards a typing indicator to the partner.
func (r *Relay) Typing(from *Client, typing bool) error {
	sess, ok := r.sessions.Lookup(from.ID)
	if !ok {
		return errNoSession
	}

	payload := json.RawMessage("false")
	if typing {
		payload = json.RawMessage("true")
	}
	r.deliver(sess.Partner, &Message{
		Type:     TypePartnerTyping,
		Payload:  payload,
		SenderID: from.Handle,
	})
	return nil
}

// Signal forwards an opaque signaling payload (key exchange, SDP offer/
// answer, ICE candidate, call request/response) verbatim to the partner,
// tagged with the sender's handle. The payload is never parsed. When the
// client stamps the envelope with a room ID it must match the session's;
// a mismatch drops the event, mirroring the behavior on the chat path.
func (r *Relay) Signal(from *Client, msg *Message) error {
	sess, ok := r.sessions.Lookup(from.ID)
	if !ok {
		return errNoSession
	}
	if payloadRequired[msg.Type] && len(msg.Payload) == 0 {
		return errMissingPayload
	}
	if msg.RoomID != "" && msg.RoomID != sess.RoomID {
		return errRoomMismatch
	}

	r.deliver(sess.Partner, &Message{
		Type:     msg.Type,
		Payload:  msg.Payload,
		RoomID:   sess.RoomID,
		SenderID: from.Handle,
	})
	return nil
}

// Forget releases per-sender relay state. Called on teardown.
func (r *Relay) Forget(id string) {
	delete(r.last, id)
}

// sanitizeText strips markup, trims surrounding whitespace and caps the
// result at maxLen runes.
func sanitizeText(text string, maxLen int) string {
	text = markupTags.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > maxLen {
		text = string(runes[:maxLen])
	}
	return text
}
