package matchmaking

import "encoding/json"

// Inbound message types (C2S).
const (
	TypeFindPartner  = "find-partner"
	TypeLeaveQueue   = "leave-queue"
	TypeSkipPartner  = "skip-partner"
	TypeSendMessage  = "send-message"
	TypeTypingStart  = "typing-start"
	TypeTypingStop   = "typing-stop"
	TypeExchangeKey  = "exchange-key"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"
	TypeCallRequest  = "video-call-request"
	TypeCallResponse = "video-call-response"
)

// Outbound message types (S2C).
const (
	TypeWaitingForPartner   = "waiting-for-partner"
	TypePartnerFound        = "partner-found"
	TypeMessageReceived     = "message-received"
	TypeMessageDelivered    = "message-delivered"
	TypePartnerTyping       = "partner-typing"
	TypePartnerDisconnected = "partner-disconnected"
)

// Message defines the structure for all C2S (Client to Server)
// and S2C (Server to Client) websocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	RoomID  string          `json:"room_id,omitempty"`

	// SenderID tags relayed messages with the sender's ephemeral handle.
	// Only set on S2C messages.
	SenderID string `json:"sender_id,omitempty"`

	// client is the client that sent the message.
	// It's used internally by the Hub and not sent over JSON.
	client *Client `json:"-"`
}

// FindPartnerPayload carries the requester's desired chat mode.
type FindPartnerPayload struct {
	Mode string `json:"mode" validate:"required,oneof=text video"`
}

// SendMessagePayload is the chat-message path input. Text is validated
// before relay; ClientMessageID is echoed back so the sender can mark
// the message as delivered.
type SendMessagePayload struct {
	Text            string `json:"text" validate:"required"`
	ClientMessageID string `json:"client_message_id" validate:"required"`
}

// PartnerFoundPayload is sent to both sides of a fresh match, each with
// its own view of the pairing.
type PartnerFoundPayload struct {
	PartnerID   string `json:"partner_id"`
	RoomID      string `json:"room_id"`
	PartnerMode string `json:"partner_mode"`
}

// MessageReceivedPayload is the relayed form of a chat message.
// Timestamp is server-assigned, milliseconds since epoch.
type MessageReceivedPayload struct {
	Text            string `json:"text"`
	SenderID        string `json:"sender_id"`
	Timestamp       int64  `json:"timestamp"`
	ClientMessageID string `json:"client_message_id"`
}

// MessageDeliveredPayload is echoed to the sender once its chat message
// has been accepted and forwarded.
type MessageDeliveredPayload struct {
	ClientMessageID string `json:"client_message_id"`
	Timestamp       int64  `json:"timestamp"`
}

// newMessage builds an outbound message, marshaling v as the payload.
// A nil v produces a payload-less message.
func newMessage(msgType string, v any) *Message {
	msg := &Message{Type: msgType}
	if v != nil {
		payload, err := json.Marshal(v)
		if err != nil {
			// All payload types above are plain structs; this cannot fail.
			panic(err)
		}
		msg.Payload = payload
	}
	return msg
}

// signalingTypes are the opaque relay-only message types. Their payloads
// are forwarded verbatim and never inspected.
var signalingTypes = map[string]bool{
	TypeExchangeKey:  true,
	TypeOffer:        true,
	TypeAnswer:       true,
	TypeICECandidate: true,
	TypeCallRequest:  true,
	TypeCallResponse: true,
}

// payloadRequired marks the signaling types that are meaningless without
// a payload. These are dropped when the blob is missing (the blob itself
// is still never parsed).
var payloadRequired = map[string]bool{
	TypeExchangeKey:  true,
	TypeOffer:        true,
	TypeAnswer:       true,
	TypeICECandidate: true,
	TypeCallResponse: true,
}
