package chat

import (
	"encoding/json"
	"fmt"

	chatmodel "campusmatch/module/chat/model"
)

// Wire format: one JSON envelope per websocket text frame, both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound event types.
const (
	EvtSendMessage = "send-message"
	EvtTypingStart = "typing-start"
	EvtTypingStop  = "typing-stop"
	EvtMarkRead    = "mark-read"
)

// Outbound event types.
const (
	EvtMessageReceived   = "message-received"
	EvtMessageSentAck    = "message-sent-ack"
	EvtPresenceChanged   = "presence-changed"
	EvtUserTyping        = "user-typing"
	EvtUserStoppedTyping = "user-stopped-typing"
	EvtMessagesRead      = "messages-read"
	EvtUnreadCountUpdate = "unread-count-update"
	EvtUnreadState       = "unread-state"
	EvtError             = "error"
)

type SendMessagePayload struct {
	ChatID  string `json:"chatId"`
	IsGroup bool   `json:"isGroup"`
	Body    string `json:"body"`
}

type ChatRefPayload struct {
	ChatID  string `json:"chatId"`
	IsGroup bool   `json:"isGroup"`
}

func (p ChatRefPayload) Ref() chatmodel.ChatRef {
	if p.IsGroup {
		return chatmodel.GroupRef(p.ChatID)
	}
	return chatmodel.DirectRef(p.ChatID)
}

// WireMessage is the client-facing message shape. The snowflake id goes out
// as a string, 2^63 does not survive a JS number.
type WireMessage struct {
	ID        int64  `json:"id,string"`
	ChatID    string `json:"chatId"`
	IsGroup   bool   `json:"isGroup"`
	SenderID  string `json:"senderId"`
	Body      string `json:"body"`
	Status    int32  `json:"status,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

func toWire(m *chatmodel.Message) WireMessage {
	return WireMessage{
		ID:        m.MsgID,
		ChatID:    m.ChatID,
		IsGroup:   m.IsGroup,
		SenderID:  m.SenderID,
		Body:      m.Body,
		Status:    m.Status,
		CreatedAt: m.CreatedAt.UnixMilli(),
	}
}

type MessageEventPayload struct {
	ChatID  string      `json:"chatId"`
	Message WireMessage `json:"message"`
}

type PresenceChangedPayload struct {
	UserID     string `json:"userId"`
	IsOnline   bool   `json:"isOnline"`
	LastSeenAt int64  `json:"lastSeenAt"`
}

type TypingEventPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type MessagesReadPayload struct {
	ChatID   string `json:"chatId"`
	ReaderID string `json:"readerId"`
}

type UnreadCountPayload struct {
	ChatID        string `json:"chatId"`
	IsGroup       bool   `json:"isGroup"`
	NewCount      int64  `json:"newCount"`
	LastMessageID int64  `json:"lastMessageId,string,omitempty"`
}

type UnreadStatePayload struct {
	Counts []UnreadCountPayload `json:"counts"`
}

type ErrorPayload struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// BuildEvent encodes an outbound envelope. Payloads are our own structs, a
// marshal failure here is a programming error, hence the panic-free
// fallback to an error frame.
func BuildEvent(typ string, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw, _ = json.Marshal(ErrorPayload{Code: 0, Msg: fmt.Sprintf("encode %s: %v", typ, err)})
		typ = EvtError
	}
	b, _ := json.Marshal(Envelope{Type: typ, Payload: raw})
	return b
}

func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("envelope without type")
	}
	return &env, nil
}
