package chat

import (
	"context"
	"encoding/json"
	"time"

	chatmodel "campusmatch/module/chat/model"
)

// MembershipStore answers "is user X a member of chat Y" and resolves the
// recipient/peer sets derived from the same facts. Backed by mongo in
// production, by fakes in tests.
type MembershipStore interface {
	IsMember(ctx context.Context, userID string, ref chatmodel.ChatRef) (bool, error)
	Recipients(ctx context.Context, senderID string, ref chatmodel.ChatRef) ([]string, error)
	Peers(ctx context.Context, userID string) ([]string, error)
}

type MessageStore interface {
	InsertMessage(ctx context.Context, m *chatmodel.Message) error
	MarkDelivered(ctx context.Context, msgID int64) error
	MarkDirectRead(ctx context.Context, convID, readerID string) (int64, error)
	UnreadGroupMessageIDs(ctx context.Context, groupID, readerID string) ([]int64, error)
	InsertReadMarks(ctx context.Context, groupID, readerID string, msgIDs []int64) error
}

type CounterStore interface {
	IncrementUnread(ctx context.Context, userID string, ref chatmodel.ChatRef, lastMessageID int64) (int64, error)
	ResetUnread(ctx context.Context, userID string, ref chatmodel.ChatRef) error
	ListUnread(ctx context.Context, userID string) ([]chatmodel.UnreadCounter, error)
}

// PresenceWriter persists the durable online/last-seen record. Best-effort
// from the caller's point of view.
type PresenceWriter interface {
	SetOnline(ctx context.Context, user string, online bool, at time.Time) error
}

// Pusher delivers already-encoded events to live sessions. PushToUser
// reports false when the user has no reachable session, which callers
// treat as "offline", never as an error.
type Pusher interface {
	PushToUser(userID string, payload []byte) bool
	FanOut(userIDs []string, payload []byte)
}

// Handler processes one inbound event type from a connected client.
type Handler interface {
	Type() string
	Handle(ctx context.Context, c *Client, payload json.RawMessage) error
}
