package model

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"campusmatch/service/mgo"
)

// Message status, direct chats only. Monotonic: sent -> delivered -> read,
// transitions never regress. Group messages stay at StatusNone and track
// reads through GroupReadMark rows instead.
const (
	StatusNone      int32 = 0
	StatusSent      int32 = 1
	StatusDelivered int32 = 2
	StatusRead      int32 = 3
)

// Message is immutable once created except for the status field. MsgID is a
// process-local snowflake, strictly increasing, so (chat_id, msg_id) gives
// the per-chat order without a separate sequence allocator.
type Message struct {
	MsgID     int64     `bson:"msg_id"`
	ChatID    string    `bson:"chat_id"`
	IsGroup   bool      `bson:"is_group"`
	SenderID  string    `bson:"sender_id"`
	Body      string    `bson:"body"`
	Status    int32     `bson:"status"`
	CreatedAt time.Time `bson:"created_at"`
}

const (
	MessageFieldMsgID    = "msg_id"
	MessageFieldChatID   = "chat_id"
	MessageFieldIsGroup  = "is_group"
	MessageFieldSenderID = "sender_id"
	MessageFieldStatus   = "status"
)

func (m *Message) GetTableName() string { return "message" }

func (m *Message) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(m.GetTableName())
}
