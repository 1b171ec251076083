package model

import (
	"go.mongodb.org/mongo-driver/mongo"

	"campusmatch/service/mgo"
)

// UnreadCounter is one row per (user, chat, kind). Created lazily by the
// first qualifying increment, reset to zero on mark-as-read, never deleted
// while the chat exists. Count must only ever change through atomic $inc /
// $set updates — no read-modify-write.
type UnreadCounter struct {
	UserID        string `bson:"user_id"`
	ChatID        string `bson:"chat_id"`
	IsGroup       bool   `bson:"is_group"`
	Count         int64  `bson:"count"`
	LastMessageID int64  `bson:"last_message_id"`
	UpdatedAt     int64  `bson:"updated_at"` // unix ms
}

const (
	CounterFieldUserID        = "user_id"
	CounterFieldChatID        = "chat_id"
	CounterFieldIsGroup       = "is_group"
	CounterFieldCount         = "count"
	CounterFieldLastMessageID = "last_message_id"
	CounterFieldUpdatedAt     = "updated_at"
)

func (c *UnreadCounter) GetTableName() string { return "unread_counter" }

func (c *UnreadCounter) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(c.GetTableName())
}
