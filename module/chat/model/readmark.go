package model

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"campusmatch/service/mgo"
)

// GroupReadMark records that a reader has read one group message. At most
// one row per (message, reader); duplicate marks are upsert no-ops.
type GroupReadMark struct {
	MessageID int64     `bson:"message_id"`
	GroupID   string    `bson:"group_id"`
	ReaderID  string    `bson:"reader_id"`
	ReadAt    time.Time `bson:"read_at"`
}

const (
	ReadMarkFieldMessageID = "message_id"
	ReadMarkFieldGroupID   = "group_id"
	ReadMarkFieldReaderID  = "reader_id"
)

func (r *GroupReadMark) GetTableName() string { return "group_read_mark" }

func (r *GroupReadMark) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(r.GetTableName())
}
