package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	chatmodel "campusmatch/module/chat/model"
)

func (s *Store) InsertMessage(ctx context.Context, m *chatmodel.Message) error {
	_, err := s.MsgColl.InsertOne(ctx, m)
	return storeErr("message insert", err)
}

// MarkDelivered moves a direct message from sent to delivered. The status
// filter keeps the transition monotonic: a message already read stays read.
func (s *Store) MarkDelivered(ctx context.Context, msgID int64) error {
	_, err := s.MsgColl.UpdateOne(ctx,
		bson.M{
			chatmodel.MessageFieldMsgID:  msgID,
			chatmodel.MessageFieldStatus: chatmodel.StatusSent,
		},
		bson.M{"$set": bson.M{chatmodel.MessageFieldStatus: chatmodel.StatusDelivered}},
	)
	return storeErr("message delivered", err)
}

// MarkDirectRead flips every message in the conversation sent by the other
// participant and not yet read. Returns how many rows transitioned, zero on
// a repeated call.
func (s *Store) MarkDirectRead(ctx context.Context, convID, readerID string) (int64, error) {
	res, err := s.MsgColl.UpdateMany(ctx,
		bson.M{
			chatmodel.MessageFieldChatID:   convID,
			chatmodel.MessageFieldIsGroup:  false,
			chatmodel.MessageFieldSenderID: bson.M{"$ne": readerID},
			chatmodel.MessageFieldStatus:   bson.M{"$in": []int32{chatmodel.StatusSent, chatmodel.StatusDelivered}},
		},
		bson.M{"$set": bson.M{chatmodel.MessageFieldStatus: chatmodel.StatusRead}},
	)
	if err != nil {
		return 0, storeErr("direct read transition", err)
	}
	return res.ModifiedCount, nil
}

// UnreadGroupMessageIDs lists group messages the reader has not marked yet,
// excluding their own.
func (s *Store) UnreadGroupMessageIDs(ctx context.Context, groupID, readerID string) ([]int64, error) {
	marked, err := s.ReadMarkColl.Distinct(ctx, chatmodel.ReadMarkFieldMessageID, bson.M{
		chatmodel.ReadMarkFieldGroupID:  groupID,
		chatmodel.ReadMarkFieldReaderID: readerID,
	})
	if err != nil {
		return nil, storeErr("read mark list", err)
	}

	filter := bson.M{
		chatmodel.MessageFieldChatID:   groupID,
		chatmodel.MessageFieldIsGroup:  true,
		chatmodel.MessageFieldSenderID: bson.M{"$ne": readerID},
	}
	if len(marked) > 0 {
		filter[chatmodel.MessageFieldMsgID] = bson.M{"$nin": marked}
	}
	cur, err := s.MsgColl.Find(ctx, filter,
		options.Find().SetProjection(bson.M{chatmodel.MessageFieldMsgID: 1}))
	if err != nil {
		return nil, storeErr("unread group messages", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []int64
	for cur.Next(ctx) {
		var m chatmodel.Message
		if err := cur.Decode(&m); err != nil {
			return nil, storeErr("unread group message decode", err)
		}
		out = append(out, m.MsgID)
	}
	return out, storeErr("unread group message cursor", cur.Err())
}

// InsertReadMarks upserts one mark per message. Duplicate marks hit the
// $setOnInsert path and change nothing, which makes repeated mark-read
// calls no-ops instead of errors.
func (s *Store) InsertReadMarks(ctx context.Context, groupID, readerID string, msgIDs []int64) error {
	if len(msgIDs) == 0 {
		return nil
	}
	now := time.Now()
	models := make([]mongo.WriteModel, 0, len(msgIDs))
	for _, id := range msgIDs {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{
				chatmodel.ReadMarkFieldMessageID: id,
				chatmodel.ReadMarkFieldReaderID:  readerID,
			}).
			SetUpdate(bson.M{"$setOnInsert": bson.M{
				chatmodel.ReadMarkFieldMessageID: id,
				chatmodel.ReadMarkFieldGroupID:   groupID,
				chatmodel.ReadMarkFieldReaderID:  readerID,
				"read_at":                        now,
			}}).
			SetUpsert(true))
	}
	_, err := s.ReadMarkColl.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return storeErr("read mark upsert", err)
}
