package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	chatmodel "campusmatch/module/chat/model"
)

func counterFilter(userID string, ref chatmodel.ChatRef) bson.M {
	return bson.M{
		chatmodel.CounterFieldUserID:  userID,
		chatmodel.CounterFieldChatID:  ref.ID,
		chatmodel.CounterFieldIsGroup: ref.IsGroup(),
	}
}

// IncrementUnread is the one atomic primitive the ledger is built on: a
// single upsert with $inc, so two messages landing at once can never lose
// an update or create duplicate rows. Returns the post-increment count.
func (s *Store) IncrementUnread(ctx context.Context, userID string, ref chatmodel.ChatRef, lastMessageID int64) (int64, error) {
	res := s.CounterColl.FindOneAndUpdate(ctx,
		counterFilter(userID, ref),
		bson.M{
			"$inc": bson.M{chatmodel.CounterFieldCount: 1},
			"$set": bson.M{
				chatmodel.CounterFieldLastMessageID: lastMessageID,
				chatmodel.CounterFieldUpdatedAt:     time.Now().UnixMilli(),
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	var out chatmodel.UnreadCounter
	if err := res.Decode(&out); err != nil {
		return 0, storeErr("counter increment", err)
	}
	return out.Count, nil
}

func (s *Store) ResetUnread(ctx context.Context, userID string, ref chatmodel.ChatRef) error {
	_, err := s.CounterColl.UpdateOne(ctx,
		counterFilter(userID, ref),
		bson.M{"$set": bson.M{
			chatmodel.CounterFieldCount:     int64(0),
			chatmodel.CounterFieldUpdatedAt: time.Now().UnixMilli(),
		}},
		options.Update().SetUpsert(true),
	)
	return storeErr("counter reset", err)
}

// ListUnread hydrates a reconnecting client's badge state: only rows with
// something to show.
func (s *Store) ListUnread(ctx context.Context, userID string) ([]chatmodel.UnreadCounter, error) {
	cur, err := s.CounterColl.Find(ctx, bson.M{
		chatmodel.CounterFieldUserID: userID,
		chatmodel.CounterFieldCount:  bson.M{"$gt": 0},
	})
	if err != nil {
		return nil, storeErr("counter list", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []chatmodel.UnreadCounter
	for cur.Next(ctx) {
		var c chatmodel.UnreadCounter
		if err := cur.Decode(&c); err != nil {
			return nil, storeErr("counter decode", err)
		}
		out = append(out, c)
	}
	return out, storeErr("counter cursor", cur.Err())
}
