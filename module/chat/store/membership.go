package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	chatmodel "campusmatch/module/chat/model"
)

func (s *Store) GetConversation(ctx context.Context, convID string) (*chatmodel.Conversation, error) {
	var c chatmodel.Conversation
	err := s.ConvColl.FindOne(ctx, bson.M{chatmodel.ConversationFieldID: convID}).Decode(&c)
	if err != nil {
		return nil, storeErr("conversation lookup", err)
	}
	return &c, nil
}

// IsMember answers the authorization question for both chat kinds. Direct:
// one of the two fixed participants. Group: an active membership row.
func (s *Store) IsMember(ctx context.Context, userID string, ref chatmodel.ChatRef) (bool, error) {
	switch ref.Kind {
	case chatmodel.KindDirect:
		c, err := s.GetConversation(ctx, ref.ID)
		if err != nil {
			return false, err
		}
		return c.Peer(userID) != "", nil
	case chatmodel.KindGroup:
		n, err := s.MemberColl.CountDocuments(ctx, bson.M{
			chatmodel.GroupMemberFieldGroupID: ref.ID,
			chatmodel.GroupMemberFieldUserID:  userID,
			chatmodel.GroupMemberFieldStatus:  chatmodel.GroupMemberStatusActive,
		})
		if err != nil {
			return false, storeErr("group membership lookup", err)
		}
		return n > 0, nil
	}
	return false, nil
}

// Recipients resolves fan-out targets: the single peer for a direct chat,
// all active members except the sender for a group.
func (s *Store) Recipients(ctx context.Context, senderID string, ref chatmodel.ChatRef) ([]string, error) {
	switch ref.Kind {
	case chatmodel.KindDirect:
		c, err := s.GetConversation(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		peer := c.Peer(senderID)
		if peer == "" {
			return nil, nil
		}
		return []string{peer}, nil
	case chatmodel.KindGroup:
		cur, err := s.MemberColl.Find(ctx, bson.M{
			chatmodel.GroupMemberFieldGroupID: ref.ID,
			chatmodel.GroupMemberFieldStatus:  chatmodel.GroupMemberStatusActive,
			chatmodel.GroupMemberFieldUserID:  bson.M{"$ne": senderID},
		})
		if err != nil {
			return nil, storeErr("group member list", err)
		}
		defer func() { _ = cur.Close(ctx) }()
		var out []string
		for cur.Next(ctx) {
			var m chatmodel.GroupMember
			if err := cur.Decode(&m); err != nil {
				return nil, storeErr("group member decode", err)
			}
			out = append(out, m.UserID)
		}
		return out, storeErr("group member cursor", cur.Err())
	}
	return nil, nil
}

// Peers returns every user sharing at least one chat with userID. This is
// the presence broadcast scope: contacts, not the whole connected world.
func (s *Store) Peers(ctx context.Context, userID string) ([]string, error) {
	seen := map[string]struct{}{}

	cur, err := s.ConvColl.Find(ctx, bson.M{"$or": []bson.M{
		{chatmodel.ConversationFieldParticipantA: userID},
		{chatmodel.ConversationFieldParticipantB: userID},
	}})
	if err != nil {
		return nil, storeErr("peer conversations", err)
	}
	for cur.Next(ctx) {
		var c chatmodel.Conversation
		if err := cur.Decode(&c); err != nil {
			_ = cur.Close(ctx)
			return nil, storeErr("peer conversation decode", err)
		}
		if p := c.Peer(userID); p != "" {
			seen[p] = struct{}{}
		}
	}
	_ = cur.Close(ctx)

	groupIDs, err := s.MemberColl.Distinct(ctx, chatmodel.GroupMemberFieldGroupID, bson.M{
		chatmodel.GroupMemberFieldUserID: userID,
		chatmodel.GroupMemberFieldStatus: chatmodel.GroupMemberStatusActive,
	})
	if err != nil {
		return nil, storeErr("peer groups", err)
	}
	if len(groupIDs) > 0 {
		members, err := s.MemberColl.Distinct(ctx, chatmodel.GroupMemberFieldUserID, bson.M{
			chatmodel.GroupMemberFieldGroupID: bson.M{"$in": groupIDs},
			chatmodel.GroupMemberFieldStatus:  chatmodel.GroupMemberStatusActive,
		})
		if err != nil {
			return nil, storeErr("peer group members", err)
		}
		for _, m := range members {
			if id, ok := m.(string); ok && id != userID {
				seen[id] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out, nil
}
