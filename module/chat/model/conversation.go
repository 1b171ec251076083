package model

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"campusmatch/service/mgo"
)

// Conversation is a direct chat between two users. Membership is immutable
// and there is at most one row per unordered participant pair (enforced by
// a unique index on the sorted pair at provisioning time).
type Conversation struct {
	ConversationID string    `bson:"conversation_id"`
	ParticipantA   string    `bson:"participant_a"`
	ParticipantB   string    `bson:"participant_b"`
	CreateTime     time.Time `bson:"create_time"`
}

const (
	ConversationFieldID           = "conversation_id"
	ConversationFieldParticipantA = "participant_a"
	ConversationFieldParticipantB = "participant_b"
)

func (c *Conversation) GetTableName() string { return "conversation" }

func (c *Conversation) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(c.GetTableName())
}

// Peer returns the other participant, or "" when user is not a member.
func (c *Conversation) Peer(user string) string {
	switch user {
	case c.ParticipantA:
		return c.ParticipantB
	case c.ParticipantB:
		return c.ParticipantA
	}
	return ""
}
