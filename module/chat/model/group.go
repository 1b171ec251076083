package model

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"campusmatch/service/mgo"
)

type Group struct {
	GroupID    string    `bson:"group_id"`
	Name       string    `bson:"name"`
	OwnerID    string    `bson:"owner_id"`
	CreateTime time.Time `bson:"create_time"`
}

func (g *Group) GetTableName() string { return "group" }

func (g *Group) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(g.GetTableName())
}

// GroupMember is one user's membership row. Unlike direct conversations the
// set changes over time; a leave/kick flips Status instead of deleting the
// row so the join history survives.
type GroupMember struct {
	GroupID  string    `bson:"group_id"`
	UserID   string    `bson:"user_id"`
	Status   int32     `bson:"status"` // 0=active, 1=left, 2=kicked
	JoinTime time.Time `bson:"join_time"`
	QuitTime time.Time `bson:"quit_time,omitempty"`
}

const (
	GroupMemberStatusActive int32 = 0
	GroupMemberStatusLeft   int32 = 1
	GroupMemberStatusKicked int32 = 2
)

const (
	GroupMemberFieldGroupID = "group_id"
	GroupMemberFieldUserID  = "user_id"
	GroupMemberFieldStatus  = "status"
)

func (m *GroupMember) GetTableName() string { return "group_member" }

func (m *GroupMember) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(m.GetTableName())
}
