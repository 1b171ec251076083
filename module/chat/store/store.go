package store

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	chatmodel "campusmatch/module/chat/model"
	"campusmatch/tools/errs"
)

type Store struct {
	ConvColl     *mongo.Collection // conversation
	GroupColl    *mongo.Collection // group
	MemberColl   *mongo.Collection // group_member
	MsgColl      *mongo.Collection // message
	CounterColl  *mongo.Collection // unread_counter
	ReadMarkColl *mongo.Collection // group_read_mark
}

func NewStore() *Store {
	conv := chatmodel.Conversation{}
	grp := chatmodel.Group{}
	mem := chatmodel.GroupMember{}
	msg := chatmodel.Message{}
	cnt := chatmodel.UnreadCounter{}
	mrk := chatmodel.GroupReadMark{}
	return &Store{
		ConvColl:     conv.Collection(),
		GroupColl:    grp.Collection(),
		MemberColl:   mem.Collection(),
		MsgColl:      msg.Collection(),
		CounterColl:  cnt.Collection(),
		ReadMarkColl: mrk.Collection(),
	}
}

// storeErr maps driver errors onto the taxonomy. Missing documents become
// not-found; everything else is a transient store failure the caller may
// retry as a whole.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errs.ErrNotFound.WithDetail(op)
	}
	return errs.ErrTransientStore.WithDetail(op + ": " + err.Error())
}
