package chat

import (
	"context"

	chatmodel "campusmatch/module/chat/model"
	"campusmatch/tools/errs"
)

// TypingRelay forwards ephemeral start/stop signals to whoever is online
// in the chat. Nothing is persisted, nothing is acked, counters are not
// touched. Repeated starts are the receiver's problem to debounce.
type TypingRelay struct {
	members MembershipStore
	push    Pusher
}

func NewTypingRelay(members MembershipStore, push Pusher) *TypingRelay {
	return &TypingRelay{members: members, push: push}
}

func (t *TypingRelay) Start(ctx context.Context, userID string, ref chatmodel.ChatRef) error {
	return t.relay(ctx, userID, ref, EvtUserTyping)
}

func (t *TypingRelay) Stop(ctx context.Context, userID string, ref chatmodel.ChatRef) error {
	return t.relay(ctx, userID, ref, EvtUserStoppedTyping)
}

func (t *TypingRelay) relay(ctx context.Context, userID string, ref chatmodel.ChatRef, evt string) error {
	ok, err := t.members.IsMember(ctx, userID, ref)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrNotAuthorized
	}
	recipients, err := t.members.Recipients(ctx, userID, ref)
	if err != nil {
		return err
	}
	t.push.FanOut(recipients, BuildEvent(evt, TypingEventPayload{ChatID: ref.ID, UserID: userID}))
	return nil
}
