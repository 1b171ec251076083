package chat

import (
	"context"

	chatmodel "campusmatch/module/chat/model"
	"campusmatch/tools/errs"
)

// Receipts coordinates mark-as-read for both chat kinds: direct chats move
// message status, group chats accumulate per-reader read marks. Both end
// with the reader's counter reset. The whole flow is idempotent — a second
// mark-read finds nothing to transition and the counter stays at zero.
type Receipts struct {
	members MembershipStore
	msgs    MessageStore
	ledger  *Ledger
	push    Pusher
}

func NewReceipts(members MembershipStore, msgs MessageStore, ledger *Ledger, push Pusher) *Receipts {
	return &Receipts{members: members, msgs: msgs, ledger: ledger, push: push}
}

func (r *Receipts) MarkRead(ctx context.Context, userID string, ref chatmodel.ChatRef) error {
	ok, err := r.members.IsMember(ctx, userID, ref)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrNotAuthorized
	}
	if ref.IsGroup() {
		return r.markGroupRead(ctx, userID, ref)
	}
	return r.markDirectRead(ctx, userID, ref)
}

func (r *Receipts) markDirectRead(ctx context.Context, userID string, ref chatmodel.ChatRef) error {
	transitioned, err := r.msgs.MarkDirectRead(ctx, ref.ID, userID)
	if err != nil {
		return err
	}
	if transitioned > 0 {
		// The other participant learns their messages were read, if they
		// are around to hear it.
		if peers, err := r.members.Recipients(ctx, userID, ref); err == nil {
			evt := BuildEvent(EvtMessagesRead, MessagesReadPayload{ChatID: ref.ID, ReaderID: userID})
			for _, p := range peers {
				r.push.PushToUser(p, evt)
			}
		}
	}
	return r.ledger.Reset(ctx, userID, ref)
}

func (r *Receipts) markGroupRead(ctx context.Context, userID string, ref chatmodel.ChatRef) error {
	unread, err := r.msgs.UnreadGroupMessageIDs(ctx, ref.ID, userID)
	if err != nil {
		return err
	}
	if len(unread) > 0 {
		if err := r.msgs.InsertReadMarks(ctx, ref.ID, userID, unread); err != nil {
			return err
		}
	}
	return r.ledger.Reset(ctx, userID, ref)
}
