package chat

import (
	"context"

	chatmodel "campusmatch/module/chat/model"
)

// Ledger keeps the per-(user, chat) unread counters. The durable update is
// the authoritative part; the push afterwards is opportunistic and its
// absence (user offline) changes nothing about correctness.
type Ledger struct {
	counters CounterStore
	push     Pusher
}

func NewLedger(counters CounterStore, push Pusher) *Ledger {
	return &Ledger{counters: counters, push: push}
}

// Increment bumps the counter atomically and pushes the new value to the
// owner if online. A store failure propagates: silently losing an
// increment would break the ledger invariant, so it is never swallowed.
func (l *Ledger) Increment(ctx context.Context, userID string, ref chatmodel.ChatRef, lastMessageID int64) error {
	newCount, err := l.counters.IncrementUnread(ctx, userID, ref, lastMessageID)
	if err != nil {
		return err
	}
	l.push.PushToUser(userID, BuildEvent(EvtUnreadCountUpdate, UnreadCountPayload{
		ChatID:        ref.ID,
		IsGroup:       ref.IsGroup(),
		NewCount:      newCount,
		LastMessageID: lastMessageID,
	}))
	return nil
}

func (l *Ledger) Reset(ctx context.Context, userID string, ref chatmodel.ChatRef) error {
	if err := l.counters.ResetUnread(ctx, userID, ref); err != nil {
		return err
	}
	l.push.PushToUser(userID, BuildEvent(EvtUnreadCountUpdate, UnreadCountPayload{
		ChatID:   ref.ID,
		IsGroup:  ref.IsGroup(),
		NewCount: 0,
	}))
	return nil
}

// GetAll hydrates a reconnecting client's badge state, counters with
// something to show only.
func (l *Ledger) GetAll(ctx context.Context, userID string) ([]UnreadCountPayload, error) {
	rows, err := l.counters.ListUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]UnreadCountPayload, 0, len(rows))
	for _, r := range rows {
		ref := chatmodel.DirectRef(r.ChatID)
		if r.IsGroup {
			ref = chatmodel.GroupRef(r.ChatID)
		}
		out = append(out, UnreadCountPayload{
			ChatID:        ref.ID,
			IsGroup:       ref.IsGroup(),
			NewCount:      r.Count,
			LastMessageID: r.LastMessageID,
		})
	}
	return out, nil
}
