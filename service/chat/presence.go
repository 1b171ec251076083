package chat

import (
	"context"
	"time"

	"campusmatch/logger"
)

// PresencePublisher persists online/last-seen state and tells a user's
// chat peers about the change. Presence is advisory: a failed persist is
// logged and the connection lifecycle moves on.
type PresencePublisher struct {
	store   PresenceWriter
	members MembershipStore
	push    Pusher
}

func NewPresencePublisher(store PresenceWriter, members MembershipStore, push Pusher) *PresencePublisher {
	return &PresencePublisher{store: store, members: members, push: push}
}

func (p *PresencePublisher) Online(ctx context.Context, userID string) {
	p.publish(ctx, userID, true)
}

func (p *PresencePublisher) Offline(ctx context.Context, userID string) {
	p.publish(ctx, userID, false)
}

func (p *PresencePublisher) publish(ctx context.Context, userID string, online bool) {
	now := time.Now()
	if err := p.store.SetOnline(ctx, userID, online, now); err != nil {
		logger.Warnf("[presence] persist user=%s online=%v: %v", userID, online, err)
	}

	// Broadcast scoped to the user's direct partners and group co-members,
	// not every connected session.
	peers, err := p.members.Peers(ctx, userID)
	if err != nil {
		logger.Warnf("[presence] peer resolve user=%s: %v", userID, err)
		return
	}
	if len(peers) == 0 {
		return
	}
	p.push.FanOut(peers, BuildEvent(EvtPresenceChanged, PresenceChangedPayload{
		UserID:     userID,
		IsOnline:   online,
		LastSeenAt: now.UnixMilli(),
	}))
}
