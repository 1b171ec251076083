package chat

import (
	"context"
	"sync"
	"time"

	"campusmatch/logger"
	chatmodel "campusmatch/module/chat/model"
	"campusmatch/tools/errs"
	"campusmatch/tools/ids"
)

// chatLocks serializes sends per chat id. Concurrent sends to the same
// chat persist and push in the order they acquire the lock; distinct chats
// never contend.
type chatLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newChatLocks() *chatLocks {
	return &chatLocks{m: make(map[string]*sync.Mutex)}
}

func (l *chatLocks) get(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := l.m[key]; ok {
		return m
	}
	m := &sync.Mutex{}
	l.m[key] = m
	return m
}

func lockKey(ref chatmodel.ChatRef) string {
	if ref.IsGroup() {
		return "g:" + ref.ID
	}
	return "d:" + ref.ID
}

// Engine is the message fan-out pipeline: authorize, persist, ack the
// sender, push to reachable recipients, and bump every recipient's unread
// counter whether or not they were reachable.
type Engine struct {
	members MembershipStore
	msgs    MessageStore
	ledger  *Ledger
	push    Pusher
	locks   *chatLocks
}

func NewEngine(members MembershipStore, msgs MessageStore, ledger *Ledger, push Pusher) *Engine {
	return &Engine{
		members: members,
		msgs:    msgs,
		ledger:  ledger,
		push:    push,
		locks:   newChatLocks(),
	}
}

// Send runs the whole pipeline and returns the persisted message. Exactly
// one row per call; retries are the caller's business. A failed counter
// increment surfaces as the returned error even though the message itself
// is already durable.
func (e *Engine) Send(ctx context.Context, senderID string, ref chatmodel.ChatRef, body string) (*chatmodel.Message, error) {
	ok, err := e.members.IsMember(ctx, senderID, ref)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrNotAuthorized
	}

	mu := e.locks.get(lockKey(ref))
	mu.Lock()
	defer mu.Unlock()

	status := chatmodel.StatusNone
	if !ref.IsGroup() {
		status = chatmodel.StatusSent
	}
	msg := &chatmodel.Message{
		MsgID:     ids.Generate(),
		ChatID:    ref.ID,
		IsGroup:   ref.IsGroup(),
		SenderID:  senderID,
		Body:      body,
		Status:    status,
		CreatedAt: time.Now(),
	}
	if err := e.msgs.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	// The ack carries the authoritative id/timestamp, not the client's
	// optimistic ones.
	e.push.PushToUser(senderID, BuildEvent(EvtMessageSentAck, MessageEventPayload{
		ChatID:  ref.ID,
		Message: toWire(msg),
	}))

	recipients, err := e.members.Recipients(ctx, senderID, ref)
	if err != nil {
		return msg, err
	}

	received := BuildEvent(EvtMessageReceived, MessageEventPayload{ChatID: ref.ID, Message: toWire(msg)})
	for _, rcpt := range recipients {
		if e.push.PushToUser(rcpt, received) && !ref.IsGroup() {
			if err := e.msgs.MarkDelivered(ctx, msg.MsgID); err != nil {
				logger.Warnf("[engine] mark delivered msg=%d: %v", msg.MsgID, err)
			} else {
				msg.Status = chatmodel.StatusDelivered
			}
		}
	}

	// Counters move for every recipient, reachable or not. Push and
	// increment are independent concerns; only the increment may fail the
	// operation.
	var incErr error
	for _, rcpt := range recipients {
		if err := e.ledger.Increment(ctx, rcpt, ref, msg.MsgID); err != nil && incErr == nil {
			incErr = err
		}
	}
	return msg, incErr
}
