package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	chatmodel "campusmatch/module/chat/model"
	"campusmatch/tools/errs"
	"campusmatch/tools/ids"
)

// In-memory stand-ins for the mongo/redis stores. They keep the same
// atomicity contracts (one mutex around every mutation) so the
// concurrency tests exercise the real coordination logic.

type fakeMembership struct {
	mu     sync.Mutex
	direct map[string][2]string // convID -> participants
	groups map[string][]string  // groupID -> active members
}

func newFakeMembership() *fakeMembership {
	return &fakeMembership{
		direct: make(map[string][2]string),
		groups: make(map[string][]string),
	}
}

func (f *fakeMembership) addConversation(id, a, b string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct[id] = [2]string{a, b}
}

func (f *fakeMembership) addGroup(id string, members ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[id] = members
}

func (f *fakeMembership) IsMember(_ context.Context, userID string, ref chatmodel.ChatRef) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ref.IsGroup() {
		members, ok := f.groups[ref.ID]
		if !ok {
			return false, errs.ErrNotFound.WithDetail("group " + ref.ID)
		}
		for _, m := range members {
			if m == userID {
				return true, nil
			}
		}
		return false, nil
	}
	pair, ok := f.direct[ref.ID]
	if !ok {
		return false, errs.ErrNotFound.WithDetail("conversation " + ref.ID)
	}
	return pair[0] == userID || pair[1] == userID, nil
}

func (f *fakeMembership) Recipients(_ context.Context, senderID string, ref chatmodel.ChatRef) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ref.IsGroup() {
		var out []string
		for _, m := range f.groups[ref.ID] {
			if m != senderID {
				out = append(out, m)
			}
		}
		return out, nil
	}
	pair, ok := f.direct[ref.ID]
	if !ok {
		return nil, errs.ErrNotFound.WithDetail("conversation " + ref.ID)
	}
	switch senderID {
	case pair[0]:
		return []string{pair[1]}, nil
	case pair[1]:
		return []string{pair[0]}, nil
	}
	return nil, nil
}

func (f *fakeMembership) Peers(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]struct{}{}
	for _, pair := range f.direct {
		if pair[0] == userID {
			seen[pair[1]] = struct{}{}
		}
		if pair[1] == userID {
			seen[pair[0]] = struct{}{}
		}
	}
	for _, members := range f.groups {
		in := false
		for _, m := range members {
			if m == userID {
				in = true
				break
			}
		}
		if in {
			for _, m := range members {
				if m != userID {
					seen[m] = struct{}{}
				}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out, nil
}

type fakeMessageStore struct {
	mu         sync.Mutex
	msgs       []*chatmodel.Message
	marks      map[string]map[int64]bool // readerID -> msgID
	failInsert bool
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{marks: make(map[string]map[int64]bool)}
}

func (f *fakeMessageStore) InsertMessage(_ context.Context, m *chatmodel.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert {
		return errs.ErrTransientStore.WithDetail("insert")
	}
	cp := *m
	f.msgs = append(f.msgs, &cp)
	return nil
}

func (f *fakeMessageStore) MarkDelivered(_ context.Context, msgID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.MsgID == msgID && m.Status == chatmodel.StatusSent {
			m.Status = chatmodel.StatusDelivered
		}
	}
	return nil
}

func (f *fakeMessageStore) MarkDirectRead(_ context.Context, convID, readerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.msgs {
		if m.ChatID == convID && !m.IsGroup && m.SenderID != readerID &&
			(m.Status == chatmodel.StatusSent || m.Status == chatmodel.StatusDelivered) {
			m.Status = chatmodel.StatusRead
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageStore) UnreadGroupMessageIDs(_ context.Context, groupID, readerID string) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int64
	for _, m := range f.msgs {
		if m.ChatID == groupID && m.IsGroup && m.SenderID != readerID && !f.marks[readerID][m.MsgID] {
			out = append(out, m.MsgID)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) InsertReadMarks(_ context.Context, _, readerID string, msgIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.marks[readerID] == nil {
		f.marks[readerID] = make(map[int64]bool)
	}
	for _, id := range msgIDs {
		f.marks[readerID][id] = true
	}
	return nil
}

func (f *fakeMessageStore) chatMessages(chatID string) []*chatmodel.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*chatmodel.Message
	for _, m := range f.msgs {
		if m.ChatID == chatID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out
}

func counterKey(userID string, ref chatmodel.ChatRef) string {
	return fmt.Sprintf("%s|%s|%v", userID, ref.ID, ref.IsGroup())
}

type fakeCounterStore struct {
	mu            sync.Mutex
	counts        map[string]*chatmodel.UnreadCounter
	failIncrement bool
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counts: make(map[string]*chatmodel.UnreadCounter)}
}

func (f *fakeCounterStore) IncrementUnread(_ context.Context, userID string, ref chatmodel.ChatRef, lastMessageID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIncrement {
		return 0, errs.ErrTransientStore.WithDetail("increment")
	}
	key := counterKey(userID, ref)
	c, ok := f.counts[key]
	if !ok {
		c = &chatmodel.UnreadCounter{UserID: userID, ChatID: ref.ID, IsGroup: ref.IsGroup()}
		f.counts[key] = c
	}
	c.Count++
	c.LastMessageID = lastMessageID
	return c.Count, nil
}

func (f *fakeCounterStore) ResetUnread(_ context.Context, userID string, ref chatmodel.ChatRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := counterKey(userID, ref)
	c, ok := f.counts[key]
	if !ok {
		c = &chatmodel.UnreadCounter{UserID: userID, ChatID: ref.ID, IsGroup: ref.IsGroup()}
		f.counts[key] = c
	}
	c.Count = 0
	return nil
}

func (f *fakeCounterStore) ListUnread(_ context.Context, userID string) ([]chatmodel.UnreadCounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chatmodel.UnreadCounter
	for _, c := range f.counts {
		if c.UserID == userID && c.Count > 0 {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCounterStore) count(userID string, ref chatmodel.ChatRef) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.counts[counterKey(userID, ref)]; ok {
		return c.Count
	}
	return 0
}

type fakePresenceStore struct {
	mu   sync.Mutex
	recs map[string]bool // userID -> online
	fail bool
}

func newFakePresenceStore() *fakePresenceStore {
	return &fakePresenceStore{recs: make(map[string]bool)}
}

func (f *fakePresenceStore) SetOnline(_ context.Context, user string, online bool, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errs.ErrTransientStore.WithDetail("presence")
	}
	f.recs[user] = online
	return nil
}

// rig wires the components the way Server does, minus the websocket layer.
// Clients are socketless: pushed events pile up in their Send channels.
type rig struct {
	members  *fakeMembership
	msgs     *fakeMessageStore
	counters *fakeCounterStore
	pres     *fakePresenceStore

	reg      *Registry
	router   *Router
	presence *PresencePublisher
	ledger   *Ledger
	engine   *Engine
	typing   *TypingRelay
	receipts *Receipts
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		members:  newFakeMembership(),
		msgs:     newFakeMessageStore(),
		counters: newFakeCounterStore(),
		pres:     newFakePresenceStore(),
		reg:      NewRegistry(),
	}
	fan := NewFanout(2, 64, nil)
	t.Cleanup(fan.Close)
	r.router = NewRouter(r.reg, fan, func(c *Client) {
		c.Shutdown()
		r.reg.Unregister(c.UserID, c)
	})
	r.presence = NewPresencePublisher(r.pres, r.members, r.router)
	r.ledger = NewLedger(r.counters, r.router)
	r.engine = NewEngine(r.members, r.msgs, r.ledger, r.router)
	r.typing = NewTypingRelay(r.members, r.router)
	r.receipts = NewReceipts(r.members, r.msgs, r.ledger, r.router)
	return r
}

func (r *rig) connect(userID string) *Client {
	c := NewClient(ids.GenerateString(), userID, "", nil, 64)
	if prev := r.reg.Register(userID, c); prev != nil {
		prev.Shutdown()
	}
	return c
}

// recvEvent pops the next pushed envelope, failing the test on timeout.
func recvEvent(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case b := <-c.Send:
		var env Envelope
		if err := json.Unmarshal(b, &env); err != nil {
			t.Fatalf("bad envelope: %v", err)
		}
		return env
	case <-time.After(2 * time.Second):
		t.Fatalf("no event for user=%s", c.UserID)
		return Envelope{}
	}
}

// noEvent asserts nothing is pushed within a short grace window.
func noEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case b := <-c.Send:
		t.Fatalf("unexpected event for user=%s: %s", c.UserID, b)
	case <-time.After(50 * time.Millisecond):
	}
}

func decodePayload[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		t.Fatalf("decode %s payload: %v", env.Type, err)
	}
	return out
}
