package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatmodel "campusmatch/module/chat/model"
	"campusmatch/tools/errs"
)

func TestSendDirectToOfflineRecipient(t *testing.T) {
	r := newRig(t)
	r.members.addConversation("conv1", "alice", "bob")
	alice := r.connect("alice") // bob stays offline
	ref := chatmodel.DirectRef("conv1")

	msg, err := r.engine.Send(context.Background(), "alice", ref, "hi")
	require.NoError(t, err)

	// persisted once, still status=sent because nobody was reachable
	stored := r.msgs.chatMessages("conv1")
	require.Len(t, stored, 1)
	assert.Equal(t, chatmodel.StatusSent, stored[0].Status)
	assert.Equal(t, msg.MsgID, stored[0].MsgID)

	// bob's counter moved even though no push happened
	assert.EqualValues(t, 1, r.counters.count("bob", ref))

	// sender got exactly the ack
	env := recvEvent(t, alice)
	assert.Equal(t, EvtMessageSentAck, env.Type)
	p := decodePayload[MessageEventPayload](t, env)
	assert.Equal(t, "hi", p.Message.Body)
	noEvent(t, alice)
}

func TestSendDirectToOnlineRecipient(t *testing.T) {
	r := newRig(t)
	r.members.addConversation("conv1", "alice", "bob")
	alice := r.connect("alice")
	bob := r.connect("bob")
	ref := chatmodel.DirectRef("conv1")

	msg, err := r.engine.Send(context.Background(), "alice", ref, "hello")
	require.NoError(t, err)

	env := recvEvent(t, bob)
	require.Equal(t, EvtMessageReceived, env.Type)
	got := decodePayload[MessageEventPayload](t, env)
	assert.Equal(t, msg.MsgID, got.Message.ID)
	assert.Equal(t, "alice", got.Message.SenderID)

	env = recvEvent(t, bob)
	require.Equal(t, EvtUnreadCountUpdate, env.Type)
	cnt := decodePayload[UnreadCountPayload](t, env)
	assert.EqualValues(t, 1, cnt.NewCount)
	assert.Equal(t, msg.MsgID, cnt.LastMessageID)

	// successful push moved the direct message to delivered
	stored := r.msgs.chatMessages("conv1")
	require.Len(t, stored, 1)
	assert.Equal(t, chatmodel.StatusDelivered, stored[0].Status)

	env = recvEvent(t, alice)
	assert.Equal(t, EvtMessageSentAck, env.Type)
}

func TestSendRejectsNonMember(t *testing.T) {
	r := newRig(t)
	r.members.addConversation("conv1", "alice", "bob")
	alice := r.connect("alice")
	bob := r.connect("bob")

	_, err := r.engine.Send(context.Background(), "mallory", chatmodel.DirectRef("conv1"), "hi")
	require.Error(t, err)
	assert.Equal(t, errs.CodeNotAuthorized, errs.Code(err))

	assert.Empty(t, r.msgs.chatMessages("conv1"))
	assert.EqualValues(t, 0, r.counters.count("bob", chatmodel.DirectRef("conv1")))
	noEvent(t, alice)
	noEvent(t, bob)
}

func TestSendUnknownConversation(t *testing.T) {
	r := newRig(t)
	_, err := r.engine.Send(context.Background(), "alice", chatmodel.DirectRef("missing"), "hi")
	require.Error(t, err)
	assert.Equal(t, errs.CodeNotFound, errs.Code(err))
}

func TestSendGroupFanout(t *testing.T) {
	r := newRig(t)
	r.members.addGroup("g1", "x", "y", "z")
	x := r.connect("x")
	y := r.connect("y") // z stays offline
	ref := chatmodel.GroupRef("g1")

	msg, err := r.engine.Send(context.Background(), "x", ref, "hey all")
	require.NoError(t, err)
	assert.Equal(t, chatmodel.StatusNone, msg.Status)

	// y: one message-received, one unread-count-update
	env := recvEvent(t, y)
	assert.Equal(t, EvtMessageReceived, env.Type)
	env = recvEvent(t, y)
	assert.Equal(t, EvtUnreadCountUpdate, env.Type)
	noEvent(t, y)

	// x: only the ack
	env = recvEvent(t, x)
	assert.Equal(t, EvtMessageSentAck, env.Type)
	noEvent(t, x)

	// both recipients counted exactly once regardless of reachability
	assert.EqualValues(t, 1, r.counters.count("y", ref))
	assert.EqualValues(t, 1, r.counters.count("z", ref))
	assert.EqualValues(t, 0, r.counters.count("x", ref))
}

func TestConcurrentSendsSameChatKeepOrder(t *testing.T) {
	r := newRig(t)
	r.members.addConversation("conv1", "alice", "bob")
	bob := r.connect("bob")
	ref := chatmodel.DirectRef("conv1")

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.engine.Send(context.Background(), "alice", ref, "m")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored := r.msgs.chatMessages("conv1")
	require.Len(t, stored, n)
	for i := 1; i < n; i++ {
		assert.Less(t, stored[i-1].MsgID, stored[i].MsgID, "persisted ids must increase")
	}

	// pushes arrive in the same order the messages were persisted
	var pushed []int64
	for i := 0; i < n; i++ {
		env := recvEvent(t, bob)
		if env.Type != EvtMessageReceived {
			i--
			continue
		}
		pushed = append(pushed, decodePayload[MessageEventPayload](t, env).Message.ID)
	}
	for i, m := range stored {
		if i < len(pushed) {
			assert.Equal(t, m.MsgID, pushed[i])
		}
	}
}

func TestConcurrentGroupSendsCountExactly(t *testing.T) {
	r := newRig(t)
	r.members.addGroup("g1", "x", "y", "z")
	ref := chatmodel.GroupRef("g1")

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.engine.Send(context.Background(), "x", ref, "m")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// lazily-created counters, no lost updates, no duplicate rows
	assert.EqualValues(t, n, r.counters.count("y", ref))
	assert.EqualValues(t, n, r.counters.count("z", ref))
	assert.EqualValues(t, 0, r.counters.count("x", ref))
}

func TestCounterFailurePropagates(t *testing.T) {
	r := newRig(t)
	r.members.addConversation("conv1", "alice", "bob")
	r.counters.failIncrement = true

	_, err := r.engine.Send(context.Background(), "alice", chatmodel.DirectRef("conv1"), "hi")
	require.Error(t, err)
	assert.Equal(t, errs.CodeTransientStore, errs.Code(err))

	// the message itself is durable by the time the increment fails
	assert.Len(t, r.msgs.chatMessages("conv1"), 1)
}

func TestPushFailureTreatedAsOffline(t *testing.T) {
	r := newRig(t)
	r.members.addConversation("conv1", "alice", "bob")
	ref := chatmodel.DirectRef("conv1")

	// bob's session has a full queue: every push to it must fail
	bob := NewClient("cb", "bob", "", nil, 1)
	r.reg.Register("bob", bob)
	bob.Send <- []byte("stuck")

	msg, err := r.engine.Send(context.Background(), "alice", ref, "hi")
	require.NoError(t, err)

	// failed push: no delivered transition, counter still moved, and the
	// stale session was dropped from the registry
	stored := r.msgs.chatMessages("conv1")
	require.Len(t, stored, 1)
	assert.Equal(t, chatmodel.StatusSent, stored[0].Status)
	assert.EqualValues(t, 1, r.counters.count("bob", ref))
	assert.Equal(t, msg.MsgID, stored[0].MsgID)
	_, online := r.reg.Lookup("bob")
	assert.False(t, online)
}
