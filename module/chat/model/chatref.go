package model

// ChatKind distinguishes the two membership models. It is the only place
// the direct/group split exists; fan-out and counters are kind-agnostic
// and just carry the ChatRef through.
type ChatKind int32

const (
	KindDirect ChatKind = 1
	KindGroup  ChatKind = 2
)

type ChatRef struct {
	Kind ChatKind
	ID   string
}

func DirectRef(conversationID string) ChatRef {
	return ChatRef{Kind: KindDirect, ID: conversationID}
}

func GroupRef(groupID string) ChatRef {
	return ChatRef{Kind: KindGroup, ID: groupID}
}

func (r ChatRef) IsGroup() bool { return r.Kind == KindGroup }
