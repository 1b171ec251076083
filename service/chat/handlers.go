package chat

import (
	"context"
	"encoding/json"

	"campusmatch/tools/errs"
)

// Inbound event handlers. Each one decodes its payload, hands off to the
// owning component, and lets the read loop convert errors into an error
// event on the caller's own socket.

type sendMessageHandler struct {
	engine *Engine
}

func (h *sendMessageHandler) Type() string { return EvtSendMessage }

func (h *sendMessageHandler) Handle(ctx context.Context, c *Client, payload json.RawMessage) error {
	var p SendMessagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return errs.ErrPayload.WithDetail(err.Error())
	}
	if p.ChatID == "" || p.Body == "" {
		return errs.ErrPayload.WithDetail("chatId and body are required")
	}
	_, err := h.engine.Send(ctx, c.UserID, ChatRefPayload{ChatID: p.ChatID, IsGroup: p.IsGroup}.Ref(), p.Body)
	return err
}

type typingHandler struct {
	relay *TypingRelay
	start bool
}

func (h *typingHandler) Type() string {
	if h.start {
		return EvtTypingStart
	}
	return EvtTypingStop
}

func (h *typingHandler) Handle(ctx context.Context, c *Client, payload json.RawMessage) error {
	var p ChatRefPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return errs.ErrPayload.WithDetail(err.Error())
	}
	if p.ChatID == "" {
		return errs.ErrPayload.WithDetail("chatId is required")
	}
	if h.start {
		return h.relay.Start(ctx, c.UserID, p.Ref())
	}
	return h.relay.Stop(ctx, c.UserID, p.Ref())
}

type markReadHandler struct {
	receipts *Receipts
}

func (h *markReadHandler) Type() string { return EvtMarkRead }

func (h *markReadHandler) Handle(ctx context.Context, c *Client, payload json.RawMessage) error {
	var p ChatRefPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return errs.ErrPayload.WithDetail(err.Error())
	}
	if p.ChatID == "" {
		return errs.ErrPayload.WithDetail("chatId is required")
	}
	return h.receipts.MarkRead(ctx, c.UserID, p.Ref())
}
