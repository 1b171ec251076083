package chat

import (
	"fmt"
)

type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Type()] = h }

func (d *Dispatcher) Get(typ string) (Handler, error) {
	h, ok := d.handlers[typ]
	if !ok {
		return nil, fmt.Errorf("no handler for type=%q", typ)
	}
	return h, nil
}
