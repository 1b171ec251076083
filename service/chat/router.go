package chat

// Router resolves user ids to live sessions and delivers payloads. It is
// the only Pusher implementation in production; tests use it directly over
// a Registry of socketless clients.
type Router struct {
	reg     *Registry
	fan     *Fanout
	onStale func(*Client)
}

func NewRouter(reg *Registry, fan *Fanout, onStale func(*Client)) *Router {
	return &Router{reg: reg, fan: fan, onStale: onStale}
}

func (r *Router) PushToUser(userID string, payload []byte) bool {
	c, ok := r.reg.Lookup(userID)
	if !ok {
		return false
	}
	if !c.TryPush(payload) {
		// full queue or closed session: treated as offline, the pump
		// tears the connection down on its own
		if r.onStale != nil {
			r.onStale(c)
		}
		return false
	}
	return true
}

func (r *Router) FanOut(userIDs []string, payload []byte) {
	conns := make([]*Client, 0, len(userIDs))
	for _, u := range userIDs {
		if c, ok := r.reg.Lookup(u); ok {
			conns = append(conns, c)
		}
	}
	r.fan.Broadcast(conns, payload)
}
