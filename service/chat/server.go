package chat

import (
	"context"
	"time"

	"campusmatch/logger"
	sec "campusmatch/tools/security"
)

type ServerConfig struct {
	JWT            sec.Options
	AllowedOrigins []string
	SendQueueSize  int
	FanoutWorkers  int
	FanoutQueue    int
}

func (c *ServerConfig) norm() {
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 256
	}
	if c.FanoutWorkers <= 0 {
		c.FanoutWorkers = 4
	}
	if c.FanoutQueue <= 0 {
		c.FanoutQueue = 1024
	}
}

// Server owns the realtime subsystem: the session registry, the fan-out
// pool, and the components hanging off them. One instance per process.
type Server struct {
	cfg ServerConfig

	reg      *Registry
	fan      *Fanout
	router   *Router
	presence *PresencePublisher
	ledger   *Ledger
	engine   *Engine
	typing   *TypingRelay
	receipts *Receipts
	disp     *Dispatcher
}

func NewServer(cfg ServerConfig, members MembershipStore, msgs MessageStore, counters CounterStore, pres PresenceWriter) *Server {
	cfg.norm()
	s := &Server{cfg: cfg, reg: NewRegistry()}

	s.fan = NewFanout(cfg.FanoutWorkers, cfg.FanoutQueue, s.dropStale)
	s.router = NewRouter(s.reg, s.fan, s.dropStale)
	s.presence = NewPresencePublisher(pres, members, s.router)
	s.ledger = NewLedger(counters, s.router)
	s.engine = NewEngine(members, msgs, s.ledger, s.router)
	s.typing = NewTypingRelay(members, s.router)
	s.receipts = NewReceipts(members, msgs, s.ledger, s.router)

	s.disp = NewDispatcher()
	s.disp.Register(&sendMessageHandler{engine: s.engine})
	s.disp.Register(&typingHandler{relay: s.typing, start: true})
	s.disp.Register(&typingHandler{relay: s.typing, start: false})
	s.disp.Register(&markReadHandler{receipts: s.receipts})

	return s
}

func (s *Server) Registry() *Registry { return s.reg }
func (s *Server) Ledger() *Ledger     { return s.ledger }

// dropStale is the decision for a push that could not be delivered: the
// session is considered dead, the registry entry goes away, and the peer
// is reported offline. The pump notices the shutdown and closes the
// socket.
func (s *Server) dropStale(c *Client) {
	c.Shutdown()
	if s.reg.Unregister(c.UserID, c) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.presence.Offline(ctx, c.UserID)
		logger.Infof("[chat] dropped stale session user=%s conn=%s", c.UserID, c.ConnID)
	}
}

func (s *Server) Close() {
	s.fan.Close()
}
