package chat

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"campusmatch/logger"
	"campusmatch/tools/errs"
	"campusmatch/tools/ids"
	sec "campusmatch/tools/security"
)

const (
	readLimit    = 1 << 20
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	opTimeout    = 10 * time.Second
)

func (s *Server) upgrader() websocket.Upgrader {
	allowed := s.cfg.AllowedOrigins
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			// no configured origins means a local/dev deployment
			if len(allowed) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowed {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
}

// HandleWS is the gin route for ws://.../ws?token=<jwt>. The handshake
// verifies the token before any session exists; a bad credential closes
// the socket without touching the registry or presence.
func (s *Server) HandleWS(c *gin.Context) {
	up := s.upgrader()
	ws, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade: %v", err)
		return
	}

	ident, err := sec.Verify(s.cfg.JWT, c.Query("token"))
	if err != nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication failed"),
			time.Now().Add(writeTimeout))
		_ = ws.Close()
		return
	}

	client := NewClient(ids.GenerateString(), ident.UserID, ident.DisplayName, ws, s.cfg.SendQueueSize)

	// A reconnect supersedes the previous session; shutting it down here
	// is what keeps the old handle from leaking.
	if prev := s.reg.Register(ident.UserID, client); prev != nil {
		logger.Infof("[ws] superseding session user=%s old=%s new=%s", ident.UserID, prev.ConnID, client.ConnID)
		prev.Shutdown()
	}

	go s.writePump(client)

	connCtx, cancel := context.WithTimeout(context.Background(), opTimeout)
	s.presence.Online(connCtx, client.UserID)
	if counts, err := s.ledger.GetAll(connCtx, client.UserID); err != nil {
		logger.Warnf("[ws] unread hydrate user=%s: %v", client.UserID, err)
	} else if len(counts) > 0 {
		client.TryPush(BuildEvent(EvtUnreadState, UnreadStatePayload{Counts: counts}))
	}
	cancel()

	s.readLoop(client)

	// Teardown: conditional unregister so a superseded session cannot
	// evict its replacement, then best-effort offline presence.
	client.Shutdown()
	if s.reg.Unregister(client.UserID, client) {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		s.presence.Offline(ctx, client.UserID)
		cancel()
	}
}

func (s *Server) readLoop(c *Client) {
	ws := c.WS
	ws.SetReadLimit(readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed user=%s conn=%s", c.UserID, c.ConnID)
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout user=%s conn=%s", c.UserID, c.ConnID)
			} else {
				logger.Infof("[ws] read err user=%s conn=%s: %v", c.UserID, c.ConnID, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		env, err := ParseEnvelope(data)
		if err != nil {
			c.TryPush(BuildEvent(EvtError, ErrorPayload{Code: errs.CodePayload, Msg: "malformed frame"}))
			continue
		}
		h, err := s.disp.Get(env.Type)
		if err != nil {
			c.TryPush(BuildEvent(EvtError, ErrorPayload{Code: errs.CodePayload, Msg: "unknown event type"}))
			continue
		}

		opCtx, cancel := context.WithTimeout(context.Background(), opTimeout)
		err = h.Handle(opCtx, c, env.Payload)
		cancel()
		if err != nil {
			// Errors go back to the caller only; peers never see them and
			// the connection survives.
			code := errs.Code(err)
			if code == 0 {
				code = errs.CodeTransientStore
			}
			logger.Warnf("[ws] %s user=%s: %v", env.Type, c.UserID, err)
			c.TryPush(BuildEvent(EvtError, ErrorPayload{Code: code, Msg: err.Error()}))
		}
	}
}

// writePump is the only goroutine that writes to the socket. It drains the
// send queue, keeps the ping cadence, and on shutdown leaves with a close
// frame.
func (s *Server) writePump(c *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer func() { _ = c.WS.Close() }()

	for {
		select {
		case payload := <-c.Send:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[ws] write err user=%s conn=%s: %v", c.UserID, c.ConnID, err)
				s.dropStale(c)
				return
			}
		case <-ticker.C:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.WS.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.dropStale(c)
				return
			}
		case <-c.Done():
			_ = c.WS.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeTimeout))
			return
		}
	}
}
