package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/academy-console/internal/models"
	"github.com/terra-clan/academy-console/internal/session"
)

const (
	eventBuffer  = 32
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SessionMessage is pushed to the browser over /ws/session
type SessionMessage struct {
	Type    string         `json:"type"`
	Event   string         `json:"event,omitempty"`
	Session *sessionView   `json:"session,omitempty"`
	Notice  *models.Notice `json:"notice,omitempty"`
}

const (
	messageConnected   = "connected"
	messageAuthChanged = "auth_changed"
	messageNotice      = "notice"
)

// handleSessionEvents streams auth-changed signals and notices of the
// caller's session until the socket closes
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	key := SessionKeyFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("session websocket connected", "request_id", requestID(r))

	out := make(chan SessionMessage, eventBuffer)
	enqueue := func(msg SessionMessage) {
		select {
		case out <- msg:
		default:
			slog.Warn("dropping session message for slow client", "type", msg.Type)
		}
	}

	stopAuth := s.sessions.OnChange(key, func(ev session.Event) {
		msg := SessionMessage{Type: messageAuthChanged, Event: string(ev.Type)}
		view := newSessionView(ev.Session)
		msg.Session = &view
		enqueue(msg)
	})
	defer stopAuth()

	stopNotices := s.notices.Subscribe(key, func(n models.Notice) {
		enqueue(SessionMessage{Type: messageNotice, Notice: &n})
	})
	defer stopNotices()

	current, err := s.sessions.Get(r.Context(), key)
	if err != nil {
		slog.Warn("failed to read session for websocket", "error", err)
	}
	view := newSessionView(current)
	if err := s.sendSessionMessage(conn, SessionMessage{Type: messageConnected, Session: &view}); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// Events -> WebSocket
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-out:
				if err := s.sendSessionMessage(conn, msg); err != nil {
					return
				}
			case <-ticker.C:
				deadline := time.Now().Add(writeTimeout)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					slog.Debug("websocket ping failed", "error", err)
					return
				}
			}
		}
	}()

	// The browser never sends data; reading detects the close
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	<-ctx.Done()
	conn.Close()
	wg.Wait()
	slog.Info("session websocket disconnected", "request_id", requestID(r))
}

func (s *Server) sendSessionMessage(conn *websocket.Conn, msg SessionMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal session message", "error", err)
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send session message", "error", err)
		return err
	}
	return nil
}
