package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kapu/superhero-cards-go/internal/constants"
	"github.com/kapu/superhero-cards-go/internal/domain"
	"go.uber.org/zap"
)

const (
	MessageTypeCards   = "cards"
	MessageTypeSettled = "settled"
)

// LiveMessage is the JSON frame pushed to the page script.
type LiveMessage struct {
	Type  string `json:"type"`
	HTML  string `json:"html,omitempty"`
	Count int    `json:"count"`
}

// handleLive mounts a session for the lifetime of the socket and pushes a
// re-rendered card list after every collection change.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	s.liveConns.Add(1)
	defer s.liveConns.Done()
	defer conn.Close()

	sess := s.mount("live")
	defer sess.Close()

	updates, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	if err := s.writeCards(conn, sess.Snapshot()); err != nil {
		s.logger.Debug("Initial live render failed", zap.Error(err))
		return
	}

	readDone := make(chan struct{})
	go s.readLoop(conn, readDone)

	pingTicker := time.NewTicker(constants.WebSocketConfig.PingInterval)
	defer pingTicker.Stop()

	settled := sess.Settled()

	for {
		select {
		case <-readDone:
			return
		case <-s.closing:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(constants.WebSocketConfig.WriteTimeout))
			return
		case heroes, ok := <-updates:
			if !ok {
				return
			}
			if err := s.writeCards(conn, heroes); err != nil {
				s.logger.Debug("Live write failed", zap.Error(err))
				return
			}
		case <-settled:
			settled = nil
			// Every bootstrap result is applied before Settled closes, so a
			// pending update must go out before the settled frame.
			select {
			case heroes, ok := <-updates:
				if ok {
					if err := s.writeCards(conn, heroes); err != nil {
						return
					}
				}
			default:
			}
			if err := s.writeJSON(conn, LiveMessage{Type: MessageTypeSettled, Count: len(sess.Snapshot())}); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(constants.WebSocketConfig.WriteTimeout)); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so control messages are processed; the view
// unmounts when the client goes away.
func (s *Server) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(constants.WebSocketConfig.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(constants.WebSocketConfig.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(constants.WebSocketConfig.PongTimeout))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (s *Server) writeCards(conn *websocket.Conn, heroes []domain.Hero) error {
	html, err := s.renderer.RenderCards(heroes)
	if err != nil {
		s.logger.Error("Failed to render cards", zap.Error(err))
		return err
	}
	return s.writeJSON(conn, LiveMessage{Type: MessageTypeCards, HTML: html, Count: len(heroes)})
}

func (s *Server) writeJSON(conn *websocket.Conn, msg LiveMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(constants.WebSocketConfig.WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
