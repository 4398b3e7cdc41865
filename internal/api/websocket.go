package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AaronLay10/chaintour/internal/events"
	"github.com/AaronLay10/chaintour/internal/logger"
)

const (
	// Number of recent events to send on connection
	recentEventsCount = 50

	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Viewers are read-only; any origin may watch.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsEventsHandler streams recent and then live bus events to one viewer.
func (s *Server) wsEventsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("ws upgrade failed", logger.FieldError, err)
		return
	}

	// Take the backlog before subscribing so no event is sent twice.
	recent := events.RecentEvents(recentEventsCount)
	sub := events.Subscribe()

	viewer := map[string]interface{}{logger.FieldAddress: r.RemoteAddr}
	emit := func(name string) {
		if _, err := events.Emit("info", name, "", viewer); err != nil {
			s.logger.Errorw("event emit failed", "event", name, logger.FieldError, err)
		}
	}
	emit("viewer.connected")

	closeConn := func() {
		events.Unsubscribe(sub)
		conn.Close()
		emit("viewer.disconnected")
	}

	for _, e := range recent {
		if err := writeEvent(conn, e); err != nil {
			s.logger.Debugw("ws write recent event failed", logger.FieldError, err)
			closeConn()
			return
		}
	}

	done := make(chan struct{})

	// Reader goroutine - handles pongs and close messages
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			closeConn()
			return

		case e, ok := <-sub:
			if !ok {
				// Server shutting down
				conn.Close()
				return
			}
			if err := writeEvent(conn, e); err != nil {
				s.logger.Debugw("ws write event failed", logger.FieldError, err)
				closeConn()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				closeConn()
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
