package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Agents are processes, not browser pages; origin checks do not
	// apply here.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsFramer maps protocol frames onto websocket text messages.
type wsFramer struct {
	c *websocket.Conn
}

func newWSFramer(c *websocket.Conn) *wsFramer {
	c.SetReadLimit(maxFrameBytes)
	return &wsFramer{c: c}
}

func (w *wsFramer) ReadFrame() ([]byte, error) {
	for {
		mt, data, err := w.c.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt != websocket.TextMessage {
			continue
		}
		return data, nil
	}
}

func (w *wsFramer) WriteFrame(frame []byte) error {
	w.c.SetWriteDeadline(time.Now().Add(writeWait))
	return w.c.WriteMessage(websocket.TextMessage, frame)
}

func (w *wsFramer) Close() error { return w.c.Close() }

func (w *wsFramer) RemoteAddr() string { return w.c.RemoteAddr().String() }

// handleWS upgrades an /ws request and feeds the connection into the
// same handshake path as TCP agents.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", "addr", r.RemoteAddr, "err", err)
		return
	}
	go s.handshake(newConn(newWSFramer(ws), s.logger))
}
