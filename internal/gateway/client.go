package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 4096
)

// Client pumps frames between one WebSocket and its Session.
type Client struct {
	conn    *websocket.Conn
	session *Session
	cancel  context.CancelFunc
	log     *slog.Logger
}

// writePump sends every queued session message and keeps the connection alive
// with pings. It exits when the session output closes or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	out := c.session.Out()
	for {
		select {
		case msg, ok := <-out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Write coalescing: queued messages share one frame, newline separated.
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)

			n := len(out)
			for i := 0; i < n; i++ {
				next, ok := <-out
				if !ok {
					break
				}
				w.Write([]byte{'\n'})
				w.Write(next)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump decodes inbound frames into session events. When the peer goes
// away it cancels the session, which closes the output and ends writePump.
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.conn.Close()
		c.log.Info("ws client disconnected")
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("ws read error", slog.Any("error", err))
			}
			return
		}

		msg, err := decodeClientMsg(frame)
		if err != nil {
			var probe struct {
				ReqID string `json:"req_id"`
			}
			json.Unmarshal(frame, &probe)
			if !c.session.Reject(probe.ReqID, err) {
				return
			}
			continue
		}
		if !c.session.Deliver(msg) {
			return
		}
	}
}
