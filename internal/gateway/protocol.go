package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/joaaoazul/hypermint/internal/model"
)

// Message types.
const (
	// client → server
	MsgRange      = "range"      // user pan/zoom on one pane
	MsgResize     = "resize"     // container width changed
	MsgIndicators = "indicators" // replace the active indicator set
	MsgPing       = "ping"

	// server → client
	MsgLayout = "layout" // full pane list after a rebuild
	MsgError  = "error"
	MsgPong   = "pong"
)

// ErrBadMessage marks an inbound message that cannot be applied.
var ErrBadMessage = errors.New("bad client message")

// ClientMsg is any inbound message. Fields are used according to Type.
type ClientMsg struct {
	Type       string   `json:"type"`
	ReqID      string   `json:"req_id,omitempty"`
	Pane       string   `json:"pane,omitempty"`
	From       *float64 `json:"from,omitempty"`
	To         *float64 `json:"to,omitempty"`
	Width      int      `json:"width,omitempty"`
	Indicators []string `json:"indicators,omitempty"`
	Ping       int64    `json:"ping,omitempty"`
}

// Range returns the logical range carried by a range message.
func (m ClientMsg) Range() model.LogicalRange {
	var r model.LogicalRange
	if m.From != nil {
		r.From = *m.From
	}
	if m.To != nil {
		r.To = *m.To
	}
	return r
}

// decodeClientMsg parses and checks an inbound frame.
func decodeClientMsg(b []byte) (ClientMsg, error) {
	var m ClientMsg
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	switch m.Type {
	case MsgRange:
		if m.Pane == "" || m.From == nil || m.To == nil {
			return m, fmt.Errorf("%w: range needs pane, from and to", ErrBadMessage)
		}
		if math.IsNaN(*m.From) || math.IsNaN(*m.To) || *m.From > *m.To {
			return m, fmt.Errorf("%w: range from %v to %v", ErrBadMessage, *m.From, *m.To)
		}
	case MsgResize:
		if m.Width <= 0 {
			return m, fmt.Errorf("%w: resize width %d", ErrBadMessage, m.Width)
		}
	case MsgIndicators, MsgPing:
	case "":
		return m, fmt.Errorf("%w: missing type", ErrBadMessage)
	default:
		return m, fmt.Errorf("%w: unknown type %q", ErrBadMessage, m.Type)
	}
	return m, nil
}

// LayoutMsg carries the panes produced by a rebuild.
type LayoutMsg struct {
	Type   string                 `json:"type"`
	Symbol string                 `json:"symbol"`
	ReqID  string                 `json:"req_id,omitempty"`
	Panes  []model.PaneDescriptor `json:"panes"`
}

// RangeMsg tells the client to move one pane.
type RangeMsg struct {
	Type  string             `json:"type"`
	Pane  string             `json:"pane"`
	Range model.LogicalRange `json:"range"`
}

// ResizeMsg tells the client to apply a width to one pane.
type ResizeMsg struct {
	Type  string `json:"type"`
	Pane  string `json:"pane"`
	Width int    `json:"width"`
}

// ErrorMsg reports a rejected client message.
type ErrorMsg struct {
	Type  string `json:"type"`
	ReqID string `json:"req_id,omitempty"`
	Error string `json:"error"`
}

// PongMsg answers a ping.
type PongMsg struct {
	Type     string `json:"type"`
	Ping     int64  `json:"ping"`
	ServerTS int64  `json:"server_ts"`
}
