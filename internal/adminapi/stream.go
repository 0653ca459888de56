package adminapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/opchan/core/internal/errs"
)

// streamEvent is one line of the /v1/stream feed: a pending-message
// transition or a warning, whichever fired.
type streamEvent struct {
	Type      string `json:"type"` // "pending" | "warning"
	MessageID string `json:"message_id,omitempty"`
	Pending   bool   `json:"pending,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Admin surface: the caller already passed the JWT gate (or none was
	// configured), so any origin is accepted here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stream upgrades to a websocket and forwards every replica pending
// change and warning (both ours and identity's) until the connection
// drops, the inspection-side counterpart of transport/relay's readLoop.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("adminapi: websocket upgrade failed")
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(ev streamEvent) {
		raw, err := json.Marshal(ev)
		if err != nil {
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.WriteMessage(websocket.TextMessage, raw)
	}

	unsubPending := s.replica.OnPendingChange(func(messageID string, pending bool) {
		send(streamEvent{Type: "pending", MessageID: messageID, Pending: pending})
	})
	defer unsubPending()

	unsubWarning := s.replica.OnWarning(func(w *errs.Warning) {
		send(streamEvent{Type: "warning", Kind: string(w.Kind), Error: w.Err.Error()})
	})
	defer unsubWarning()

	if s.ident != nil {
		unsubIdentWarning := s.ident.OnWarning(func(w *errs.Warning) {
			send(streamEvent{Type: "warning", Kind: string(w.Kind), Error: w.Err.Error()})
		})
		defer unsubIdentWarning()
	}

	// Block on reads purely to detect the peer closing the connection;
	// the admin feed is one-directional, so any inbound message is
	// simply discarded.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
