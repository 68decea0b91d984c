package handlers

import (
	"log"
	"net/http"
	"time"

	"FreshCart/authstate"
	custommiddleware "FreshCart/middleware"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
)

// StateWSHandler streams auth state snapshots to a connected storefront
// tab. Each connection is one subscriber of the session's auth store;
// every state transition is pushed as a JSON snapshot.
type StateWSHandler struct {
	states *authstate.Manager
}

func NewStateWSHandler(states *authstate.Manager) *StateWSHandler {
	return &StateWSHandler{states: states}
}

func (h *StateWSHandler) Subscribe(c echo.Context) error {
	sid := custommiddleware.SessionID(c)
	store := h.states.GetOrCreate(sid)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	subID, updates := store.Subscribe()
	defer store.Unsubscribe(subID)

	// 连接建立后先推当前状态
	if err := conn.WriteJSON(store.Snapshot()); err != nil {
		conn.Close()
		return nil
	}

	done := make(chan struct{})

	// 读循环只用于感知客户端断开
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				log.Printf("state push failed, dropping subscriber %s: %v", subID, err)
				return nil
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-done:
			return nil
		}
	}
}
