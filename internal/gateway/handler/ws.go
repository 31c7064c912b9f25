package handler

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"queryscope/internal/cluster"
)

// GenerationHub fans generation progress events out to connected dashboard
// clients over websockets. Slow or broken connections are dropped rather
// than allowed to stall a generation run.
type GenerationHub struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewGenerationHub() *GenerationHub {
	return &GenerationHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]bool),
	}
}

// Publish sends one progress event to every connected client.
func (h *GenerationHub) Publish(p cluster.Progress) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(p); err != nil {
			log.Printf("ws: dropping client: %v", err)
			_ = conn.Close()
			delete(h.conns, conn)
		}
	}
}

// HandleWS upgrades the request and keeps the connection registered until
// the client goes away.
func (h *GenerationHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	// Drain reads so close frames are processed; unregister on error.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				delete(h.conns, conn)
				h.mu.Unlock()
				_ = conn.Close()
				return
			}
		}
	}()
}
