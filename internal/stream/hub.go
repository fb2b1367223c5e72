// Package stream pushes per-frame scene transforms to websocket clients so a
// browser can mirror the simulation.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tumble/quarkgl"
)

const (
	sendQueue    = 8
	writeTimeout = 2 * time.Second
)

// Transform is one top-level scene node.
type Transform struct {
	Name     string     `json:"name"`
	Position [3]float32 `json:"position"`
	Rotation [4]float32 `json:"rotation"` // x, y, z, w
	Scale    [3]float32 `json:"scale"`
	Visible  bool       `json:"visible"`
}

// Snapshot is the message sent after every rendered frame.
type Snapshot struct {
	Type   string      `json:"type"`
	Frame  uint64      `json:"frame"`
	Camera Transform   `json:"camera"`
	Nodes  []Transform `json:"nodes"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub is an http.Handler for websocket clients and a frame renderer that
// broadcasts snapshots to them. Slow clients drop frames.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	frame   uint64
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:     log.Named("stream"),
		clients: make(map[*client]struct{}),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendQueue)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info("client connected", zap.String("remote", r.RemoteAddr))

	go h.writeLoop(c)

	// Clients only listen; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(c)
	h.log.Info("client disconnected", zap.String("remote", r.RemoteAddr))
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Debug("write failed", zap.Error(err))
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Draw broadcasts the scene's top-level node transforms.
func (h *Hub) Draw(scene *quarkgl.Scene, cam *quarkgl.Camera) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frame++
	if len(h.clients) == 0 || scene == nil || scene.Root == nil {
		return nil
	}

	snap := Snapshot{Type: "frame", Frame: h.frame}
	if cam != nil {
		snap.Camera = Transform{
			Name:     "camera",
			Position: cam.Position,
			Rotation: [4]float32{0, 0, 0, 1},
			Scale:    [3]float32{1, 1, 1},
			Visible:  true,
		}
	}
	for _, n := range scene.Root.Children() {
		snap.Nodes = append(snap.Nodes, transformOf(n))
	}
	msg, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
	return nil
}

func transformOf(n *quarkgl.Node) Transform {
	q := n.Orientation
	if q.W == 0 && q.V.Len() == 0 {
		q.W = 1
	}
	s := n.Scale
	if s.Len() == 0 {
		s[0], s[1], s[2] = 1, 1, 1
	}
	return Transform{
		Name:     n.Name,
		Position: n.Position,
		Rotation: [4]float32{q.V[0], q.V[1], q.V[2], q.W},
		Scale:    s,
		Visible:  n.Visible,
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ListenAndServe serves the hub on addr at /ws until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	h.log.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		h.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
