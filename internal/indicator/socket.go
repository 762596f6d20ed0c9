package indicator

import (
	"context"
	_ "embed"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
)

//go:embed overlay.html
var overlayPage []byte

const (
	SocketRoute  = "/indicator"
	OverlayRoute = "/overlay"

	clientBuffer = 8
	writeTimeout = 5 * time.Second
)

type client struct {
	send chan string
}

// Socket broadcasts indicator texts to websocket clients, typically the browser overlay
// served at [OverlayRoute].
type Socket struct {
	logger *log.Logger

	mu      sync.Mutex
	last    string
	clients map[*client]struct{}
}

func NewSocket(logger *log.Logger) *Socket {
	return &Socket{logger: logger, clients: make(map[*client]struct{})}
}

// Routes returns the paths served by the socket sink.
func (s *Socket) Routes() []string {
	return []string{SocketRoute, OverlayRoute}
}

// SetText sends text to every connected client. Clients whose buffer is full miss it.
func (s *Socket) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = text
	for c := range s.clients {
		select {
		case c.send <- text:
		default:
			s.logger.Debug("dropping indicator text for slow client")
		}
	}
}

// Clients returns the number of connected clients.
func (s *Socket) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Socket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == OverlayRoute {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(overlayPage)
		return
	}

	// Cross-origin pages are rejected; the overlay is served from this host.
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	c := s.subscribe()
	defer s.unsubscribe(c)

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-c.send:
			if err := write(ctx, conn, text); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

func (s *Socket) subscribe() *client {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &client{send: make(chan string, clientBuffer)}
	if s.last != "" {
		c.send <- s.last
	}
	s.clients[c] = struct{}{}
	return c
}

func (s *Socket) unsubscribe(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

func write(ctx context.Context, conn *websocket.Conn, text string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, []byte(text))
}
