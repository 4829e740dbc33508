// Package stream broadcasts level snapshots to websocket clients.
package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// QueueSize is the number of frames buffered per client.
	QueueSize = 4

	writeWait = 2 * time.Second
)

// Frame is the message sent on every update.
type Frame struct {
	Type    string    `json:"type"`
	Levels  []float64 `json:"levels"`
	Ceiling float64   `json:"ceiling"`
}

type client struct {
	conn *websocket.Conn
	send chan Frame
	done chan struct{}
}

// Server is an http.Handler that upgrades requests to websockets and
// broadcasts every Write to all connected clients.
type Server struct {
	Log zerolog.Logger

	ceiling  float64
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

// NewServer returns a server reporting levels on a scale of ceiling.
func NewServer(ceiling float64) *Server {
	return &Server{
		Log:     zerolog.Nop(),
		ceiling: ceiling,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin,
		},
		clients: make(map[*client]struct{}),
	}
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Warn().Err(err).Str("origin", r.Header.Get("Origin")).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		conn: conn,
		send: make(chan Frame, QueueSize),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	s.Log.Debug().Str("remote", r.RemoteAddr).Msg("client connected")

	go s.runReader(c)
	s.runWriter(c)

	s.remove(c)
	s.wg.Done()

	s.Log.Debug().Str("remote", r.RemoteAddr).Msg("client disconnected")
}

// runWriter is the sole writer to the connection.
func (s *Server) runWriter(c *client) {
	defer c.conn.Close()

	for {
		select {
		case <-c.done:
			return
		case frame, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		}
	}
}

// runReader drains the connection so control frames are handled, and ends
// the client when the peer goes away.
func (s *Server) runReader(c *client) {
	defer close(c.done)

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

// Write broadcasts levels to every client. A client with a full queue
// misses the frame.
func (s *Server) Write(levels []float64) error {
	frame := Frame{
		Type:    "levels",
		Levels:  append([]float64(nil), levels...),
		Ceiling: s.ceiling,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		trySend(c.send, frame, s.Log)
	}

	return nil
}

func trySend(send chan<- Frame, frame Frame, log zerolog.Logger) {
	select {
	case send <- frame:
	default:
		log.Debug().Msg("client queue full, dropping frame")
	}
}

// Close disconnects every client and waits for their handlers to return.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// ListenAndServe serves the websocket on addr at path until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, s)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "websocket server failed")
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	s.Close()
	if err := srv.Shutdown(shutCtx); err != nil {
		return errors.Wrap(err, "failed to shut down websocket server")
	}

	return nil
}
