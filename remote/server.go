// Package remote exposes a running zeno game to external tools over a
// websocket, so an editor or REPL can inject events and inspect the current
// state while the game runs.
package remote

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/phanxgames/zeno"
	"golang.org/x/sync/errgroup"
)

// Sampler returns the current state without blocking. *zeno.Loop implements
// it.
type Sampler interface {
	Sample() zeno.State
}

// Config tunes a Server. Zero fields take their defaults.
type Config struct {
	ReadBufferSize  int
	WriteBufferSize int
	// AllowedOrigins restricts the Origin header. Empty allows every origin.
	AllowedOrigins []string
	// WriteTimeout bounds each outgoing message. Default 5s.
	WriteTimeout time.Duration
	// OutboxSize is the per-connection queue of outgoing messages. Default 16.
	OutboxSize int
	Logger     *log.Logger
}

func (c Config) withDefaults() Config {
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = 1024
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = 1024
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.OutboxSize <= 0 {
		c.OutboxSize = 16
	}
	if c.Logger == nil {
		c.Logger = log.New(os.Stderr, "[zeno/remote] ", log.LstdFlags)
	}
	return c
}

// Server accepts websocket connections and feeds decoded events to a
// handler, usually a *zeno.Dispatcher or *zeno.Loop.
type Server struct {
	handler  zeno.Handler
	sampler  Sampler
	cfg      Config
	upgrader websocket.Upgrader
	logger   *log.Logger
}

// NewServer creates a server dispatching to h and sampling state from s.
func NewServer(h zeno.Handler, s Sampler, cfg Config) *Server {
	cfg = cfg.withDefaults()
	srv := &Server{
		handler: h,
		sampler: s,
		cfg:     cfg,
		logger:  cfg.Logger,
	}
	srv.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     srv.checkOrigin,
	}
	return srv
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range s.cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// Handler returns a mux serving the websocket at /ws and the message schema
// at /schema.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s)
	mux.HandleFunc("/schema", func(w http.ResponseWriter, r *http.Request) {
		data, err := json.MarshalIndent(Schema(), "", "  ")
		if err != nil {
			http.Error(w, "failed to encode schema", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/schema+json")
		w.Write(data)
	})
	return mux
}

// ServeHTTP upgrades the request and serves the connection until either
// side closes it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("upgrade failed: %v", err)
		return
	}
	session := ulid.Make().String()
	s.logger.Printf("session %s connected from %s", session, r.RemoteAddr)
	if err := s.serve(r.Context(), conn, session); err != nil && !isClosed(err) {
		s.logger.Printf("session %s: %v", session, err)
	}
	s.logger.Printf("session %s closed", session)
}

// serve runs the read and write pumps for one connection. The writer owns
// every write on conn; the reader only ever queues replies.
func (s *Server) serve(ctx context.Context, conn *websocket.Conn, session string) error {
	outbox := make(chan Message, s.cfg.OutboxSize)
	outbox <- Message{Type: TypeHello, Session: session}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.cfg.WriteTimeout))
				return nil
			case msg := <-outbox:
				_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
				if err := conn.WriteJSON(msg); err != nil {
					return err
				}
			}
		}
	})
	g.Go(func() error {
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return err
			}
			reply, ok := s.handleMessage(session, payload)
			if !ok {
				continue
			}
			select {
			case outbox <- reply:
			case <-ctx.Done():
				return nil
			}
		}
	})
	return g.Wait()
}

// handleMessage decodes one client message. It reports false when no reply
// is due.
func (s *Server) handleMessage(session string, payload []byte) (Message, bool) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Printf("session %s: discarding malformed message: %v", session, err)
		return Message{Type: TypeError, Error: "malformed message"}, true
	}
	switch msg.Type {
	case TypeEvent:
		if msg.Event == nil {
			return Message{Type: TypeError, Error: "event message without event"}, true
		}
		e, err := msg.Event.Decode()
		if err != nil {
			return Message{Type: TypeError, Error: err.Error()}, true
		}
		s.handler.Handle(e)
		return Message{}, false
	case TypeSample:
		if s.sampler == nil {
			return Message{Type: TypeError, Error: "sampling disabled"}, true
		}
		return Message{Type: TypeState, State: View(s.sampler.Sample())}, true
	case TypePing:
		return Message{Type: TypePong}, true
	default:
		return Message{Type: TypeError, Error: "unknown message type " + msg.Type}, true
	}
}

func isClosed(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
