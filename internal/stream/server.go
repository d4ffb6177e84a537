package stream

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/springnet/internal/automation"
)

const (
	readLimit  = 1 << 16
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn is the blocking end of a queue; gorilla allows one concurrent
// writer, and the mutex keeps that true outside the pump as well.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) Send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func (c *wsConn) Close() error { return c.conn.Close() }

// Handler upgrades each request to a websocket and attaches it to h until
// the client disconnects or the hub stops.
func Handler(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn().Err(err).Msg("upgrade failed")
			return
		}
		q := newQueue(&wsConn{conn: conn}, sendQueueSize)

		reply := make(chan int, 1)
		select {
		case h.Inbox <- Join{Conn: q, Reply: reply}:
		case <-h.done:
			_ = q.Close()
			return
		}
		var id int
		select {
		case id = <-reply:
		case <-h.done:
			_ = q.Close()
			return
		}
		defer func() {
			select {
			case h.Inbox <- Leave{ID: id}:
			case <-h.done:
			}
		}()

		conn.SetReadLimit(readLimit)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		stop := make(chan struct{})
		defer close(stop)
		go func() {
			ticker := time.NewTicker(pingPeriod)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
						return
					}
				case <-stop:
					return
				}
			}
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.log.Debug().Err(err).Int("client", id).Msg("read failed")
				}
				return
			}

			ev, err := decodeCommand(msg)
			if err != nil {
				if b, encErr := Encode(MsgError, Error{Message: err.Error()}); encErr == nil {
					_ = q.Send(b)
				}
				continue
			}
			select {
			case h.Inbox <- Command{ID: id, Event: ev}:
			case <-h.done:
				return
			}
		}
	}
}

func decodeCommand(msg []byte) (automation.Event, error) {
	env, err := DecodeEnvelope(msg)
	if err != nil {
		return automation.Event{}, err
	}
	if env.T != MsgCommand {
		return automation.Event{}, errors.New("expected a command envelope, got " + env.T)
	}
	return DecodePayload[automation.Event](env)
}

// Serve runs h and an HTTP server exposing it at /ws on addr until ctx is
// canceled or the listener fails.
func Serve(ctx context.Context, addr string, h *Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", Handler(h))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h.Run(ctx)
		return nil
	})
	g.Go(func() error {
		h.log.Info().Str("addr", addr).Msg("serving layout at /ws")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
