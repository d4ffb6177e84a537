package stream

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/san-kum/springnet/internal/automation"
	"github.com/san-kum/springnet/internal/physics"
	"github.com/san-kum/springnet/internal/sim"
)

type Conn interface {
	Send([]byte) error
	Close() error
}

// Join attaches a connection; the hub answers with the client id on Reply.
type Join struct {
	Conn  Conn
	Reply chan<- int
}

type Leave struct {
	ID int
}

// Command applies Event on behalf of client ID.
type Command struct {
	ID    int
	Event automation.Event
}

type Hub struct {
	Inbox chan any

	sys            *physics.System
	name           string
	dt             float64
	tickHz         int
	broadcastEvery int
	log            zerolog.Logger

	clients map[int]Conn
	nextID  int
	tick    int
	t       float64
	halted  bool
	done    chan struct{}
}

type Option func(*Hub)

func WithLogger(l zerolog.Logger) Option {
	return func(h *Hub) { h.log = l }
}

// WithTickRate sets how many steps run per wall-clock second.
func WithTickRate(hz int) Option {
	return func(h *Hub) {
		if hz > 0 {
			h.tickHz = hz
		}
	}
}

func NewHub(sys *physics.System, name string, dt float64, opts ...Option) *Hub {
	h := &Hub{
		Inbox:   make(chan any, 256),
		sys:     sys,
		name:    name,
		dt:      dt,
		tickHz:  DefaultTickHz,
		log:     zerolog.Nop(),
		clients: make(map[int]Conn),
		nextID:  1,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.broadcastEvery = h.tickHz / BroadcastHz
	if h.broadcastEvery <= 0 {
		h.broadcastEvery = 1
	}
	return h
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) NumClients() int { return len(h.clients) }

// Run steps the system and serves the inbox until ctx is canceled, then
// closes every client. Run must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.closeAll()

	ticker := time.NewTicker(time.Second / time.Duration(h.tickHz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.Inbox:
			h.handle(msg)
		case <-ticker.C:
			h.advance()
		}
	}
}

func (h *Hub) advance() {
	if h.halted {
		return
	}
	if err := h.sys.Step(h.dt); err != nil {
		h.halted = true
		h.log.Warn().Err(err).Int("tick", h.tick).Msg("step failed, halting")
		h.broadcast(MsgError, Error{Message: err.Error()})
		return
	}
	h.tick++
	h.t += h.dt
	if !h.sys.Valid() {
		h.halted = true
		h.log.Warn().Int("tick", h.tick).Float64("t", h.t).Msg("state diverged, halting")
		h.broadcast(MsgError, Error{Message: sim.ErrUnstable.Error()})
		return
	}
	if h.tick%h.broadcastEvery == 0 {
		h.broadcast(MsgState, h.snapshot())
	}
}

func (h *Hub) handle(msg any) {
	switch m := msg.(type) {
	case Join:
		id := h.nextID
		h.nextID++
		h.clients[id] = m.Conn
		h.log.Debug().Int("client", id).Msg("client joined")
		h.sendTo(id, MsgWelcome, h.welcome(id))
		if h.sys.Valid() {
			h.sendTo(id, MsgState, h.snapshot())
		} else {
			h.sendTo(id, MsgError, Error{Message: sim.ErrUnstable.Error()})
		}
		m.Reply <- id
	case Leave:
		if c, ok := h.clients[m.ID]; ok {
			_ = c.Close()
			delete(h.clients, m.ID)
			h.log.Debug().Int("client", m.ID).Msg("client left")
		}
	case Command:
		if _, ok := h.clients[m.ID]; !ok {
			return
		}
		if m.Event.Action == ActionResume {
			h.halted = false
			return
		}
		if err := automation.ApplyEvent(h.sys, m.Event); err != nil {
			h.sendTo(m.ID, MsgError, Error{Message: err.Error()})
			return
		}
		h.log.Debug().Int("client", m.ID).Str("action", m.Event.Action).Msg("command applied")
	}
}

func (h *Hub) welcome(id int) Welcome {
	w := Welcome{
		ClientID: id,
		Name:     h.name,
		TickHz:   h.tickHz,
		Dt:       h.dt,
		Bodies:   make([]BodyInfo, h.sys.Len()),
		Springs:  make([]SpringSnapshot, 0, len(h.sys.Springs())),
	}
	for i, b := range h.sys.Bodies() {
		w.Bodies[i] = BodyInfo{Label: b.Label, Mass: b.Mass, Radius: b.Radius}
	}
	for _, sp := range h.sys.Springs() {
		w.Springs = append(w.Springs, SpringSnapshot{A: int(sp.A), B: int(sp.B), K: sp.K})
	}
	return w
}

func (h *Hub) snapshot() State {
	s := State{
		Tick:          h.tick,
		Time:          h.t,
		Running:       !h.halted,
		KineticEnergy: h.sys.KineticEnergy(),
		Repulsion:     h.sys.Params.Repulsion,
		Friction:      h.sys.Params.Friction,
		Bodies:        make([]BodySnapshot, h.sys.Len()),
	}
	for i, b := range h.sys.Bodies() {
		s.Bodies[i] = BodySnapshot{
			X:      b.Position.X,
			Y:      b.Position.Y,
			Color:  b.Color.Clamped().Hex(),
			Locked: b.Locked,
		}
	}
	return s
}

func (h *Hub) sendTo(id int, t string, payload any) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	b, err := Encode(t, payload)
	if err != nil {
		h.log.Error().Err(err).Msg("encode failed")
		return
	}
	if err := c.Send(b); err != nil {
		h.drop(id)
	}
}

func (h *Hub) broadcast(t string, payload any) {
	if len(h.clients) == 0 {
		return
	}
	b, err := Encode(t, payload)
	if err != nil {
		h.log.Error().Err(err).Msg("encode failed")
		return
	}

	var failed []int
	for id, c := range h.clients {
		if err := c.Send(b); err != nil {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		h.drop(id)
	}
}

func (h *Hub) drop(id int) {
	if c, ok := h.clients[id]; ok {
		_ = c.Close()
		delete(h.clients, id)
		h.log.Debug().Int("client", id).Msg("dropped client after failed send")
	}
}

func (h *Hub) closeAll() {
	for id, c := range h.clients {
		_ = c.Close()
		delete(h.clients, id)
	}
}
