package stream

import (
	"errors"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// stalledConn blocks every Send until release is closed.
type stalledConn struct {
	release chan struct{}
	closed  chan struct{}
}

func newStalledConn() *stalledConn {
	return &stalledConn{release: make(chan struct{}), closed: make(chan struct{})}
}

func (s *stalledConn) Send([]byte) error {
	<-s.release
	return nil
}

func (s *stalledConn) Close() error {
	close(s.closed)
	return nil
}

type chanConn chan []byte

func (c chanConn) Send(b []byte) error {
	c <- b
	return nil
}

func (c chanConn) Close() error { return nil }

func TestQueue_DeliversInOrder(t *testing.T) {
	out := make(chanConn, 3)
	q := newQueue(out, 3)
	defer q.Close()

	for _, s := range []string{"a", "b", "c"} {
		if err := q.Send([]byte(s)); err != nil {
			t.Fatalf("send %s: %v", s, err)
		}
	}
	for _, want := range []string{"a", "b", "c"} {
		select {
		case got := <-out:
			if string(got) != want {
				t.Fatalf("got %q, want %q", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("frame not delivered")
		}
	}

	q.Close()
	if err := q.Send([]byte("late")); err == nil {
		t.Error("send after close should fail")
	}
}

func TestQueue_FullQueueFailsFast(t *testing.T) {
	sc := newStalledConn()
	q := newQueue(sc, 2)

	var err error
	for i := 0; i < 4 && err == nil; i++ {
		err = q.Send([]byte("x"))
	}
	if !errors.Is(err, ErrSlowClient) {
		t.Fatalf("err = %v, want %v", err, ErrSlowClient)
	}

	q.Close()
	close(sc.release)
	select {
	case <-sc.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("pump did not close the connection")
	}
}

func TestHub_StalledClientDoesNotBlockOthers(t *testing.T) {
	h := NewHub(pairSystem(t, r2.Vec{}, r2.Vec{X: 3}), "pair", 0.05)
	good := &fakeConn{}
	sc := newStalledConn()
	join(t, h, good)
	join(t, h, newQueue(sc, 2))
	good.sent = nil

	const broadcasts = 5
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < broadcasts*h.broadcastEvery; i++ {
			h.advance()
		}
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("stalled client blocked the hub")
	}

	if len(good.sent) != broadcasts {
		t.Errorf("healthy client got %d states, want %d", len(good.sent), broadcasts)
	}
	if h.NumClients() != 1 {
		t.Errorf("clients = %d, stalled client should be dropped", h.NumClients())
	}

	close(sc.release)
	select {
	case <-sc.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("dropped client was never closed")
	}
}
