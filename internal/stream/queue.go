package stream

import (
	"errors"
	"sync"
)

const sendQueueSize = 64

var (
	ErrSlowClient  = errors.New("stream: client send queue full")
	errQueueClosed = errors.New("stream: connection closed")
)

// queue decouples the hub from a blocking Conn. Send never blocks: it fails
// with ErrSlowClient once size frames are waiting, and the hub drops the
// client. A single pump goroutine owns every write to the wrapped Conn.
type queue struct {
	conn Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newQueue(c Conn, size int) *queue {
	q := &queue{
		conn: c,
		send: make(chan []byte, size),
		done: make(chan struct{}),
	}
	go q.pump()
	return q
}

func (q *queue) Send(b []byte) error {
	select {
	case <-q.done:
		return errQueueClosed
	default:
	}
	select {
	case q.send <- b:
		return nil
	default:
		return ErrSlowClient
	}
}

// Close stops the pump; frames still queued are discarded.
func (q *queue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}

func (q *queue) pump() {
	defer q.conn.Close()
	for {
		select {
		case <-q.done:
			return
		default:
		}
		select {
		case <-q.done:
			return
		case b := <-q.send:
			if err := q.conn.Send(b); err != nil {
				q.Close()
				return
			}
		}
	}
}
