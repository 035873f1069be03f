package network

import (
	"errors"
	"sync"
)

// ErrSendQueueFull is returned when a slow peer has fallen too far behind.
var ErrSendQueueFull = errors.New("send queue full")

// ErrConnectionClosed is returned by Send after Close.
var ErrConnectionClosed = errors.New("connection closed")

type outbound struct {
	msgID uint16
	data  []byte
}

// QueuedConnection wraps a Connection so Send only enqueues; one writer
// goroutine drains the queue. Room goroutines broadcast through it.
type QueuedConnection struct {
	Connection
	queue     chan outbound
	closeChan chan struct{}
	closeOnce sync.Once
	done      chan struct{}
	onError   func(error)
}

func NewQueuedConnection(conn Connection, size int, onError func(error)) *QueuedConnection {
	if size <= 0 {
		size = 256
	}
	q := &QueuedConnection{
		Connection: conn,
		queue:      make(chan outbound, size),
		closeChan:  make(chan struct{}),
		done:       make(chan struct{}),
		onError:    onError,
	}
	go q.writeLoop()
	return q
}

func (q *QueuedConnection) Send(msgID uint16, data []byte) error {
	select {
	case <-q.closeChan:
		return ErrConnectionClosed
	default:
	}
	select {
	case q.queue <- outbound{msgID: msgID, data: data}:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (q *QueuedConnection) writeLoop() {
	defer close(q.done)
	for {
		select {
		case msg := <-q.queue:
			if err := q.Connection.Send(msg.msgID, msg.data); err != nil {
				if q.onError != nil {
					q.onError(err)
				}
				return
			}
		case <-q.closeChan:
			// 尽量把已入队的消息写完
			for {
				select {
				case msg := <-q.queue:
					if q.Connection.Send(msg.msgID, msg.data) != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// Close stops the writer after it flushes, then closes the underlying connection.
func (q *QueuedConnection) Close() error {
	var err error
	q.closeOnce.Do(func() {
		close(q.closeChan)
		<-q.done
		err = q.Connection.Close()
	})
	return err
}
