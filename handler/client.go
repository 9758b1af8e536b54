package handler

import (
	"sync"

	"tango-chat-app/dto"
)

const sendBuffer = 64

// FrameWriter is the write side of a websocket connection.
type FrameWriter interface {
	WriteJSON(v any) error
	Close() error
}

// Client is one websocket session. Only its writer goroutine touches the
// connection's write side; everyone else goes through Send.
type Client struct {
	userID string
	conn   FrameWriter
	send   chan dto.Envelope
	done   chan struct{}
	once   sync.Once
}

func NewClient(userID string, conn FrameWriter) *Client {
	return &Client{
		userID: userID,
		conn:   conn,
		send:   make(chan dto.Envelope, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *Client) UserID() string {
	return c.userID
}

// Send queues envelope without blocking. It fails once the client is closed
// or its buffer is full.
func (c *Client) Send(envelope dto.Envelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- envelope:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

// WritePump drains the queue into the connection until the client is closed
// or a write fails.
func (c *Client) WritePump(onError func(error)) {
	defer func() {
		c.Close()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case envelope := <-c.send:
			if err := c.conn.WriteJSON(envelope); err != nil {
				if onError != nil {
					onError(err)
				}
				return
			}
		}
	}
}
