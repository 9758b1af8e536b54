package handler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tango-chat-app/dto"
)

type fakeConn struct {
	mu      sync.Mutex
	written []any
	failAt  int
	closed  bool
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAt > 0 && len(c.written)+1 == c.failAt {
		return errors.New("broken pipe")
	}
	c.written = append(c.written, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.written)
}

func TestClient_SendIsNonBlocking(t *testing.T) {
	client := NewClient("alice", &fakeConn{})

	for i := 0; i < sendBuffer; i++ {
		require.True(t, client.Send(dto.Envelope{Event: "fill"}))
	}
	assert.False(t, client.Send(dto.Envelope{Event: "overflow"}))

	client.Close()
	client.Close()
	assert.False(t, client.Send(dto.Envelope{Event: "closed"}))
}

func TestClient_WritePumpDeliversInOrder(t *testing.T) {
	conn := &fakeConn{}
	client := NewClient("alice", conn)
	done := make(chan struct{})
	go func() {
		client.WritePump(nil)
		close(done)
	}()

	client.Send(dto.Envelope{Event: "one"})
	client.Send(dto.Envelope{Event: "two"})
	assert.Eventually(t, func() bool { return conn.count() == 2 }, time.Second, 5*time.Millisecond)

	client.Close()
	<-done
	assert.True(t, conn.closed)
	assert.Equal(t, "one", conn.written[0].(dto.Envelope).Event)
	assert.Equal(t, "two", conn.written[1].(dto.Envelope).Event)
}

func TestClient_WriteErrorStopsPump(t *testing.T) {
	conn := &fakeConn{failAt: 1}
	client := NewClient("alice", conn)
	var reported error
	done := make(chan struct{})
	go func() {
		client.WritePump(func(err error) { reported = err })
		close(done)
	}()

	client.Send(dto.Envelope{Event: "one"})
	<-done
	assert.Error(t, reported)
	assert.False(t, client.Send(dto.Envelope{Event: "two"}))
	assert.True(t, conn.closed)
}
