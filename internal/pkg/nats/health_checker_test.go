package nats

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tsu-battle/internal/pkg/log"
)

type fakeConn struct {
	connected atomic.Bool
	closed    atomic.Bool
}

func (c *fakeConn) IsConnected() bool { return c.connected.Load() }
func (c *fakeConn) IsClosed() bool    { return c.closed.Load() }

func TestHealthChecker_Check(t *testing.T) {
	conn := &fakeConn{}
	conn.connected.Store(true)
	hc := NewHealthChecker(conn, time.Second, log.NewNopLogger())
	assert.True(t, hc.IsHealthy())

	conn.connected.Store(false)
	assert.False(t, hc.Check())
	assert.False(t, hc.IsHealthy())

	conn.connected.Store(true)
	conn.closed.Store(true)
	assert.False(t, hc.Check())

	conn.closed.Store(false)
	assert.True(t, hc.Check())
}

func TestHealthChecker_NilConn(t *testing.T) {
	hc := NewHealthChecker(nil, 0, log.NewNopLogger())
	assert.False(t, hc.IsHealthy())
}

func TestHealthChecker_WaitForHealthy(t *testing.T) {
	conn := &fakeConn{}
	hc := NewHealthChecker(conn, time.Second, log.NewNopLogger())

	go func() {
		time.Sleep(150 * time.Millisecond)
		conn.connected.Store(true)
	}()
	assert.True(t, hc.WaitForHealthy(context.Background(), 2*time.Second))
}

func TestHealthChecker_WaitTimesOut(t *testing.T) {
	hc := NewHealthChecker(&fakeConn{}, time.Second, log.NewNopLogger())
	assert.False(t, hc.WaitForHealthy(context.Background(), 200*time.Millisecond))
}

func TestHealthChecker_StopTwice(t *testing.T) {
	hc := NewHealthChecker(&fakeConn{}, 10*time.Millisecond, log.NewNopLogger())
	done := make(chan struct{})
	go func() {
		hc.Start(context.Background())
		close(done)
	}()
	hc.Stop()
	hc.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("health checker did not stop")
	}
}
