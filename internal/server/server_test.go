package server

import (
	"context"
	"crypto/rand"
	"log"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/kyhwana/roughenough/internal/config"
	"github.com/kyhwana/roughenough/protocol"
)

// fakeAddr satisfies net.Addr for requests injected directly into the
// server's loop without going over a real socket.
type fakeAddr string

func (a fakeAddr) Network() string { return "fake" }
func (a fakeAddr) String() string  { return string(a) }

// fakeConn is a net.PacketConn double that lets the test script exactly
// the datagrams the server loop sees, including read-deadline timeouts
// (simulated by blocking until one is set and then elapses).
type fakeConn struct {
	mu       sync.Mutex
	inbox    []fakeDatagram
	sent     []fakeDatagram
	deadline time.Time
	closed   bool
	wake     chan struct{}
}

type fakeDatagram struct {
	payload []byte
	addr    net.Addr
}

func newFakeConn() *fakeConn {
	return &fakeConn{wake: make(chan struct{}, 1)}
}

func (c *fakeConn) push(payload []byte, addr net.Addr) {
	c.mu.Lock()
	c.inbox = append(c.inbox, fakeDatagram{payload, addr})
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *fakeConn) ReadFrom(p []byte) (int, net.Addr, error) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return 0, nil, net.ErrClosed
		}
		if len(c.inbox) > 0 {
			dg := c.inbox[0]
			c.inbox = c.inbox[1:]
			deadline := c.deadline
			c.mu.Unlock()
			if !deadline.IsZero() && time.Now().After(deadline) {
				return 0, nil, timeoutError{}
			}
			n := copy(p, dg.payload)
			return n, dg.addr, nil
		}
		deadline := c.deadline
		c.mu.Unlock()

		if !deadline.IsZero() {
			wait := time.Until(deadline)
			if wait <= 0 {
				return 0, nil, timeoutError{}
			}
			select {
			case <-c.wake:
				continue
			case <-time.After(wait):
				return 0, nil, timeoutError{}
			}
		}

		select {
		case <-c.wake:
			continue
		case <-time.After(2 * time.Second):
			return 0, nil, timeoutError{}
		}
	}
}

func (c *fakeConn) WriteTo(p []byte, addr net.Addr) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := append([]byte(nil), p...)
	c.sent = append(c.sent, fakeDatagram{buf, addr})
	return len(p), nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) LocalAddr() net.Addr { return fakeAddr("fake-server") }

func (c *fakeConn) SetDeadline(t time.Time) error { return nil }

func (c *fakeConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadline = t
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (c *fakeConn) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func testConfig() *config.Config {
	return &config.Config{
		Interface:         "127.0.0.1",
		Port:              2002,
		Seed:              make([]byte, config.SeedSize),
		BatchSize:         4,
		MaxBatchAge:       50 * time.Millisecond,
		RadiusMicros:      1_000_000,
		CertMaxTimeMicros: 1<<63 - 1,
		StatusInterval:    time.Hour,
	}
}

func TestServerFlushesOnBatchFull(t *testing.T) {
	conn := newFakeConn()
	cfg := testConfig()
	cfg.BatchSize = 2

	srv, err := New(conn, cfg, log.New(testWriter{t}, "", 0))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go srv.Run(ctx)
	defer cancel()

	_, req1, _ := protocol.CreateRequest(rand.Reader)
	_, req2, _ := protocol.CreateRequest(rand.Reader)
	conn.push(req1, fakeAddr("client-1"))
	conn.push(req2, fakeAddr("client-2"))

	deadline := time.Now().Add(2 * time.Second)
	for conn.sentCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if got := conn.sentCount(); got != 2 {
		t.Fatalf("got %d responses, want 2", got)
	}
}

func TestServerFlushesOnIdleDeadline(t *testing.T) {
	conn := newFakeConn()
	cfg := testConfig()
	cfg.BatchSize = 100
	cfg.MaxBatchAge = 20 * time.Millisecond

	srv, err := New(conn, cfg, log.New(testWriter{t}, "", 0))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go srv.Run(ctx)
	defer cancel()

	_, req, _ := protocol.CreateRequest(rand.Reader)
	conn.push(req, fakeAddr("client-1"))

	deadline := time.Now().Add(2 * time.Second)
	for conn.sentCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if got := conn.sentCount(); got != 1 {
		t.Fatalf("got %d responses, want 1 after idle deadline", got)
	}
}

func TestServerVerifiableResponse(t *testing.T) {
	conn := newFakeConn()
	cfg := testConfig()
	cfg.BatchSize = 1

	srv, err := New(conn, cfg, log.New(testWriter{t}, "", 0))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go srv.Run(ctx)
	defer cancel()

	nonce, req, _ := protocol.CreateRequest(rand.Reader)
	conn.push(req, fakeAddr("client-1"))

	deadline := time.Now().Add(2 * time.Second)
	for conn.sentCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if conn.sentCount() != 1 {
		t.Fatal("server never responded")
	}

	conn.mu.Lock()
	reply := conn.sent[0].payload
	conn.mu.Unlock()

	if _, _, err := protocol.VerifyReply(reply, srv.LongTermPublicKey(), nonce); err != nil {
		t.Fatalf("response failed verification: %v", err)
	}
}

// testWriter adapts *testing.T into an io.Writer for log.New.
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
