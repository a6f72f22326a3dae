package server

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

// fakeConn 基于 channel 的 PeerConn：in 模拟客户端发来的负载，out 收集发给客户端的负载
type fakeConn struct {
	addr string
	in   chan Payload
	out  chan Payload

	mu      sync.Mutex
	closed  bool
	recvErr error
}

func newFakeConn(addr string) *fakeConn {
	return &fakeConn{
		addr: addr,
		in:   make(chan Payload, 64),
		out:  make(chan Payload, 1024),
	}
}

func (f *fakeConn) Recv() (Payload, error) {
	f.mu.Lock()
	closed, recvErr := f.closed, f.recvErr
	f.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("%w: closed", ErrFatal)
	}
	if recvErr != nil {
		return nil, recvErr
	}
	select {
	case p := <-f.in:
		return p, nil
	default:
		return nil, ErrTransient
	}
}

func (f *fakeConn) Send(p Payload) error {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return fmt.Errorf("%w: closed", ErrFatal)
	}
	f.out <- p
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) RemoteAddr() string { return f.addr }

// fail 之后每次 Recv 都返回 err
func (f *fakeConn) fail(err error) {
	f.mu.Lock()
	f.recvErr = err
	f.mu.Unlock()
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type mockConn struct {
	mock.Mock
}

func (m *mockConn) Send(p Payload) error {
	args := m.Called(p)
	return args.Error(0)
}

func (m *mockConn) Recv() (Payload, error) {
	args := m.Called()
	p, _ := args.Get(0).(Payload)
	return p, args.Error(1)
}

func (m *mockConn) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockConn) RemoteAddr() string { return "mock" }

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.GridWidth = 16
	cfg.GridHeight = 16
	cfg.LogFile = ""
	cfg.HandshakeTimeout = time.Second
	return cfg
}

func recvPayload(t *testing.T, ch <-chan Payload) Payload {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for payload")
		return nil
	}
}

func delta(entries ...DeltaEntry) *Delta {
	return &Delta{Entries: entries}
}

func move(id int, x, y float64) DeltaEntry {
	return DeltaEntry{PlayerID: id, Change: Vec2{X: x, Y: y}}
}
