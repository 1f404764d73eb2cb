package ipc

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanaroSch/fast-forward/internal/apps"
)

type fakeHelper struct {
	done  chan struct{}
	once  sync.Once
	kills atomic.Int32
}

func newFakeHelper() *fakeHelper {
	return &fakeHelper{done: make(chan struct{})}
}

func (h *fakeHelper) Done() <-chan struct{} { return h.done }

func (h *fakeHelper) Kill() error {
	h.kills.Add(1)
	h.exit()
	return nil
}

func (h *fakeHelper) exit() { h.once.Do(func() { close(h.done) }) }

// pipeDialer hands out the client ends of net.Pipe pairs and exposes the server ends.
type pipeDialer struct {
	servers chan net.Conn
}

func newPipeDialer() *pipeDialer {
	return &pipeDialer{servers: make(chan net.Conn, 4)}
}

func (d *pipeDialer) dial(ctx context.Context, path string) (net.Conn, error) {
	client, server := net.Pipe()
	d.servers <- server
	return client, nil
}

func writeMessage(t *testing.T, conn net.Conn, m Message) {
	t.Helper()
	payload, err := Encode(m)
	require.NoError(t, err)
	go func() { _ = WriteFrame(conn, payload) }()
}

func TestClientReconnectsAfterFailures(t *testing.T) {
	const failures = 3
	const delay = 20 * time.Millisecond

	var (
		mu       sync.Mutex
		attempts []time.Time
	)
	launch := func(ctx context.Context) (Helper, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts = append(attempts, time.Now())
		if len(attempts) <= failures {
			return nil, errors.New("helper binary missing")
		}
		return newFakeHelper(), nil
	}

	published := make(chan Message, 8)
	dialer := newPipeDialer()
	c := NewClient(ClientConfig{ReconnectDelay: delay}, launch, func(m Message) { published <- m })
	c.SetDialer(dialer.dial)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- c.Run(ctx) }()

	var server net.Conn
	select {
	case server = <-dialer.servers:
	case <-time.After(2 * time.Second):
		t.Fatal("client never dialed")
	}
	assert.Empty(t, published, "nothing may be published before the first decoded frame")

	want := Launched{Entry: apps.Entry{Name: "Mail", PID: 7}}
	writeMessage(t, server, want)

	select {
	case got := <-published:
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatal("message not published")
	}

	mu.Lock()
	require.Len(t, attempts, failures+1)
	for i := 1; i < len(attempts); i++ {
		assert.GreaterOrEqual(t, attempts[i].Sub(attempts[i-1]), delay)
	}
	mu.Unlock()

	cancel()
	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestClientDropsConnectionOnBadPayload(t *testing.T) {
	helpers := make(chan *fakeHelper, 4)
	launch := func(ctx context.Context) (Helper, error) {
		h := newFakeHelper()
		helpers <- h
		return h, nil
	}

	published := make(chan Message, 8)
	dialer := newPipeDialer()
	c := NewClient(ClientConfig{ReconnectDelay: 10 * time.Millisecond}, launch, func(m Message) { published <- m })
	c.SetDialer(dialer.dial)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()

	first := <-helpers
	server := <-dialer.servers

	go func() {
		payload, _ := Encode(Activated{Entry: apps.Entry{Name: "Safari", PID: 1}})
		_ = WriteFrame(server, payload)
		_ = WriteFrame(server, []byte{0xff, 0xff, 0xff})
	}()

	select {
	case got := <-published:
		assert.Equal(t, Activated{Entry: apps.Entry{Name: "Safari", PID: 1}}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("valid frame not published")
	}

	// The bad frame ends the session: helper killed, new attempt started.
	select {
	case <-helpers:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not reconnect after a bad frame")
	}
	assert.Equal(t, int32(1), first.kills.Load())
	assert.Empty(t, published)
}

func TestClientReconnectsWhenHelperExits(t *testing.T) {
	helpers := make(chan *fakeHelper, 4)
	launch := func(ctx context.Context) (Helper, error) {
		h := newFakeHelper()
		helpers <- h
		return h, nil
	}

	dialer := newPipeDialer()
	c := NewClient(ClientConfig{ReconnectDelay: 10 * time.Millisecond}, launch, func(Message) {})
	c.SetDialer(dialer.dial)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()

	first := <-helpers
	<-dialer.servers
	first.exit()

	select {
	case <-helpers:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not relaunch the helper")
	}
}

func TestClientKillsHelperOnShutdown(t *testing.T) {
	helpers := make(chan *fakeHelper, 1)
	launch := func(ctx context.Context) (Helper, error) {
		h := newFakeHelper()
		helpers <- h
		return h, nil
	}
	dialer := newPipeDialer()
	c := NewClient(ClientConfig{}, launch, func(Message) {})
	c.SetDialer(dialer.dial)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- c.Run(ctx) }()

	h := <-helpers
	<-dialer.servers
	cancel()

	require.ErrorIs(t, <-result, context.Canceled)
	assert.Equal(t, int32(1), h.kills.Load())
}

func TestReconnectDelay(t *testing.T) {
	c := NewClient(ClientConfig{}, nil, nil)
	assert.Equal(t, DefaultReconnectDelay, c.ReconnectDelay())

	c.SetReconnectDelay(time.Second)
	assert.Equal(t, time.Second, c.ReconnectDelay())

	c.SetReconnectDelay(0)
	assert.Equal(t, DefaultReconnectDelay, c.ReconnectDelay())
}
