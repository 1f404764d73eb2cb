package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync/atomic"
	"time"
)

const (
	// DefaultSocketPath is where the helper listens.
	DefaultSocketPath = "/tmp/swift_monitor.sock"
	// DefaultReconnectDelay separates two connection attempts.
	DefaultReconnectDelay = 5 * time.Second
)

// Helper is the part of a supervised helper process the client relies on.
type Helper interface {
	Done() <-chan struct{}
	Kill() error
}

// LauncherFunc starts a helper and returns once it is ready for connections.
type LauncherFunc func(ctx context.Context) (Helper, error)

// DialFunc connects to the helper socket.
type DialFunc func(ctx context.Context, path string) (net.Conn, error)

// Launcher adapts s to the client.
func (s *Supervisor) Launcher() LauncherFunc {
	return func(ctx context.Context) (Helper, error) {
		p, err := s.Launch(ctx)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

func dialUnix(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", path)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	SocketPath     string
	ReconnectDelay time.Duration
}

// Client keeps a connection to the helper alive and publishes every decoded message.
type Client struct {
	socketPath string
	backoff    atomic.Int64
	launch     LauncherFunc
	dial       DialFunc
	publish    func(Message)
}

// NewClient creates a client. publish is called from the client goroutine and must
// not block.
func NewClient(cfg ClientConfig, launch LauncherFunc, publish func(Message)) *Client {
	if cfg.SocketPath == "" {
		cfg.SocketPath = DefaultSocketPath
	}
	c := &Client{
		socketPath: cfg.SocketPath,
		launch:     launch,
		dial:       dialUnix,
		publish:    publish,
	}
	c.SetReconnectDelay(cfg.ReconnectDelay)
	return c
}

// SetDialer replaces the unix socket dialer.
func (c *Client) SetDialer(dial DialFunc) {
	c.dial = dial
}

// SetReconnectDelay changes the delay between sessions. It takes effect at the next
// reconnect and is safe to call while Run is active.
func (c *Client) SetReconnectDelay(d time.Duration) {
	if d <= 0 {
		d = DefaultReconnectDelay
	}
	c.backoff.Store(int64(d))
}

// ReconnectDelay returns the current delay between sessions.
func (c *Client) ReconnectDelay() time.Duration {
	return time.Duration(c.backoff.Load())
}

// Run connects, reads messages until the session fails, waits the reconnect delay and
// starts over. It only returns when ctx is cancelled; the helper is killed first.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			log.Println("Socket client: stopped")
			return ctx.Err()
		}
		delay := c.ReconnectDelay()
		log.Printf("Socket client: connection lost: %v (reconnecting in %s)", err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("Socket client: stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session runs one launch, connect, read cycle. It always returns a non-nil error.
func (c *Client) session(ctx context.Context) error {
	helper, err := c.launch(ctx)
	if err != nil {
		return fmt.Errorf("failed to launch helper: %w", err)
	}
	defer func() {
		if err := helper.Kill(); err != nil {
			log.Printf("Socket client: %v", err)
		}
	}()

	conn, err := c.dial(ctx, c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to '%s': %w", c.socketPath, err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-helper.Done():
		case <-ctx.Done():
		case <-stop:
			return
		}
		conn.Close()
	}()

	log.Printf("Socket client: connected to '%s'", c.socketPath)
	for {
		payload, err := ReadFrame(conn)
		if err != nil {
			select {
			case <-helper.Done():
				return ErrHelperExited
			default:
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("helper closed the connection: %w", err)
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}
		msg, err := Decode(payload)
		if err != nil {
			return err
		}
		c.publish(msg)
	}
}
