package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultReadyLine is printed by the helper once its socket is listening.
	DefaultReadyLine = "Socket bound successfully"
	// DefaultReadyTimeout bounds the wait for DefaultReadyLine.
	DefaultReadyTimeout = 10 * time.Second
)

// ErrHelperExited is returned when the helper terminates unexpectedly.
var ErrHelperExited = errors.New("helper exited")

// strippedEnv lists variables that must not leak from the host process into the helper.
var strippedEnv = []string{"DYLD_LIBRARY_PATH", "DYLD_INSERT_LIBRARIES", "LD_LIBRARY_PATH"}

// SupervisorConfig describes how to install and start the helper.
type SupervisorConfig struct {
	Path         string        // executable to run
	Payload      []byte        // when non-empty, written to Path (mode 0755) before every launch
	ReadyLine    string        // substring of the stdout line that signals readiness
	ReadyTimeout time.Duration // zero means DefaultReadyTimeout
}

// Supervisor launches helper processes.
type Supervisor struct {
	cfg SupervisorConfig
}

// NewSupervisor creates a supervisor, filling unset fields with defaults.
func NewSupervisor(cfg SupervisorConfig) *Supervisor {
	if cfg.ReadyLine == "" {
		cfg.ReadyLine = DefaultReadyLine
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	return &Supervisor{cfg: cfg}
}

// Launch installs the payload, starts the helper and waits until it prints the ready
// line. On any failure the process is killed before Launch returns.
func (s *Supervisor) Launch(ctx context.Context) (*Process, error) {
	if len(s.cfg.Payload) > 0 {
		if err := InstallPayload(s.cfg.Path, s.cfg.Payload); err != nil {
			return nil, err
		}
	}

	cmd := exec.Command(s.cfg.Path)
	cmd.Env = helperEnv(os.Environ())
	cmd.Stderr = os.Stderr
	ownProcessGroup(cmd)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to pipe helper stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start helper '%s': %w", s.cfg.Path, err)
	}
	log.Printf("Helper: started '%s' (pid %d)", s.cfg.Path, cmd.Process.Pid)

	p := &Process{cmd: cmd, done: make(chan struct{})}
	ready := make(chan struct{})

	// Reaping does not wait for the reader: anything the helper forked may keep
	// stdout open after the helper itself is gone. Wait closes the pipe, which
	// ends the reader.
	go func() {
		p.exit(cmd.Wait())
	}()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("RECOVERED FROM PANIC IN HELPER READER: %v", r)
			}
		}()

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		signalled := false
		for scanner.Scan() {
			line := scanner.Text()
			log.Printf("Helper: %s", line)
			if !signalled && strings.Contains(line, s.cfg.ReadyLine) {
				signalled = true
				close(ready)
			}
		}
	}()

	timer := time.NewTimer(s.cfg.ReadyTimeout)
	defer timer.Stop()

	select {
	case <-ready:
		return p, nil
	case <-p.Done():
		return nil, fmt.Errorf("%w before becoming ready: %v", ErrHelperExited, p.Err())
	case <-timer.C:
		_ = p.Kill()
		return nil, fmt.Errorf("helper not ready after %s", s.cfg.ReadyTimeout)
	case <-ctx.Done():
		_ = p.Kill()
		return nil, ctx.Err()
	}
}

// Process is a running helper.
type Process struct {
	cmd      *exec.Cmd
	done     chan struct{}
	err      error
	killOnce sync.Once
	killErr  error
}

// Done is closed once the helper has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Err returns the exit error after Done is closed.
func (p *Process) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// PID returns the operating system process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Kill terminates the helper together with every process it started and waits
// for the helper to be reaped. Calling it more than once, or after the helper
// exited on its own, is safe.
func (p *Process) Kill() error {
	p.killOnce.Do(func() {
		if err := killProcessGroup(p.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.killErr = fmt.Errorf("failed to kill helper: %w", err)
		}
		<-p.done
	})
	return p.killErr
}

func (p *Process) exit(err error) {
	p.err = err
	close(p.done)
}

// InstallPayload replaces path with payload and makes it executable.
func InstallPayload(path string, payload []byte) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove old helper '%s': %w", path, err)
	}
	if err := os.WriteFile(path, payload, 0755); err != nil {
		return fmt.Errorf("failed to write helper '%s': %w", path, err)
	}
	// WriteFile is subject to the umask.
	if err := os.Chmod(path, 0755); err != nil {
		return fmt.Errorf("failed to make helper '%s' executable: %w", path, err)
	}
	return nil
}

func helperEnv(environ []string) []string {
	out := make([]string, 0, len(environ))
	for _, kv := range environ {
		stripped := false
		for _, name := range strippedEnv {
			if strings.HasPrefix(kv, name+"=") {
				stripped = true
				break
			}
		}
		if !stripped {
			out = append(out, kv)
		}
	}
	return out
}
