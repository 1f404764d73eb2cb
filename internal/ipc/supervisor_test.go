package ipc

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell helpers are not available on windows")
	}
	path := filepath.Join(t.TempDir(), "helper.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestLaunchWaitsForReadyLine(t *testing.T) {
	path := writeScript(t, "echo starting\necho 'Socket bound successfully'\nexec sleep 30\n")
	s := NewSupervisor(SupervisorConfig{Path: path})

	p, err := s.Launch(context.Background())
	require.NoError(t, err)

	select {
	case <-p.Done():
		t.Fatal("helper exited right after becoming ready")
	default:
	}
	assert.Positive(t, p.PID())

	require.NoError(t, p.Kill())
	require.NoError(t, p.Kill(), "Kill must be idempotent")
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done not closed after Kill")
	}
}

func TestLaunchFailsWhenHelperExitsEarly(t *testing.T) {
	path := writeScript(t, "echo 'permission denied'\nexit 3\n")
	s := NewSupervisor(SupervisorConfig{Path: path})

	_, err := s.Launch(context.Background())
	assert.ErrorIs(t, err, ErrHelperExited)
}

func TestLaunchTimesOut(t *testing.T) {
	path := writeScript(t, "exec sleep 30\n")
	s := NewSupervisor(SupervisorConfig{Path: path, ReadyTimeout: 100 * time.Millisecond})

	start := time.Now()
	_, err := s.Launch(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrHelperExited)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestLaunchHonoursContext(t *testing.T) {
	path := writeScript(t, "exec sleep 30\n")
	s := NewSupervisor(SupervisorConfig{Path: path})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := s.Launch(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLaunchStripsLoaderVariables(t *testing.T) {
	out := filepath.Join(t.TempDir(), "env.txt")
	path := writeScript(t, "env > '"+out+"'\necho 'Socket bound successfully'\nexec sleep 30\n")
	t.Setenv("DYLD_LIBRARY_PATH", "/evil")
	t.Setenv("LD_LIBRARY_PATH", "/evil")
	t.Setenv("FASTFORWARD_TEST_MARKER", "kept")

	p, err := NewSupervisor(SupervisorConfig{Path: path}).Launch(context.Background())
	require.NoError(t, err)
	defer p.Kill()

	env, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(env), "DYLD_LIBRARY_PATH")
	assert.NotContains(t, string(env), "LD_LIBRARY_PATH")
	assert.Contains(t, string(env), "FASTFORWARD_TEST_MARKER=kept")
}

func TestLaunchInstallsPayload(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell helpers are not available on windows")
	}
	path := filepath.Join(t.TempDir(), "fast-forward-monitor")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	payload := []byte("#!/bin/sh\necho 'Socket bound successfully'\nexec sleep 30\n")
	p, err := NewSupervisor(SupervisorConfig{Path: path, Payload: payload}).Launch(context.Background())
	require.NoError(t, err)
	defer p.Kill()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestHelperEnv(t *testing.T) {
	got := helperEnv([]string{
		"HOME=/Users/me",
		"DYLD_LIBRARY_PATH=/x",
		"DYLD_INSERT_LIBRARIES=/y",
		"LD_LIBRARY_PATH=/z",
		"DYLD_LIBRARY_PATH_EXTRA=keep",
	})
	assert.Equal(t, []string{"HOME=/Users/me", "DYLD_LIBRARY_PATH_EXTRA=keep"}, got)
}

func TestKillDoesNotWaitForForkedChildren(t *testing.T) {
	path := writeScript(t, "sleep 30 &\necho 'Socket bound successfully'\nexec sleep 30\n")
	p, err := NewSupervisor(SupervisorConfig{Path: path}).Launch(context.Background())
	require.NoError(t, err)

	killed := make(chan error, 1)
	go func() { killed <- p.Kill() }()

	select {
	case err := <-killed:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Kill blocked while a forked child held the helper's stdout")
	}
	select {
	case <-p.Done():
	default:
		t.Fatal("Done not closed after Kill returned")
	}
}

func TestKillAfterHelperExited(t *testing.T) {
	path := writeScript(t, "echo 'Socket bound successfully'\nsleep 0.1\n")
	p, err := NewSupervisor(SupervisorConfig{Path: path}).Launch(context.Background())
	require.NoError(t, err)

	select {
	case <-p.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("helper did not exit")
	}
	assert.NoError(t, p.Kill())
}
