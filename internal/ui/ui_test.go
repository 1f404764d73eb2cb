package ui

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanaroSch/fast-forward/internal/apps"
	"github.com/TanaroSch/fast-forward/internal/config"
	"github.com/TanaroSch/fast-forward/internal/intent"
)

func TestOpenCommand(t *testing.T) {
	tests := []struct {
		goos, target, app string
		want              []string
	}{
		{"darwin", "/cfg/config.toml", "TextEdit", []string{"open", "-a", "TextEdit", "/cfg/config.toml"}},
		{"darwin", "https://example.com", "", []string{"open", "https://example.com"}},
		{"linux", "/cfg/config.toml", "TextEdit", []string{"xdg-open", "/cfg/config.toml"}},
		{"windows", "https://example.com", "", []string{"rundll32", "url.dll,FileProtocolHandler", "https://example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.goos+" "+tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, openCommand(tt.goos, tt.target, tt.app).Args)
		})
	}
}

func stubStart(t *testing.T, err error) *[]*exec.Cmd {
	t.Helper()
	var started []*exec.Cmd
	orig := startCommand
	startCommand = func(cmd *exec.Cmd) error {
		started = append(started, cmd)
		return err
	}
	t.Cleanup(func() { startCommand = orig })
	return &started
}

// useNotifications installs a global manager that records instead of notifying.
func useNotifications(t *testing.T, enabled bool) *[]string {
	t.Helper()
	var shown []string
	n := NewNotificationManager(enabled, "Fast Forward", "")
	n.notify = func(title, message, _ string) error {
		shown = append(shown, title+": "+message)
		return nil
	}
	globalMu.Lock()
	prev := globalNotificationManager
	globalNotificationManager = n
	globalMu.Unlock()
	t.Cleanup(func() {
		globalMu.Lock()
		globalNotificationManager = prev
		globalMu.Unlock()
	})
	return &shown
}

func TestOpenerFailureIsSilentByDefault(t *testing.T) {
	started := stubStart(t, errors.New("no such program"))
	shown := useNotifications(t, config.Default().General.Notifications)

	o := Opener{ConfigPath: "/cfg/config.toml", Editor: "TextEdit", AboutURL: "https://example.com"}
	assert.ErrorContains(t, o.OpenSettings(), "no such program")
	assert.ErrorContains(t, o.OpenAbout(), "no such program")

	assert.Len(t, *started, 2)
	assert.Empty(t, *shown)
}

func TestOpenerNotifiesWhenEnabled(t *testing.T) {
	stubStart(t, errors.New("no such program"))
	shown := useNotifications(t, true)

	o := Opener{ConfigPath: "/cfg/config.toml", Editor: "TextEdit", AboutURL: "https://example.com"}
	assert.Error(t, o.OpenSettings())
	assert.Error(t, o.OpenAbout())

	require.Len(t, *shown, 2)
	assert.Contains(t, (*shown)[0], "Could not open settings")
	assert.Contains(t, (*shown)[1], "Could not open https://example.com")
}

func TestOpenerSucceeds(t *testing.T) {
	started := stubStart(t, nil)

	o := Opener{ConfigPath: "/cfg/config.toml", Editor: "TextEdit", AboutURL: "https://example.com"}
	require.NoError(t, o.OpenSettings())
	require.NoError(t, o.OpenAbout())
	assert.Len(t, *started, 2)
}

func TestNotificationManagerRespectsEnabled(t *testing.T) {
	calls := 0
	n := NewNotificationManager(false, "Fast Forward", "")
	n.notify = func(title, _, _ string) error {
		calls++
		assert.Equal(t, "Fast Forward", title)
		return nil
	}

	n.ShowNotification("", "hidden")
	assert.Equal(t, 0, calls)

	n.SetEnabled(true)
	n.ShowNotification("", "shown")
	assert.Equal(t, 1, calls)
}

func TestTrayClickSendsIntent(t *testing.T) {
	var got []intent.Intent
	tray := NewTray("test", nil, func(in intent.Intent) bool {
		got = append(got, in)
		return true
	}, nil)

	clicked := make(chan struct{}, 2)
	clicked <- struct{}{}
	clicked <- struct{}{}
	close(clicked)
	tray.forward(trayMenu[0], clicked)
	tray.click(trayMenu[3])

	assert.Equal(t, []intent.Intent{intent.OpenSettings{}, intent.OpenSettings{}, intent.Quit{}}, got)
}

func TestTrayMenuEmitsOnlySettingsAboutQuit(t *testing.T) {
	var intents []intent.Intent
	for _, item := range trayMenu {
		if item.intent != nil {
			intents = append(intents, item.intent)
		}
	}
	assert.Equal(t, []intent.Intent{intent.OpenSettings{}, intent.OpenAbout{}, intent.Quit{}}, intents)
}

func TestHeadlessWindow(t *testing.T) {
	r := apps.NewRegistry(apps.DefaultFilterOptions())
	r.ReplaceAll([]apps.Entry{{Name: "Safari", PID: 1}})
	w := NewHeadlessWindow(r)

	assert.NoError(t, w.Show(0))
	assert.NoError(t, w.Hide())
}

func TestHeadlessWindowRerendersWhileVisible(t *testing.T) {
	r := apps.NewRegistry(apps.DefaultFilterOptions())
	w := NewHeadlessWindow(r)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	r.ReplaceAll([]apps.Entry{{Name: "Safari", PID: 1}, {Name: "Mail", PID: 2}})
	assert.Eventually(t, func() bool { return len(r.Changes()) == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, w.renders.Load(), "hidden window rendered")

	require.NoError(t, w.Show(0))
	r.SetQuery("saf")
	assert.Eventually(t, func() bool { return w.renders.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
