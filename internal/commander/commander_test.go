package commander

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanaroSch/fast-forward/internal/apps"
	"github.com/TanaroSch/fast-forward/internal/intent"
	"github.com/TanaroSch/fast-forward/internal/ipc"
)

type fakeWindow struct {
	calls []string
	err   error
}

func (w *fakeWindow) Show(offset int) error {
	w.calls = append(w.calls, fmt.Sprintf("show %d", offset))
	return w.err
}

func (w *fakeWindow) Hide() error {
	w.calls = append(w.calls, "hide")
	return w.err
}

type fakeWorkspace struct {
	calls []string
	err   error
}

func (w *fakeWorkspace) Activate(pid int32) error  { return w.record("activate %d", pid) }
func (w *fakeWorkspace) Hide(pid int32) error      { return w.record("hide %d", pid) }
func (w *fakeWorkspace) Terminate(pid int32) error { return w.record("terminate %d", pid) }
func (w *fakeWorkspace) Launch(path string) error  { return w.record("launch %s", path) }

func (w *fakeWorkspace) record(format string, arg any) error {
	w.calls = append(w.calls, fmt.Sprintf(format, arg))
	return w.err
}

type fakeOpener struct {
	settings, about int
	err             error
}

func (o *fakeOpener) OpenSettings() error { o.settings++; return o.err }
func (o *fakeOpener) OpenAbout() error    { o.about++; return o.err }

type fixture struct {
	registry  *apps.Registry
	window    *fakeWindow
	workspace *fakeWorkspace
	opener    *fakeOpener
	quits     int
	cmd       *Commander
}

func newFixture(entries ...apps.Entry) *fixture {
	f := &fixture{
		registry:  apps.NewRegistry(apps.DefaultFilterOptions()),
		window:    &fakeWindow{},
		workspace: &fakeWorkspace{},
		opener:    &fakeOpener{},
	}
	f.cmd = New(f.registry, f.window, f.workspace, f.opener, func() { f.quits++ })
	if entries != nil {
		f.registry.ReplaceAll(entries)
	}
	return f
}

func names(entries []apps.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

var (
	safari   = apps.Entry{Name: "Safari", PID: 10, Path: "/Applications/Safari.app"}
	mail     = apps.Entry{Name: "Mail", PID: 11, Path: "/System/Applications/Mail.app"}
	terminal = apps.Entry{Name: "Terminal", PID: 12, Path: "/System/Applications/Utilities/Terminal.app"}
	notes    = apps.Entry{Name: "Notes", Path: "/System/Applications/Notes.app"}
)

func TestShowWindowSelectsOffset(t *testing.T) {
	f := newFixture(safari, mail, terminal)

	require.NoError(t, f.cmd.Handle(intent.ShowWindow{Offset: 1}))
	assert.Equal(t, 1, f.registry.Snapshot().ActiveIndex)
	assert.Equal(t, []string{"show 1"}, f.window.calls)

	require.NoError(t, f.cmd.Handle(intent.ShowWindow{Offset: 5}))
	assert.Equal(t, 0, f.registry.Snapshot().ActiveIndex)
}

func TestHideWindowAutoActivates(t *testing.T) {
	f := newFixture(safari, mail, terminal)
	require.NoError(t, f.cmd.Handle(intent.ShowWindow{Offset: 1}))
	require.NoError(t, f.cmd.Handle(intent.SetQuery{Query: "mai"}))

	require.NoError(t, f.cmd.Handle(intent.HideWindow{AutoActivate: true}))

	assert.Equal(t, []string{"activate 11"}, f.workspace.calls)
	assert.Equal(t, []string{"show 1", "hide"}, f.window.calls)
	view := f.registry.Snapshot()
	assert.Equal(t, "", view.Query)
	assert.Equal(t, 0, view.ActiveIndex)
	assert.Equal(t, []string{"Mail", "Safari", "Terminal"}, names(view.Entries))
}

func TestHideWindowWithoutActivation(t *testing.T) {
	f := newFixture(safari, mail)

	require.NoError(t, f.cmd.Handle(intent.HideWindow{AutoActivate: false}))
	assert.Empty(t, f.workspace.calls)
	assert.Equal(t, []string{"hide"}, f.window.calls)
}

func TestHideApplicationMovesToBack(t *testing.T) {
	f := newFixture(safari, mail, terminal)

	require.NoError(t, f.cmd.Handle(intent.HideApplication{}))

	assert.Equal(t, []string{"hide 10"}, f.workspace.calls)
	assert.Equal(t, []string{"Mail", "Terminal", "Safari"}, names(f.registry.Entries()))
	assert.Empty(t, f.window.calls)
}

func TestQuitApplicationRemovesEntry(t *testing.T) {
	f := newFixture(safari, mail)
	require.NoError(t, f.cmd.Handle(intent.Navigate{Index: apps.Next}))

	require.NoError(t, f.cmd.Handle(intent.QuitApplication{}))

	assert.Equal(t, []string{"terminate 11"}, f.workspace.calls)
	assert.Equal(t, []string{"Safari"}, names(f.registry.Entries()))
	assert.Equal(t, 0, f.registry.Snapshot().ActiveIndex)
}

func TestActivateLaunchesNotRunningEntry(t *testing.T) {
	f := newFixture(safari, notes)
	require.NoError(t, f.cmd.Handle(intent.SetQuery{Query: "notes"}))

	require.NoError(t, f.cmd.Handle(intent.Perform{Action: apps.Activate}))

	assert.Equal(t, []string{"launch /System/Applications/Notes.app"}, f.workspace.calls)
	assert.Equal(t, "Notes", f.registry.Entries()[0].Name)
}

func TestHideAndQuitOnNotRunningEntryOnlyReorder(t *testing.T) {
	f := newFixture(safari, notes)
	require.NoError(t, f.cmd.Handle(intent.SetQuery{Query: "notes"}))

	require.NoError(t, f.cmd.Handle(intent.Perform{Action: apps.Hide}))
	require.NoError(t, f.cmd.Handle(intent.Perform{Action: apps.Quit}))

	assert.Empty(t, f.workspace.calls)
	assert.Equal(t, []string{"Safari"}, names(f.registry.Entries()))
}

func TestEmptyViewIsNoop(t *testing.T) {
	f := newFixture()

	for _, in := range []intent.Intent{
		intent.HideWindow{AutoActivate: true},
		intent.HideApplication{},
		intent.QuitApplication{},
		intent.Perform{Action: apps.Activate},
	} {
		assert.NoError(t, f.cmd.Handle(in))
	}
	assert.Empty(t, f.workspace.calls)
}

func TestWorkspaceFailureIsReturnedAndStateStillResets(t *testing.T) {
	f := newFixture(safari, mail)
	f.workspace.err = errors.New("not allowed")
	require.NoError(t, f.cmd.Handle(intent.SetQuery{Query: "saf"}))

	err := f.cmd.Handle(intent.HideWindow{AutoActivate: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to activate Safari")
	assert.Equal(t, []string{"hide"}, f.window.calls)
	assert.Equal(t, "", f.registry.Snapshot().Query)
}

func TestPerformKeepsQuery(t *testing.T) {
	f := newFixture(safari, mail)
	require.NoError(t, f.cmd.Handle(intent.SetQuery{Query: "ma"}))

	require.NoError(t, f.cmd.Handle(intent.Perform{Action: apps.Hide}))
	assert.Equal(t, "ma", f.registry.Snapshot().Query)
}

func TestSocketMessages(t *testing.T) {
	f := newFixture()
	assert.True(t, f.registry.Snapshot().Loading)

	require.NoError(t, f.cmd.Handle(intent.Socket{Message: ipc.FullList{Entries: []apps.Entry{safari, mail}}}))
	assert.False(t, f.registry.Snapshot().Loading)

	require.NoError(t, f.cmd.Handle(intent.Socket{Message: ipc.Launched{Entry: terminal}}))
	assert.Equal(t, []string{"Terminal", "Safari", "Mail"}, names(f.registry.Entries()))

	require.NoError(t, f.cmd.Handle(intent.Socket{Message: ipc.Activated{Entry: mail}}))
	assert.Equal(t, []string{"Mail", "Terminal", "Safari"}, names(f.registry.Entries()))

	// Bundled applications stay as launchable entries, others disappear.
	require.NoError(t, f.cmd.Handle(intent.Socket{Message: ipc.Closed{Entry: mail}}))
	require.NoError(t, f.cmd.Handle(intent.Socket{Message: ipc.Closed{Entry: apps.Entry{Name: "Terminal", PID: 12, Path: "/opt/Terminal"}}}))

	entries := f.registry.Entries()
	assert.Equal(t, []string{"Mail", "Safari"}, names(entries))
	assert.Equal(t, int32(0), entries[0].PID)
}

func TestTrayIntents(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.cmd.Handle(intent.OpenSettings{}))
	require.NoError(t, f.cmd.Handle(intent.OpenAbout{}))
	require.NoError(t, f.cmd.Handle(intent.Quit{}))

	assert.Equal(t, 1, f.opener.settings)
	assert.Equal(t, 1, f.opener.about)
	assert.Equal(t, 1, f.quits)

	f.opener.err = errors.New("no editor")
	assert.Error(t, f.cmd.Handle(intent.OpenSettings{}))
}

func TestNavigateWraps(t *testing.T) {
	f := newFixture(safari, mail, terminal)

	require.NoError(t, f.cmd.Handle(intent.Navigate{Index: apps.Previous}))
	assert.Equal(t, 2, f.registry.Snapshot().ActiveIndex)
	require.NoError(t, f.cmd.Handle(intent.Navigate{Index: apps.Next}))
	assert.Equal(t, 0, f.registry.Snapshot().ActiveIndex)
	require.NoError(t, f.cmd.Handle(intent.Navigate{Index: apps.End}))
	assert.Equal(t, 2, f.registry.Snapshot().ActiveIndex)
}
