package ui

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/TanaroSch/fast-forward/internal/apps"
)

// HeadlessWindow stands in for the switcher window when no renderer is attached.
// It logs what would be shown.
type HeadlessWindow struct {
	registry *apps.Registry
	visible  atomic.Bool
	renders  atomic.Int64
}

// NewHeadlessWindow returns a window that reads the view from registry.
func NewHeadlessWindow(registry *apps.Registry) *HeadlessWindow {
	return &HeadlessWindow{registry: registry}
}

// Show logs the current view.
func (w *HeadlessWindow) Show(offset int) error {
	w.visible.Store(true)
	view := w.registry.Snapshot()
	selected, _ := view.Selected()
	log.Printf("Window: show (offset %d, %d entries, selected %q, loading %t)",
		offset, len(view.Entries), selected.Name, view.Loading)
	return nil
}

// Hide logs that the window closed.
func (w *HeadlessWindow) Hide() error {
	w.visible.Store(false)
	log.Println("Window: hide")
	return nil
}

// Run re-renders on every registry change until ctx is done. Changes while the
// window is hidden are dropped.
func (w *HeadlessWindow) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.registry.Changes():
			if w.visible.Load() {
				w.render()
			}
		}
	}
}

func (w *HeadlessWindow) render() {
	w.renders.Add(1)
	view := w.registry.Snapshot()
	selected, _ := view.Selected()
	log.Printf("Window: re-render (%d entries, query %q, selected %q)",
		len(view.Entries), view.Query, selected.Name)
}
