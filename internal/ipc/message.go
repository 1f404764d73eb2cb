// Package ipc talks to the monitor helper: it supervises the helper process, reads
// length-prefixed protobuf frames from its socket and turns them into Messages.
package ipc

import "github.com/TanaroSch/fast-forward/internal/apps"

// Message is one decoded helper event. The concrete types are FullList, Launched,
// Closed and Activated.
type Message interface {
	isMessage()
}

// FullList replaces the whole application list.
type FullList struct {
	Entries []apps.Entry
}

// Launched reports an application that started.
type Launched struct {
	Entry apps.Entry
}

// Closed reports an application that terminated.
type Closed struct {
	Entry apps.Entry
}

// Activated reports an application that became frontmost.
type Activated struct {
	Entry apps.Entry
}

func (FullList) isMessage()  {}
func (Launched) isMessage()  {}
func (Closed) isMessage()    {}
func (Activated) isMessage() {}
