package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/TanaroSch/fast-forward/internal/apps"
)

// MaxFrameSize bounds the payload length accepted by ReadFrame and WriteFrame.
const MaxFrameSize = 16 << 20

var (
	// ErrFrameTooLarge is returned for frames whose length prefix exceeds MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrMissingEvent is returned for a SocketMessage without an event, or an event without an app.
	ErrMissingEvent = errors.New("message has no event")
)

// Field numbers of the helper schema:
//
//	message App           { string name = 1; int32 pid = 2; string icon = 3; bool active = 4; string path = 5; }
//	message List          { repeated App apps = 1; }
//	message Launch        { App app = 1; }  (Close and Activate have the same shape)
//	message SocketMessage { oneof event { List list = 1; Launch launch = 2; Close close = 3; Activate activate = 4; } }
const (
	appName   protowire.Number = 1
	appPID    protowire.Number = 2
	appIcon   protowire.Number = 3
	appActive protowire.Number = 4
	appPath   protowire.Number = 5

	listApps protowire.Number = 1
	eventApp protowire.Number = 1

	eventList     protowire.Number = 1
	eventLaunch   protowire.Number = 2
	eventClose    protowire.Number = 3
	eventActivate protowire.Number = 4
)

// ReadFrame reads one length-prefixed frame. A short read returns io.ErrUnexpectedEOF;
// io.EOF is returned only when the stream ends cleanly between frames.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

// WriteFrame writes payload with its 4-byte big-endian length prefix.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	buf := make([]byte, 4, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)
	_, err := w.Write(buf)
	return err
}

// Encode serializes m as a SocketMessage.
func Encode(m Message) ([]byte, error) {
	var num protowire.Number
	var body []byte
	switch m := m.(type) {
	case FullList:
		num = eventList
		for _, e := range m.Entries {
			body = protowire.AppendTag(body, listApps, protowire.BytesType)
			body = protowire.AppendBytes(body, appendApp(nil, e))
		}
	case Launched:
		num, body = eventLaunch, wrapApp(m.Entry)
	case Closed:
		num, body = eventClose, wrapApp(m.Entry)
	case Activated:
		num, body = eventActivate, wrapApp(m.Entry)
	default:
		return nil, fmt.Errorf("encode: unsupported message %T", m)
	}
	b := protowire.AppendTag(nil, num, protowire.BytesType)
	return protowire.AppendBytes(b, body), nil
}

// Decode parses a SocketMessage payload. Unknown fields are skipped. When several
// events are present the last one wins, as with any protobuf oneof.
func Decode(payload []byte) (Message, error) {
	var msg Message
	err := walk(payload, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if typ != protowire.BytesType {
			return nil
		}
		var err error
		switch num {
		case eventList:
			msg, err = decodeList(v)
		case eventLaunch:
			var e apps.Entry
			if e, err = decodeWrapped(v); err == nil {
				msg = Launched{Entry: e}
			}
		case eventClose:
			var e apps.Entry
			if e, err = decodeWrapped(v); err == nil {
				msg = Closed{Entry: e}
			}
		case eventActivate:
			var e apps.Entry
			if e, err = decodeWrapped(v); err == nil {
				msg = Activated{Entry: e}
			}
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("decode socket message: %w", err)
	}
	if msg == nil {
		return nil, ErrMissingEvent
	}
	return msg, nil
}

func wrapApp(e apps.Entry) []byte {
	b := protowire.AppendTag(nil, eventApp, protowire.BytesType)
	return protowire.AppendBytes(b, appendApp(nil, e))
}

func appendApp(b []byte, e apps.Entry) []byte {
	if e.Name != "" {
		b = protowire.AppendTag(b, appName, protowire.BytesType)
		b = protowire.AppendString(b, e.Name)
	}
	if e.PID != 0 {
		b = protowire.AppendTag(b, appPID, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(e.PID)))
	}
	if e.Icon != "" {
		b = protowire.AppendTag(b, appIcon, protowire.BytesType)
		b = protowire.AppendString(b, e.Icon)
	}
	if e.Active {
		b = protowire.AppendTag(b, appActive, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	if e.Path != "" {
		b = protowire.AppendTag(b, appPath, protowire.BytesType)
		b = protowire.AppendString(b, e.Path)
	}
	return b
}

func decodeList(b []byte) (FullList, error) {
	list := FullList{Entries: []apps.Entry{}}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num != listApps || typ != protowire.BytesType {
			return nil
		}
		e, err := decodeApp(v)
		if err != nil {
			return err
		}
		list.Entries = append(list.Entries, e)
		return nil
	})
	return list, err
}

func decodeWrapped(b []byte) (apps.Entry, error) {
	var (
		e     apps.Entry
		found bool
	)
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num != eventApp || typ != protowire.BytesType {
			return nil
		}
		app, err := decodeApp(v)
		if err != nil {
			return err
		}
		e, found = app, true
		return nil
	})
	if err != nil {
		return apps.Entry{}, err
	}
	if !found {
		return apps.Entry{}, ErrMissingEvent
	}
	return e, nil
}

func decodeApp(b []byte) (apps.Entry, error) {
	var e apps.Entry
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch {
		case num == appName && typ == protowire.BytesType:
			e.Name = string(v)
		case num == appIcon && typ == protowire.BytesType:
			e.Icon = string(v)
		case num == appPath && typ == protowire.BytesType:
			e.Path = string(v)
		case num == appPID && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(v)
			if n < 0 {
				return protowire.ParseError(n)
			}
			e.PID = int32(x)
		case num == appActive && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(v)
			if n < 0 {
				return protowire.ParseError(n)
			}
			e.Active = protowire.DecodeBool(x)
		}
		return nil
	})
	return e, err
}

// walk calls fn for every field in b. For BytesType fields v is the field content;
// for VarintType fields v holds the raw varint. Other wire types are skipped.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		switch typ {
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			if err := fn(num, typ, v); err != nil {
				return err
			}
			b = b[m:]
		case protowire.VarintType:
			_, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			if err := fn(num, typ, b[:m]); err != nil {
				return err
			}
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			b = b[m:]
		}
	}
	return nil
}
