package framing

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// Writer builds one outbound frame. Fields are written at the cursor, which
// Seek can move back over bytes already written.
type Writer struct {
	spec LengthSpec
	buf  []byte
	pos  int
}

// NewWriter writes the identifier and, for prefixed frames, reserves the two
// length bytes that Finish patches.
func NewWriter(id byte, spec LengthSpec) *Writer {
	size := 64
	if spec.Kind == Fixed {
		size = spec.Size
	}
	w := &Writer{spec: spec, buf: make([]byte, 0, size)}
	w.WriteUint8(id)
	if spec.Kind == Prefixed {
		w.WriteUint16(0)
	}
	return w
}

func (w *Writer) ID() byte { return w.buf[0] }

func (w *Writer) Spec() LengthSpec { return w.spec }

func (w *Writer) Position() int { return w.pos }

func (w *Writer) Len() int { return len(w.buf) }

// Seek moves the cursor; positions past the end are zero filled on the next write.
func (w *Writer) Seek(pos int) {
	if pos < 0 {
		pos = 0
	}
	w.pos = pos
}

func (w *Writer) ensure(n int) []byte {
	end := w.pos + n
	if end > len(w.buf) {
		if end > cap(w.buf) {
			grown := make([]byte, len(w.buf), max(end, 2*cap(w.buf)))
			copy(grown, w.buf)
			w.buf = grown
		}
		clear(w.buf[len(w.buf):end])
		w.buf = w.buf[:end]
	}
	b := w.buf[w.pos:end]
	w.pos = end
	return b
}

func (w *Writer) WriteUint8(v uint8) { w.ensure(1)[0] = v }

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
		return
	}
	w.WriteUint8(0)
}

func (w *Writer) WriteUint16(v uint16) { binary.BigEndian.PutUint16(w.ensure(2), v) }

func (w *Writer) WriteUint32(v uint32) { binary.BigEndian.PutUint32(w.ensure(4), v) }

func (w *Writer) WriteBytes(p []byte) { copy(w.ensure(len(p)), p) }

// WriteZero writes n zero bytes.
func (w *Writer) WriteZero(n int) { clear(w.ensure(n)) }

// WriteASCII writes s in exactly size bytes, truncated or zero padded. A size
// of zero or less writes s followed by a single terminating zero.
func (w *Writer) WriteASCII(s string, size int) {
	if size <= 0 {
		w.WriteBytes([]byte(s))
		w.WriteUint8(0)
		return
	}
	b := w.ensure(size)
	n := copy(b, s)
	clear(b[n:])
}

// WriteUnicodeBE writes s as big-endian UTF-16 in exactly size characters, or
// zero terminated when size is zero or less.
func (w *Writer) WriteUnicodeBE(s string, size int) {
	units := utf16.Encode([]rune(s))
	if size <= 0 {
		for _, u := range units {
			w.WriteUint16(u)
		}
		w.WriteUint16(0)
		return
	}
	for i := 0; i < size; i++ {
		var u uint16
		if i < len(units) {
			u = units[i]
		}
		w.WriteUint16(u)
	}
}

// Finish completes the frame: prefixed frames get their total length patched
// in at offset 1, fixed frames are zero padded to the declared size.
func (w *Writer) Finish() ([]byte, error) {
	switch w.spec.Kind {
	case Prefixed:
		if len(w.buf) > 0xFFFF {
			return nil, fmt.Errorf("frame 0x%02X of %d bytes: %w", w.ID(), len(w.buf), ErrFrameTooLarge)
		}
		binary.BigEndian.PutUint16(w.buf[1:3], uint16(len(w.buf)))
	case Fixed:
		if len(w.buf) > w.spec.Size {
			return nil, fmt.Errorf("frame 0x%02X wrote %d of %d bytes: %w", w.ID(), len(w.buf), w.spec.Size, ErrFrameTooLarge)
		}
		w.pos = len(w.buf)
		w.WriteZero(w.spec.Size - len(w.buf))
	default:
		return nil, fmt.Errorf("frame 0x%02X: %w", w.ID(), ErrUnknownLength)
	}
	return w.buf, nil
}
