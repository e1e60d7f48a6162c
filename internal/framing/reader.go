package framing

import (
	"encoding/binary"
	"strings"
	"unicode/utf16"
)

// Reader walks the payload of one inbound frame. Reads past the end return
// zero values and latch ErrShortFrame, reported by Err.
type Reader struct {
	data []byte
	pos  int
	err  error
}

// NewReader positions the cursor header bytes into frame.
func NewReader(frame []byte, header int) *Reader {
	return &Reader{data: frame, pos: min(header, len(frame))}
}

func (r *Reader) ID() byte {
	if len(r.data) == 0 {
		return 0
	}
	return r.data[0]
}

// Frame returns the whole frame including the header.
func (r *Reader) Frame() []byte { return r.data }

func (r *Reader) Len() int { return len(r.data) }

func (r *Reader) Position() int { return r.pos }

func (r *Reader) Remaining() int { return len(r.data) - r.pos }

func (r *Reader) Err() error { return r.err }

func (r *Reader) Seek(pos int) {
	if pos < 0 || pos > len(r.data) {
		r.err = ErrShortFrame
		return
	}
	r.pos = pos
}

func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = ErrShortFrame
		r.pos = len(r.data)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) Skip(n int) { r.next(n) }

func (r *Reader) ReadUint8() uint8 {
	if b := r.next(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *Reader) ReadBool() bool { return r.ReadUint8() != 0 }

func (r *Reader) ReadUint16() uint16 {
	if b := r.next(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

func (r *Reader) ReadUint32() uint32 {
	if b := r.next(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

// ReadBytes returns a view into the frame; copy it to keep it past the handler.
func (r *Reader) ReadBytes(n int) []byte { return r.next(n) }

// ReadASCII reads size bytes and cuts the string at the first zero. A size of
// zero or less reads up to and including a terminating zero.
func (r *Reader) ReadASCII(size int) string {
	if size <= 0 {
		rest := r.data[r.pos:]
		i := strings.IndexByte(string(rest), 0)
		if i < 0 {
			r.pos = len(r.data)
			return string(rest)
		}
		r.pos += i + 1
		return string(rest[:i])
	}
	b := r.next(size)
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// ReadUnicodeBE reads size big-endian UTF-16 characters, stopping the string
// at the first zero.
func (r *Reader) ReadUnicodeBE(size int) string {
	size = max(size, 0)
	units := make([]uint16, 0, size)
	done := false
	for i := 0; i < size; i++ {
		u := r.ReadUint16()
		if u == 0 {
			done = true
		}
		if !done {
			units = append(units, u)
		}
	}
	return string(utf16.Decode(units))
}
