package framing

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriterFixedPadsToSize(t *testing.T) {
	w := NewWriter(0x42, LengthSpec{Fixed, 10})
	w.WriteUint8(1)
	w.WriteUint16(0x0203)
	frame, err := w.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	want := []byte{0x42, 0x01, 0x02, 0x03, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(frame, want) {
		t.Errorf("Finish() = % x, want % x", frame, want)
	}
}

func TestWriterFixedOverflow(t *testing.T) {
	w := NewWriter(0x73, LengthSpec{Fixed, 2})
	w.WriteUint16(1)
	if _, err := w.Finish(); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("Finish() error = %v, want ErrFrameTooLarge", err)
	}
}

func TestWriterPrefixedLength(t *testing.T) {
	w := NewWriter(0xBF, LengthSpec{Kind: Prefixed})
	w.WriteBytes(bytes.Repeat([]byte{0xAA}, 20))
	frame, err := w.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if len(frame) != 23 {
		t.Fatalf("len = %d, want 23", len(frame))
	}
	if frame[0] != 0xBF || frame[1] != 0 || frame[2] != 23 {
		t.Errorf("header = % x, want bf 00 17", frame[:3])
	}
}

func TestWriterPrefixedTooLarge(t *testing.T) {
	w := NewWriter(0xBF, LengthSpec{Kind: Prefixed})
	w.WriteZero(0x10000)
	if _, err := w.Finish(); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("Finish() error = %v, want ErrFrameTooLarge", err)
	}
}

func TestWriterUnknown(t *testing.T) {
	w := Build(VLatest).NewWriter(0xFF)
	if _, err := w.Finish(); !errors.Is(err, ErrUnknownLength) {
		t.Errorf("Finish() error = %v, want ErrUnknownLength", err)
	}
}

func TestWriterSeek(t *testing.T) {
	w := NewWriter(0xBF, LengthSpec{Kind: Prefixed})
	w.WriteUint16(0x0102)
	w.Seek(8)
	w.WriteUint8(0xFF)
	w.Seek(3)
	w.WriteUint8(0x09)
	frame, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xBF, 0x00, 0x09, 0x09, 0x02, 0, 0, 0, 0xFF}
	if !bytes.Equal(frame, want) {
		t.Errorf("Finish() = % x, want % x", frame, want)
	}
}

func TestWriterStrings(t *testing.T) {
	w := NewWriter(0x01, LengthSpec{Kind: Prefixed})
	w.WriteASCII("abcdef", 4)
	w.WriteASCII("hi", 4)
	w.WriteASCII("z", 0)
	w.WriteUnicodeBE("ok", 3)
	frame, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0x01, 0x00, 0x13,
		'a', 'b', 'c', 'd',
		'h', 'i', 0, 0,
		'z', 0,
		0, 'o', 0, 'k', 0, 0,
	}
	if !bytes.Equal(frame, want) {
		t.Errorf("Finish() = % x, want % x", frame, want)
	}
}

func TestReaderRoundTrip(t *testing.T) {
	w := NewWriter(0x01, LengthSpec{Kind: Prefixed})
	w.WriteUint32(0xDEADBEEF)
	w.WriteBool(true)
	w.WriteASCII("name", 8)
	w.WriteUnicodeBE("Ünï", 5)
	w.WriteASCII("tail", 0)
	frame, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}

	r := NewReader(frame, 3)
	if r.ID() != 0x01 || r.Position() != 3 {
		t.Fatalf("ID/Position = %x/%d", r.ID(), r.Position())
	}
	if got := r.ReadUint32(); got != 0xDEADBEEF {
		t.Errorf("ReadUint32() = %x", got)
	}
	if !r.ReadBool() {
		t.Errorf("ReadBool() = false")
	}
	if got := r.ReadASCII(8); got != "name" {
		t.Errorf("ReadASCII(8) = %q", got)
	}
	if got := r.ReadUnicodeBE(5); got != "Ünï" {
		t.Errorf("ReadUnicodeBE(5) = %q", got)
	}
	if got := r.ReadASCII(0); got != "tail" {
		t.Errorf("ReadASCII(0) = %q", got)
	}
	if r.Remaining() != 0 || r.Err() != nil {
		t.Errorf("Remaining/Err = %d/%v", r.Remaining(), r.Err())
	}
}

func TestReaderShortFrame(t *testing.T) {
	r := NewReader([]byte{0x73, 0x05}, 1)
	if got := r.ReadUint8(); got != 0x05 {
		t.Fatalf("ReadUint8() = %x, want 05", got)
	}
	if got := r.ReadUint16(); got != 0 {
		t.Errorf("ReadUint16() past end = %x, want 0", got)
	}
	if !errors.Is(r.Err(), ErrShortFrame) {
		t.Fatalf("Err() = %v, want ErrShortFrame", r.Err())
	}
	// sticky: later reads fail even if they would fit
	r.Seek(1)
	if got := r.ReadUint8(); got != 0 {
		t.Errorf("ReadUint8() after error = %x, want 0", got)
	}
}

func TestReaderHeaderPastEnd(t *testing.T) {
	r := NewReader([]byte{0xA8}, 3)
	if r.Position() != 1 || r.Remaining() != 0 {
		t.Errorf("Position/Remaining = %d/%d", r.Position(), r.Remaining())
	}
}

func TestReaderNegativeSizes(t *testing.T) {
	r := NewReader([]byte{0x53, 0x00, 0x41, 0x00, 0x00}, 1)
	if got := r.ReadUnicodeBE(-1); got != "" {
		t.Errorf("ReadUnicodeBE(-1) = %q, want empty", got)
	}
	if r.Err() != nil || r.Position() != 1 {
		t.Errorf("ReadUnicodeBE(-1) moved to %d with %v", r.Position(), r.Err())
	}
	if got := r.ReadUnicodeBE(2); got != "A" {
		t.Errorf("ReadUnicodeBE(2) = %q, want A", got)
	}
}
