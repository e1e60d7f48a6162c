package framing

import "fmt"

type Kind uint8

const (
	Unknown Kind = iota
	Fixed
	Prefixed
)

func (k Kind) String() string {
	switch k {
	case Fixed:
		return "fixed"
	case Prefixed:
		return "prefixed"
	}
	return "unknown"
}

// LengthSpec says how long a frame is. Fixed sizes count the identifier;
// prefixed frames carry a big-endian uint16 total length after the identifier.
type LengthSpec struct {
	Kind Kind
	Size int
}

// HeaderLen is the number of bytes before the payload.
func (s LengthSpec) HeaderLen() int {
	if s.Kind == Prefixed {
		return 3
	}
	return 1
}

func (s LengthSpec) String() string {
	if s.Kind == Fixed {
		return fmt.Sprintf("fixed(%d)", s.Size)
	}
	return s.Kind.String()
}

const (
	unknown  = 0
	prefixed = -1
)

// baseline holds the lengths known for every client; version gates in Build
// adjust it. 0 marks an identifier the protocol does not define.
var baseline = [256]int16{
	// 0x00
	0x68, 0x05, 0x07, -1, 0x02, 0x05, 0x05, 0x07, 0x0E, 0x05, 0x0B, 0x10A, -1, 0x03, -1, 0x3D,
	// 0x10
	0xD7, -1, -1, 0x0A, 0x06, 0x09, 0x01, -1, -1, -1, -1, 0x25, -1, 0x05, 0x04, 0x08,
	// 0x20
	0x13, 0x08, 0x03, 0x1A, 0x07, 0x14, 0x05, 0x02, 0x05, 0x01, 0x05, 0x02, 0x02, 0x11, 0x0F, 0x0A,
	// 0x30
	0x05, 0x01, 0x02, 0x02, 0x0A, 0x28D, -1, 0x08, 0x07, 0x09, -1, -1, -1, 0x02, 0x25, -1,
	// 0x40
	0xC9, -1, -1, 0x229, 0x2C9, 0x05, -1, 0x0B, 0x49, 0x5D, 0x05, 0x09, -1, -1, 0x06, 0x02,
	// 0x50
	-1, -1, -1, 0x02, 0x0C, 0x01, 0x0B, 0x6E, 0x6A, -1, -1, 0x04, 0x02, 0x49, -1, 0x31,
	// 0x60
	0x05, 0x09, 0x0F, 0x0D, 0x01, 0x04, -1, 0x15, -1, -1, 0x03, 0x09, 0x13, 0x03, 0x0E, -1,
	// 0x70
	0x1C, -1, 0x05, 0x02, -1, 0x23, 0x10, 0x11, -1, 0x09, -1, 0x02, -1, 0x0D, 0x02, -1,
	// 0x80
	0x3E, -1, 0x02, 0x27, 0x45, 0x02, -1, -1, 0x42, -1, -1, -1, 0x0B, -1, -1, -1,
	// 0x90
	0x13, 0x41, -1, 0x63, -1, 0x09, -1, 0x02, -1, 0x1A, -1, 0x102, 0x135, 0x33, -1, -1,
	// 0xA0
	0x03, 0x09, 0x09, 0x09, 0x95, -1, -1, 0x04, -1, -1, 0x05, -1, -1, -1, -1, 0x0D,
	// 0xB0
	-1, -1, -1, -1, -1, 0x40, 0x09, -1, -1, 0x03, 0x06, 0x09, 0x03, -1, -1, -1,
	// 0xC0
	0x24, -1, -1, -1, 0x06, 0xCB, 0x01, 0x31, 0x02, 0x06, 0x06, 0x07, -1, 0x01, -1, 0x4E,
	// 0xD0
	-1, 0x02, 0x19, -1, -1, -1, -1, -1, -1, 0x10C, -1, -1, 0x09, -1, -1, -1,
	// 0xE0
	-1, -1, 0x0A, -1, -1, -1, 0x05, 0x0C, 0x0D, 0x4B, 0x03, -1, -1, -1, 0x0A, 0x15,
	// 0xF0
	-1, 0x09, 0x19, 0x1A, -1, 0x15, -1, -1, 0x6A, 0, 0, 0, 0, 0, 0, 0,
}

// Table maps frame identifiers to their length for one client version. It is
// never modified after Build.
type Table struct {
	version ClientVersion
	entries [256]int16
}

// Build applies the version gates to the baseline, in order; a later gate
// overrides an earlier one.
func Build(v ClientVersion) *Table {
	t := &Table{version: v, entries: baseline}
	e := &t.entries

	if v >= V500a {
		e[0x0B] = 0x07
		e[0x16] = prefixed
		e[0x31] = prefixed
	} else {
		e[0x0B] = 0x10A
		e[0x16] = 0x01
		e[0x31] = 0x01
	}

	if v >= V5090 {
		e[0xE1] = prefixed
	} else {
		e[0xE1] = 0x09
	}

	if v >= V6013 {
		e[0xE3] = prefixed
		e[0xE6] = 0x05
		e[0xE7] = 0x0C
		e[0xE8] = 0x0D
		e[0xE9] = 0x4B
		e[0xEA] = 0x03
	} else {
		e[0xE3] = 0x4D
		e[0xE6] = unknown
		e[0xE7] = unknown
		e[0xE8] = unknown
		e[0xE9] = unknown
		e[0xEA] = unknown
	}

	if v >= V6017 {
		e[0x08] = 0x0F
		e[0x25] = 0x15
	} else {
		e[0x08] = 0x0E
		e[0x25] = 0x14
	}

	if v >= V6050 {
		e[0xEF] = 0x15
	} else {
		e[0xEF] = unknown
	}

	if v >= V60142 {
		e[0xB9] = 0x05
	} else {
		e[0xB9] = 0x03
	}

	if v >= V7090 {
		e[0x24] = 0x09
		e[0x99] = 0x1E
		e[0xBA] = 0x0A
		e[0xF3] = 0x1A
		e[0xF1] = 0x09
		e[0xF2] = 0x19
	} else {
		e[0x24] = 0x07
		e[0x99] = 0x1A
		e[0xBA] = 0x06
		e[0xF3] = 0x18
	}

	if v >= V70180 {
		e[0x00] = 0x6A
	} else {
		e[0x00] = 0x68
	}

	return t
}

func (t *Table) Version() ClientVersion { return t.version }

// Lookup returns the length of frame id. 0xFF and undefined identifiers are
// Unknown; callers must not guess a length for them.
func (t *Table) Lookup(id byte) LengthSpec {
	if id == 0xFF {
		return LengthSpec{Kind: Unknown}
	}
	switch n := t.entries[id]; {
	case n == prefixed:
		return LengthSpec{Kind: Prefixed}
	case n > 0:
		return LengthSpec{Kind: Fixed, Size: int(n)}
	}
	return LengthSpec{Kind: Unknown}
}

// NewWriter starts a frame whose length follows the table.
func (t *Table) NewWriter(id byte) *Writer {
	return NewWriter(id, t.Lookup(id))
}
