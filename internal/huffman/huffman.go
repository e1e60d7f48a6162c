// Package huffman implements the bit-level stream compression used by the game
// server: a fixed binary decode tree walked MSB first, one decoder per connection.
package huffman

import "errors"

// ErrOutputOverflow means a decoded byte did not fit in the destination. The
// bit cursor is no longer meaningful to the caller and the stream must be dropped.
var ErrOutputOverflow = errors.New("huffman: decompressed output exceeds buffer")

// Decompressor decodes a compressed byte stream in arbitrary chunks. A codeword
// may straddle two calls; the position inside the tree and the byte being
// consumed carry over.
type Decompressor struct {
	node   int
	bitPos int // 8 means a fresh input byte is needed
	cur    byte
	mask   byte
}

func NewDecompressor() *Decompressor {
	d := &Decompressor{}
	d.Reset()
	return d
}

// Reset returns the decoder to the root. Only a reconnect should call it.
func (d *Decompressor) Reset() {
	d.node = 0
	d.bitPos = 8
	d.cur = 0
	d.mask = 0
}

// Pending reports whether the decoder stopped inside a codeword.
func (d *Decompressor) Pending() bool {
	return d.node != 0
}

// Decompress decodes src into dst and returns the number of bytes written. When
// src ends mid codeword the remaining bits are picked up by the next call.
func (d *Decompressor) Decompress(dst, src []byte) (int, error) {
	n := 0
	i := 0
	for {
		if d.bitPos == 8 {
			if i == len(src) {
				return n, nil
			}
			d.cur = src[i]
			i++
			d.bitPos = 0
			d.mask = 0x80
		}

		bit := 0
		if d.cur&d.mask != 0 {
			bit = 1
		}
		v := tree[d.node*2+bit]

		switch {
		case v == terminal:
			// the encoder pads the rest of the byte after a flush
			d.node = 0
			d.bitPos = 8
			continue
		case v <= 0:
			if n == len(dst) {
				return n, ErrOutputOverflow
			}
			dst[n] = byte(-v)
			n++
			d.node = 0
		default:
			d.node = int(v)
		}
		d.mask >>= 1
		d.bitPos++
	}
}
