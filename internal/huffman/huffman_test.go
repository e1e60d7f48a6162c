package huffman

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/rand"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

// captured compressed chunks and the plaintext they carry
var golden = []struct {
	name       string
	compressed string
	plain      string
}{
	{"ping", "76a340", "7305"},
	{"two pings", "76a3407662d0", "73057309"},
	{"ascii", "40f2d4d5e2dbfc436ae4d0", "68656c6c6f20776f726c64"},
	{"zero heavy", "7e3881fd", "1a001000000001"},
	{
		"byte ramp",
		"3f134eb476cb818ab3ce765eaaee2b7cca74b3d99f723ce7e90597b91c6b70cde9373169ae7034",
		"000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f2021222324252627",
	},
}

func TestTreeShape(t *testing.T) {
	seen := make(map[int]int)
	for i, v := range tree {
		switch {
		case v > 0:
			if int(v) >= len(tree)/2 {
				t.Fatalf("slot %d points past the tree: %d", i, v)
			}
		default:
			seen[int(-v)]++
		}
	}
	if len(seen) != 257 {
		t.Fatalf("tree has %d distinct leaves, want 257", len(seen))
	}
	for sym, n := range seen {
		if n != 1 {
			t.Errorf("symbol %d appears %d times", sym, n)
		}
	}
}

func TestDecompressGolden(t *testing.T) {
	for _, tt := range golden {
		t.Run(tt.name, func(t *testing.T) {
			src := mustHex(t, tt.compressed)
			want := mustHex(t, tt.plain)
			d := NewDecompressor()
			dst := make([]byte, 256)
			n, err := d.Decompress(dst, src)
			if err != nil {
				t.Fatalf("Decompress() error = %v", err)
			}
			if !bytes.Equal(dst[:n], want) {
				t.Errorf("Decompress() = %x, want %x", dst[:n], want)
			}
			if d.Pending() {
				t.Error("decoder left mid codeword after a flushed chunk")
			}
		})
	}
}

func TestDecompressEverySplitPoint(t *testing.T) {
	for _, tt := range golden {
		t.Run(tt.name, func(t *testing.T) {
			src := mustHex(t, tt.compressed)
			want := mustHex(t, tt.plain)
			for i := 0; i <= len(src); i++ {
				for j := i; j <= len(src); j++ {
					d := NewDecompressor()
					var out []byte
					for _, part := range [][]byte{src[:i], src[i:j], src[j:]} {
						dst := make([]byte, 256)
						n, err := d.Decompress(dst, part)
						if err != nil {
							t.Fatalf("split %d/%d: %v", i, j, err)
						}
						out = append(out, dst[:n]...)
					}
					if !bytes.Equal(out, want) {
						t.Fatalf("split %d/%d: got %x, want %x", i, j, out, want)
					}
				}
			}
		})
	}
}

func TestPendingAcrossCalls(t *testing.T) {
	// 0xFE has a 10 bit code, so its first input byte ends inside the codeword
	src := Encoder{}.Encode(nil, []byte{0xFE})
	d := NewDecompressor()
	dst := make([]byte, 4)

	n, err := d.Decompress(dst, src[:1])
	if err != nil || n != 0 {
		t.Fatalf("first half: n=%d err=%v", n, err)
	}
	if !d.Pending() {
		t.Fatal("Pending() = false in the middle of a codeword")
	}
	n, err = d.Decompress(dst, src[1:])
	if err != nil || n != 1 || dst[0] != 0xFE {
		t.Fatalf("second half: n=%d err=%v dst=%x", n, err, dst[:n])
	}
	if d.Pending() {
		t.Error("Pending() = true after the flush symbol")
	}
}

func TestDecompressOverflow(t *testing.T) {
	src := mustHex(t, golden[2].compressed)
	d := NewDecompressor()
	dst := make([]byte, 4)
	n, err := d.Decompress(dst, src)
	if !errors.Is(err, ErrOutputOverflow) {
		t.Fatalf("Decompress() error = %v, want ErrOutputOverflow", err)
	}
	if n != 4 || !bytes.Equal(dst, []byte("hell")) {
		t.Errorf("Decompress() wrote %q before overflowing", dst[:n])
	}
}

func TestDecompressExactFit(t *testing.T) {
	src := mustHex(t, golden[0].compressed)
	d := NewDecompressor()
	dst := make([]byte, 2)
	n, err := d.Decompress(dst, src)
	if err != nil || n != 2 {
		t.Errorf("exact fit: n=%d err=%v", n, err)
	}
}

func TestEncoderMatchesGolden(t *testing.T) {
	for _, tt := range golden {
		if tt.name == "two pings" {
			continue
		}
		got := Encoder{}.Encode(nil, mustHex(t, tt.plain))
		if !bytes.Equal(got, mustHex(t, tt.compressed)) {
			t.Errorf("%s: Encode() = %x, want %s", tt.name, got, tt.compressed)
		}
	}
}

func TestRoundTripRandomChunks(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	inputs := [][]byte{all, {}}
	for i := 0; i < 20; i++ {
		p := make([]byte, rng.Intn(3000))
		rng.Read(p)
		inputs = append(inputs, p)
	}

	var stream, want []byte
	for _, in := range inputs {
		stream = Encoder{}.Encode(stream, in)
		want = append(want, in...)
	}

	d := NewDecompressor()
	var got []byte
	dst := make([]byte, 8*4096)
	for len(stream) > 0 {
		k := min(len(stream), 1+rng.Intn(97))
		n, err := d.Decompress(dst, stream[:k])
		if err != nil {
			t.Fatalf("Decompress() error = %v", err)
		}
		got = append(got, dst[:n]...)
		stream = stream[k:]
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(want))
	}
}

func TestMaxEncodedLen(t *testing.T) {
	worst := bytes.Repeat([]byte{0xC3}, 1000)
	for _, in := range [][]byte{nil, {0}, worst} {
		if got := len(Encoder{}.Encode(nil, in)); got > MaxEncodedLen(len(in)) {
			t.Errorf("Encode(%d bytes) = %d, exceeds MaxEncodedLen %d", len(in), got, MaxEncodedLen(len(in)))
		}
	}
}
