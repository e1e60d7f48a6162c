package huffman

type code struct {
	bits uint32
	n    uint8
}

// codes is indexed by symbol; index 256 is the flush symbol.
var codes [257]code

func init() {
	var walk func(node int, bits uint32, n uint8)
	walk = func(node int, bits uint32, n uint8) {
		for b := 0; b < 2; b++ {
			v := tree[node*2+b]
			c := code{bits: bits<<1 | uint32(b), n: n + 1}
			switch {
			case v == terminal:
				codes[256] = c
			case v <= 0:
				codes[-v] = c
			default:
				walk(int(v), c.bits, c.n)
			}
		}
	}
	walk(0, 0, 0)
}

// Encoder produces the server side of the stream. Every call to Encode is one
// chunk: the symbols, the flush symbol and zero padding to a byte boundary.
type Encoder struct{}

// Encode appends the compressed form of src to dst.
func (Encoder) Encode(dst, src []byte) []byte {
	var acc uint64
	var pending uint8
	emit := func(c code) {
		acc = acc<<c.n | uint64(c.bits)
		pending += c.n
		for pending >= 8 {
			pending -= 8
			dst = append(dst, byte(acc>>pending))
		}
	}
	for _, b := range src {
		emit(codes[b])
	}
	emit(codes[256])
	if pending > 0 {
		dst = append(dst, byte(acc<<(8-pending)))
	}
	return dst
}

// MaxEncodedLen bounds the size of Encode's output for n input bytes.
func MaxEncodedLen(n int) int {
	return (n*11+4)/8 + 1
}
