package framing

import (
	"fmt"
	"io"
	"strings"
)

// Dump prints the table as a 16x16 grid: the fixed size in hex, "var" for
// prefixed frames and "--" for unknown identifiers.
func Dump(w io.Writer, t *Table) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "client %s\n     ", t.Version())
	for col := 0; col < 16; col++ {
		fmt.Fprintf(&sb, " %4X", col)
	}
	sb.WriteByte('\n')
	for row := 0; row < 16; row++ {
		fmt.Fprintf(&sb, "0x%X0:", row)
		for col := 0; col < 16; col++ {
			spec := t.Lookup(byte(row<<4 | col))
			switch spec.Kind {
			case Fixed:
				fmt.Fprintf(&sb, " %4X", spec.Size)
			case Prefixed:
				sb.WriteString("  var")
			default:
				sb.WriteString("   --")
			}
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
