package framing

import (
	"fmt"
	"strconv"
	"strings"
)

// ClientVersion packs major.minor.build.revision into one comparable value.
type ClientVersion uint32

func NewVersion(major, minor, build, revision uint8) ClientVersion {
	return ClientVersion(uint32(major)<<24 | uint32(minor)<<16 | uint32(build)<<8 | uint32(revision))
}

// Thresholds used by the frame length table and the login handshake.
var (
	V500a   = NewVersion(5, 0, 0, 1)
	V5090   = NewVersion(5, 0, 9, 0)
	V6013   = NewVersion(6, 0, 1, 3)
	V6017   = NewVersion(6, 0, 1, 7)
	V6050   = NewVersion(6, 0, 5, 0)
	V60142  = NewVersion(6, 0, 14, 2)
	V7090   = NewVersion(7, 0, 9, 0)
	V70180  = NewVersion(7, 0, 18, 0)
	VLatest = NewVersion(7, 0, 95, 0)
)

func (v ClientVersion) Major() uint8 { return uint8(v >> 24) }
func (v ClientVersion) Minor() uint8 { return uint8(v >> 16) }
func (v ClientVersion) Build() uint8 { return uint8(v >> 8) }
func (v ClientVersion) Revision() uint8 { return uint8(v) }

func (v ClientVersion) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major(), v.Minor(), v.Build(), v.Revision())
}

// ParseVersion accepts "7.0.95.0", "7.0.95" and the letter form "5.0.0a",
// where the letter is revision 1 for 'a'.
func ParseVersion(s string) (ClientVersion, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ".")
	if len(parts) < 3 || len(parts) > 4 {
		return 0, fmt.Errorf("invalid client version %q", s)
	}
	var rev uint8
	if len(parts) == 3 {
		last := parts[2]
		if n := len(last); n > 1 && last[n-1] >= 'a' && last[n-1] <= 'z' {
			rev = last[n-1] - 'a' + 1
			parts[2] = last[:n-1]
		}
	}
	var nums [4]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid client version %q: %w", s, err)
		}
		nums[i] = uint8(n)
	}
	if len(parts) == 3 {
		nums[3] = rev
	}
	return NewVersion(nums[0], nums[1], nums[2], nums[3]), nil
}
