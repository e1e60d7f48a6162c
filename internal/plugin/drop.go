package plugin

// Drop discards frames by identifier.
type Drop struct {
	in  [256]bool
	out [256]bool
}

func NewDrop(inbound, outbound []int) *Drop {
	d := &Drop{}
	for _, id := range inbound {
		d.in[byte(id)] = true
	}
	for _, id := range outbound {
		d.out[byte(id)] = true
	}
	return d
}

func (d *Drop) Name() string { return "filter" }

func (d *Drop) OnRecv(_ string, frame []byte) ([]byte, bool) { return frame, !d.in[frame[0]] }

func (d *Drop) OnSend(_ string, frame []byte) ([]byte, bool) { return frame, !d.out[frame[0]] }

func (d *Drop) Close() error { return nil }
