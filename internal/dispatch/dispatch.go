package dispatch

import (
	"errors"
	"fmt"
	"sync/atomic"

	"shardlink/internal/flog"
	"shardlink/internal/framing"
	"shardlink/internal/metrics"
	"shardlink/internal/pkg/buffer"
)

var (
	ErrUnknownFrame = errors.New("frame length unknown, buffered bytes discarded")
	ErrHandlerPanic = errors.New("frame handler panicked")
)

type Stats struct {
	Dispatched    uint64 `json:"dispatched"`
	Skipped       uint64 `json:"skipped"`
	Vetoed        uint64 `json:"vetoed"`
	HandlerErrors uint64 `json:"handler_errors"`
	Discarded     uint64 `json:"discarded"`
}

// Dispatcher cuts complete frames off the front of a ring buffer and routes
// them by identifier. Drain must not be called concurrently; producers may
// keep enqueueing into the ring while it runs.
type Dispatcher struct {
	name     string
	table    *framing.Table
	handlers *Registry
	filter   InboundFilter
	metrics  *metrics.Metrics

	scratch []byte

	// set by measure for the frame being cut
	curID   byte
	curSpec framing.LengthSpec

	dispatched    atomic.Uint64
	skipped       atomic.Uint64
	vetoed        atomic.Uint64
	handlerErrors atomic.Uint64
	discarded     atomic.Uint64
}

func New(name string, table *framing.Table, handlers *Registry) *Dispatcher {
	return &Dispatcher{
		name:     name,
		table:    table,
		handlers: handlers,
		scratch:  make([]byte, 0, buffer.GrowStep),
	}
}

// SetFilter installs the inbound filter; nil removes it.
func (d *Dispatcher) SetFilter(f InboundFilter) { d.filter = f }

func (d *Dispatcher) SetMetrics(m *metrics.Metrics) { d.metrics = m }

func (d *Dispatcher) Table() *framing.Table { return d.table }

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Dispatched:    d.dispatched.Load(),
		Skipped:       d.skipped.Load(),
		Vetoed:        d.vetoed.Load(),
		HandlerErrors: d.handlerErrors.Load(),
		Discarded:     d.discarded.Load(),
	}
}

// measure runs under the ring's lock; it must only read the view.
func (d *Dispatcher) measure(v buffer.View) int {
	d.curID = v.At(0)
	d.curSpec = d.table.Lookup(d.curID)
	switch d.curSpec.Kind {
	case framing.Fixed:
		if v.Len() < d.curSpec.Size {
			return 0
		}
		return d.curSpec.Size
	case framing.Prefixed:
		if v.Len() < 3 {
			return 0
		}
		n := int(v.At(1))<<8 | int(v.At(2))
		if n < 3 {
			return -1
		}
		if v.Len() < n {
			return 0
		}
		return n
	}
	return -1
}

// Drain handles every complete frame in ring and returns how many were taken.
// A frame of unknown length drops everything buffered, since the boundary of
// the next frame is lost; that case returns ErrUnknownFrame.
func (d *Dispatcher) Drain(ring *buffer.Ring) (int, error) {
	frames := 0
	for {
		taken, discarded := ring.Take(&d.scratch, d.measure)
		if discarded > 0 {
			d.discarded.Add(1)
			d.metrics.Frame(d.name, metrics.FrameDiscarded)
			flog.Errorf("%s: frame 0x%02X has no usable length (%s), discarded %d buffered bytes", d.name, d.curID, d.curSpec, discarded)
			return frames, fmt.Errorf("frame 0x%02X: %w", d.curID, ErrUnknownFrame)
		}
		if taken == 0 {
			return frames, nil
		}
		frames++
		d.dispatch(d.scratch[:taken])
	}
}

func (d *Dispatcher) dispatch(frame []byte) {
	if d.filter != nil {
		out, ok := d.filter.FilterInbound(frame)
		if !ok || len(out) == 0 {
			d.vetoed.Add(1)
			d.metrics.Frame(d.name, metrics.FrameVetoed)
			flog.Debugf("%s: frame 0x%02X dropped by filter", d.name, frame[0])
			return
		}
		frame = out
	}

	id := frame[0]
	h := d.handlers.Lookup(id)
	if h == nil {
		d.skipped.Add(1)
		d.metrics.Frame(d.name, metrics.FrameSkipped)
		flog.Debugf("%s: no handler for frame 0x%02X (%d bytes)", d.name, id, len(frame))
		return
	}

	r := framing.NewReader(frame, d.table.Lookup(id).HeaderLen())
	if err := invoke(h, r); err != nil {
		d.handlerErrors.Add(1)
		d.metrics.Frame(d.name, metrics.FrameHandlerError)
		flog.Errorf("%s: handler for frame 0x%02X failed: %v", d.name, id, err)
		return
	}
	d.dispatched.Add(1)
	d.metrics.Frame(d.name, metrics.FrameDispatched)
}

func invoke(h FrameHandler, r *framing.Reader) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, p)
		}
	}()
	return h.Handle(r)
}
