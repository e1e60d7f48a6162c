package dispatch

import (
	"sync"

	"shardlink/internal/framing"
)

// FrameHandler consumes one inbound frame. The reader is positioned past the
// header and its bytes are only valid until Handle returns.
type FrameHandler interface {
	Handle(r *framing.Reader) error
}

type HandlerFunc func(r *framing.Reader) error

func (f HandlerFunc) Handle(r *framing.Reader) error { return f(r) }

// InboundFilter sees every complete frame before its handler. It may return a
// modified or resized frame, or false to drop it.
type InboundFilter interface {
	FilterInbound(frame []byte) ([]byte, bool)
}

// Registry maps each frame identifier to at most one handler.
type Registry struct {
	mu       sync.RWMutex
	handlers [256]FrameHandler
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register replaces any handler already bound to id.
func (r *Registry) Register(id byte, h FrameHandler) {
	r.mu.Lock()
	r.handlers[id] = h
	r.mu.Unlock()
}

func (r *Registry) RegisterFunc(id byte, f func(*framing.Reader) error) {
	r.Register(id, HandlerFunc(f))
}

func (r *Registry) Unregister(id byte) {
	r.mu.Lock()
	r.handlers[id] = nil
	r.mu.Unlock()
}

func (r *Registry) Lookup(id byte) FrameHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[id]
}
