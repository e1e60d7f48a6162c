package plugin

import (
	"errors"
	"sync"

	"shardlink/internal/flog"
)

// Plugin intercepts frames on their way into the dispatcher and out to the
// socket. Returning false drops the frame; the returned slice replaces it.
type Plugin interface {
	Name() string
	OnRecv(transport string, frame []byte) ([]byte, bool)
	OnSend(transport string, frame []byte) ([]byte, bool)
	Close() error
}

// Host is the side of a transport a plugin may drive from its own goroutine.
type Host interface {
	InjectInbound(frame []byte)
}

// Attacher is implemented by plugins that produce frames for a transport.
type Attacher interface {
	Attach(transport string, host Host) error
}

// Chain runs plugins in registration order; the first veto stops it.
type Chain struct {
	mu      sync.RWMutex
	plugins []Plugin
}

func NewChain(plugins ...Plugin) *Chain {
	return &Chain{plugins: plugins}
}

func (c *Chain) Add(p Plugin) {
	c.mu.Lock()
	c.plugins = append(c.plugins, p)
	c.mu.Unlock()
}

func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.plugins)
}

func (c *Chain) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.plugins))
	for i, p := range c.plugins {
		names[i] = p.Name()
	}
	return names
}

func (c *Chain) recv(transport string, frame []byte) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.plugins {
		out, ok := p.OnRecv(transport, frame)
		if !ok {
			flog.Debugf("%s: plugin %s vetoed inbound frame 0x%02X", transport, p.Name(), frame[0])
			return nil, false
		}
		if len(out) == 0 {
			return nil, false
		}
		frame = out
	}
	return frame, true
}

func (c *Chain) send(transport string, frame []byte) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.plugins {
		out, ok := p.OnSend(transport, frame)
		if !ok {
			flog.Debugf("%s: plugin %s vetoed outbound frame 0x%02X", transport, p.Name(), frame[0])
			return nil, false
		}
		if len(out) == 0 {
			return nil, false
		}
		frame = out
	}
	return frame, true
}

// Attach hands host to every plugin that produces frames.
func (c *Chain) Attach(transport string, host Host) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.plugins {
		if a, ok := p.(Attacher); ok {
			if err := a.Attach(transport, host); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Chain) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for _, p := range c.plugins {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.plugins = nil
	return errors.Join(errs...)
}

// For binds the chain to one transport. The result is both the inbound
// filter of its dispatcher and the outbound filter of the transport.
func (c *Chain) For(transport string) *Filter {
	return &Filter{chain: c, transport: transport}
}

type Filter struct {
	chain     *Chain
	transport string
}

func (f *Filter) FilterInbound(frame []byte) ([]byte, bool) {
	return f.chain.recv(f.transport, frame)
}

func (f *Filter) FilterOutbound(frame []byte) ([]byte, bool) {
	return f.chain.send(f.transport, frame)
}
