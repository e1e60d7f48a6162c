package plugin

import (
	"fmt"
	"sync"
	"sync/atomic"

	"shardlink/internal/flog"

	"github.com/nats-io/nats.go"
)

// Publisher is the part of a NATS connection the tap publishes through.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSTap mirrors frames to <prefix>.<transport>.in.<id> and
// <prefix>.<transport>.out.<id>, and injects the payload of every message
// on <prefix>.<transport>.inject into that transport. It never drops frames.
type NATSTap struct {
	pub    Publisher
	conn   *nats.Conn
	prefix string
	errors atomic.Uint64

	mu   sync.Mutex
	subs []*nats.Subscription
}

func NewNATSTap(pub Publisher, prefix string) *NATSTap {
	t := &NATSTap{pub: pub, prefix: prefix}
	if nc, ok := pub.(*nats.Conn); ok {
		t.conn = nc
	}
	return t
}

func DialNATS(url, prefix string) (*NATSTap, error) {
	nc, err := nats.Connect(url, nats.Name("shardlink"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	return NewNATSTap(nc, prefix), nil
}

func (t *NATSTap) Name() string { return "nats" }

func (t *NATSTap) Subject(transport, dir string, id byte) string {
	return fmt.Sprintf("%s.%s.%s.%02x", t.prefix, transport, dir, id)
}

func (t *NATSTap) OnRecv(transport string, frame []byte) ([]byte, bool) {
	t.publish(t.Subject(transport, "in", frame[0]), frame)
	return frame, true
}

func (t *NATSTap) OnSend(transport string, frame []byte) ([]byte, bool) {
	t.publish(t.Subject(transport, "out", frame[0]), frame)
	return frame, true
}

func (t *NATSTap) publish(subject string, frame []byte) {
	if err := t.pub.Publish(subject, frame); err != nil {
		if t.errors.Add(1) == 1 {
			flog.Warnf("nats publish to %s failed: %v", subject, err)
		}
	}
}

// Errors counts failed publishes; only the first one is logged.
func (t *NATSTap) Errors() uint64 { return t.errors.Load() }

func (t *NATSTap) Attach(transport string, host Host) error {
	if t.conn == nil {
		return nil
	}
	subject := fmt.Sprintf("%s.%s.inject", t.prefix, transport)
	sub, err := t.conn.Subscribe(subject, func(msg *nats.Msg) {
		if len(msg.Data) == 0 {
			return
		}
		host.InjectInbound(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	t.mu.Lock()
	t.subs = append(t.subs, sub)
	t.mu.Unlock()
	flog.Infof("%s: accepting injected frames on %s", transport, subject)
	return nil
}

func (t *NATSTap) Close() error {
	t.mu.Lock()
	for _, sub := range t.subs {
		_ = sub.Unsubscribe()
	}
	t.subs = nil
	t.mu.Unlock()
	if t.conn != nil {
		return t.conn.Drain()
	}
	return nil
}
