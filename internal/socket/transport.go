package socket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"shardlink/internal/conf"
	"shardlink/internal/crypt"
	"shardlink/internal/dispatch"
	"shardlink/internal/flog"
	"shardlink/internal/framing"
	"shardlink/internal/huffman"
	"shardlink/internal/metrics"
	"shardlink/internal/pkg/buffer"

	"github.com/eapache/queue"
	"github.com/segmentio/ksuid"
)

// OutboundFilter sees every frame passed to Send before it is encrypted. It
// may return a modified frame, or false to drop it.
type OutboundFilter interface {
	FilterOutbound(frame []byte) ([]byte, bool)
}

type Option func(*Transport)

func WithDialer(d Dialer) Option {
	return func(t *Transport) { t.dialer = d }
}

func WithInboundFilter(f dispatch.InboundFilter) Option {
	return func(t *Transport) { t.dispatcher.SetFilter(f) }
}

func WithOutboundFilter(f OutboundFilter) Option {
	return func(t *Transport) { t.outFilter = f }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Transport) { t.metrics = m }
}

// OnConnected is called on the goroutine that ran Connect.
func OnConnected(fn func(t *Transport)) Option {
	return func(t *Transport) { t.onConnected = fn }
}

// OnDisconnected is called once per connection, on the goroutine that
// noticed the loss. A failed Connect reports ReasonConnectFailed.
func OnDisconnected(fn func(t *Transport, reason Reason, err error)) Option {
	return func(t *Transport) { t.onDisconnected = fn }
}

type chunk struct {
	buf *[]byte
	n   int
	err error
}

// link is one TCP connection; every Connect makes a new one.
type link struct {
	conn  net.Conn
	id    ksuid.KSUID
	addr  string
	since time.Time
	inbox chan chunk
	done  chan struct{}
}

type segment struct {
	data []byte
	off  int
}

const inboxDepth = 64

// Transport owns one TCP connection to a game server. Bytes are read by a
// per-connection goroutine and handed to Update, which applies decryption,
// decompression and dispatch on the caller's goroutine.
type Transport struct {
	name  string
	cfg   *conf.Network
	state atomic.Int32

	dialer         Dialer
	dispatcher     *dispatch.Dispatcher
	outFilter      OutboundFilter
	metrics        *metrics.Metrics
	onConnected    func(*Transport)
	onDisconnected func(*Transport, Reason, error)

	ring       *buffer.Ring
	injected   *buffer.Ring
	decomp     *huffman.Decompressor
	decompBuf  []byte
	compressed atomic.Bool
	updating   atomic.Bool

	// set by Connect, consumed by the tick before the next decompression
	resetDecomp atomic.Bool

	mu     sync.Mutex
	link   *link
	cipher crypt.Cipher
	sendq  *queue.Queue

	bytesIn  atomic.Uint64
	bytesOut atomic.Uint64
}

func New(name string, cfg *conf.Network, table *framing.Table, handlers *dispatch.Registry, opts ...Option) *Transport {
	// a compressed byte never expands to more than 4 bytes
	decompSize := max(cfg.DecompressBuffer, 4*cfg.ReadChunk)
	t := &Transport{
		name:       name,
		cfg:        cfg,
		dispatcher: dispatch.New(name, table, handlers),
		ring:       buffer.NewRing(buffer.GrowStep),
		injected:   buffer.NewRing(buffer.GrowStep),
		decomp:     huffman.NewDecompressor(),
		decompBuf:  make([]byte, decompSize),
		sendq:      queue.New(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.dialer == nil {
		t.dialer = newDirectDialer(cfg.DialTimeout())
	}
	t.dispatcher.SetMetrics(t.metrics)
	return t
}

func (t *Transport) Name() string { return t.name }

func (t *Transport) State() State { return State(t.state.Load()) }

func (t *Transport) Table() *framing.Table { return t.dispatcher.Table() }

// ConnID identifies the current connection in logs; empty when disconnected.
func (t *Transport) ConnID() string {
	if l := t.current(); l != nil {
		return l.id.String()
	}
	return ""
}

// LocalAddr is the local end of the current connection, or nil.
func (t *Transport) LocalAddr() net.Addr {
	if l := t.current(); l != nil {
		return l.conn.LocalAddr()
	}
	return nil
}

func (t *Transport) current() *link {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.link
}

func (t *Transport) Connect(ctx context.Context, host string, port int) error {
	return t.ConnectAddr(ctx, net.JoinHostPort(host, strconv.Itoa(port)))
}

// ConnectAddr dials addr, resets the per-connection state and raises
// OnConnected. A failed dial raises OnDisconnected with ReasonConnectFailed.
// It may run on any goroutine; the decompressor is reset by the next Update.
func (t *Transport) ConnectAddr(ctx context.Context, addr string) error {
	if !t.state.CompareAndSwap(int32(Disconnected), int32(Connecting)) {
		return ErrBusy
	}
	flog.Debugf("%s: connecting to %s", t.name, addr)

	dctx, cancel := context.WithTimeout(ctx, t.cfg.DialTimeout())
	conn, err := t.dialer.DialContext(dctx, "tcp", addr)
	cancel()
	if err != nil {
		t.state.Store(int32(Disconnected))
		err = fmt.Errorf("failed to connect %s to %s: %w", t.name, addr, err)
		flog.Warnf("%v", err)
		t.metrics.Disconnect(t.name, ReasonConnectFailed.String())
		if t.onDisconnected != nil {
			t.onDisconnected(t, ReasonConnectFailed, err)
		}
		return err
	}
	if nd, ok := conn.(interface{ SetNoDelay(bool) error }); ok {
		if err := nd.SetNoDelay(true); err != nil {
			flog.Debugf("%s: failed to set TCP_NODELAY: %v", t.name, err)
		}
	}

	t.ring.Clear()
	t.injected.Clear()
	t.resetDecomp.Store(true)
	t.compressed.Store(false)

	l := &link{
		conn:  conn,
		id:    ksuid.New(),
		addr:  addr,
		since: time.Now(),
		inbox: make(chan chunk, inboxDepth),
		done:  make(chan struct{}),
	}
	t.mu.Lock()
	t.link = l
	t.cipher = nil
	t.state.Store(int32(Connected))
	t.mu.Unlock()

	go t.readLoop(l)

	flog.Infof("%s [%s]: connected to %s", t.name, l.id, addr)
	t.metrics.Connected(t.name)
	if t.onConnected != nil {
		t.onConnected(t)
	}
	return nil
}

func (t *Transport) readLoop(l *link) {
	for {
		bufp := buffer.GetChunk(t.cfg.ReadChunk)
		n, err := l.conn.Read(*bufp)
		if n == 0 && err == nil {
			err = ErrZeroRead
		}
		select {
		case l.inbox <- chunk{buf: bufp, n: n, err: err}:
		case <-l.done:
			buffer.PutChunk(bufp)
			return
		}
		if err != nil {
			return
		}
	}
}

// Disconnect closes the connection, clears every buffer and raises
// OnDisconnected. It is a no-op when not connected and may be called by a
// handler in the middle of Update.
func (t *Transport) Disconnect(reason Reason) {
	t.disconnect(nil, reason, nil)
}

// disconnect tears down l, or the current link when l is nil, unless a
// newer connection already replaced it.
func (t *Transport) disconnect(l *link, reason Reason, cause error) bool {
	t.mu.Lock()
	if t.link == nil || (l != nil && t.link != l) {
		t.mu.Unlock()
		return false
	}
	l = t.link
	t.link = nil
	t.cipher = nil
	for t.sendq.Length() > 0 {
		t.sendq.Remove()
	}
	t.ring.Clear()
	t.injected.Clear()
	t.compressed.Store(false)
	t.state.Store(int32(Disconnected))
	t.mu.Unlock()

	close(l.done)
	l.conn.Close()
drain:
	for {
		select {
		case c := <-l.inbox:
			buffer.PutChunk(c.buf)
		default:
			break drain
		}
	}

	if cause != nil {
		flog.Warnf("%s [%s]: disconnected (%s): %v", t.name, l.id, reason, cause)
	} else {
		flog.Infof("%s [%s]: disconnected (%s)", t.name, l.id, reason)
	}
	t.metrics.Disconnect(t.name, reason.String())
	if t.onDisconnected != nil {
		t.onDisconnected(t, reason, cause)
	}
	return true
}

// Update runs one tick: bytes received since the last tick are decrypted,
// decompressed and dispatched, then queued segments are written. It is not
// reentrant; handlers may Send, InjectInbound and Disconnect.
func (t *Transport) Update() error {
	if !t.updating.CompareAndSwap(false, true) {
		return ErrReentrant
	}
	defer t.updating.Store(false)

	l := t.current()
	if l == nil {
		return nil
	}
	if err := t.receive(l); err != nil {
		return err
	}
	// unknown frames are logged and counted by the dispatcher
	_, _ = t.dispatcher.Drain(t.ring)
	if t.current() == l {
		_, _ = t.dispatcher.Drain(t.injected)
	}

	if l = t.current(); l == nil {
		return nil
	}
	return t.flush(l)
}

// receive consumes what the reader delivered before this tick began, so a
// fast sender cannot keep Update from returning.
func (t *Transport) receive(l *link) error {
	for pending := len(l.inbox); pending > 0; pending-- {
		var c chunk
		select {
		case c = <-l.inbox:
		default:
			return nil
		}
		if err := t.consume(l, c); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transport) consume(l *link, c chunk) error {
	defer buffer.PutChunk(c.buf)

	// chunks of a link replaced mid-tick must not reach the new stream
	if c.n > 0 && t.current() == l {
		data := (*c.buf)[:c.n]
		t.bytesIn.Add(uint64(c.n))
		t.metrics.AddBytes(t.name, metrics.InboundWire, c.n)

		t.mu.Lock()
		cipher := t.cipher
		t.mu.Unlock()
		if cipher != nil {
			cipher.Decrypt(data, data)
		}
		if t.resetDecomp.CompareAndSwap(true, false) {
			t.decomp.Reset()
		}
		if t.compressed.Load() {
			n, err := t.decomp.Decompress(t.decompBuf, data)
			if err != nil {
				err = fmt.Errorf("%w: %w", ErrStreamCorrupt, err)
				t.disconnect(l, ReasonStreamCorrupt, err)
				return err
			}
			data = t.decompBuf[:n]
		}
		t.ring.Enqueue(data)
		t.metrics.AddBytes(t.name, metrics.InboundPlain, len(data))
	}

	if c.err != nil {
		reason := ReasonSocketError
		if errors.Is(c.err, io.EOF) || errors.Is(c.err, ErrZeroRead) {
			reason = ReasonRemoteClosed
		}
		t.disconnect(l, reason, c.err)
		return c.err
	}
	return nil
}

// flush writes the segments queued before it started. A write that misses
// the tick deadline keeps its unsent tail at the head of the queue.
func (t *Transport) flush(l *link) error {
	t.mu.Lock()
	pending := t.sendq.Length()
	t.mu.Unlock()

	for ; pending > 0; pending-- {
		t.mu.Lock()
		if t.link != l || t.sendq.Length() == 0 {
			t.mu.Unlock()
			return nil
		}
		seg := t.sendq.Peek().(*segment)
		t.mu.Unlock()

		_ = l.conn.SetWriteDeadline(time.Now().Add(max(t.cfg.Tick(), time.Millisecond)))
		n, err := l.conn.Write(seg.data[seg.off:])
		seg.off += n
		t.bytesOut.Add(uint64(n))
		t.metrics.AddBytes(t.name, metrics.Outbound, n)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return nil
			}
			t.disconnect(l, ReasonSocketError, err)
			return err
		}

		t.mu.Lock()
		if t.link == l && t.sendq.Length() > 0 && t.sendq.Peek() == seg {
			t.sendq.Remove()
		}
		t.mu.Unlock()
	}
	return nil
}

// Send runs the outbound filter, encrypts and queues frame for the next
// Update. The frame is copied.
func (t *Transport) Send(frame []byte) error {
	if len(frame) == 0 {
		return nil
	}
	if t.outFilter != nil {
		out, ok := t.outFilter.FilterOutbound(frame)
		if !ok || len(out) == 0 {
			flog.Debugf("%s: outbound frame 0x%02X dropped by filter", t.name, frame[0])
			return nil
		}
		frame = out
	}
	return t.enqueue(frame, true)
}

// SendFrame finishes w and sends the frame.
func (t *Transport) SendFrame(w *framing.Writer) error {
	frame, err := w.Finish()
	if err != nil {
		return err
	}
	return t.Send(frame)
}

// SendRaw queues b as is, skipping the filter and the cipher. The handshake
// seed and the relay key go out this way.
func (t *Transport) SendRaw(b []byte) error {
	return t.enqueue(b, false)
}

func (t *Transport) enqueue(b []byte, encrypt bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.link == nil {
		return ErrNotConnected
	}
	if t.cfg.SendQueue > 0 && t.sendq.Length() >= t.cfg.SendQueue {
		return ErrSendQueueFull
	}
	seg := &segment{data: make([]byte, len(b))}
	if encrypt && t.cipher != nil {
		t.cipher.Encrypt(seg.data, b)
	} else {
		copy(seg.data, b)
	}
	t.sendq.Add(seg)
	return nil
}

// SetCipher installs the stream cipher for the rest of the connection.
func (t *Transport) SetCipher(c crypt.Cipher) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.link == nil {
		return ErrNotConnected
	}
	t.cipher = c
	return nil
}

// EnableCompression decompresses every byte received from now on. It stays
// on until the connection closes.
func (t *Transport) EnableCompression() {
	if t.compressed.CompareAndSwap(false, true) {
		flog.Debugf("%s: compression enabled", t.name)
	}
}

func (t *Transport) Compressed() bool { return t.compressed.Load() }

// InjectInbound queues a frame as if it had arrived from the server. Safe to
// call from any goroutine; it is dispatched on the next Update, after the
// frames received from the socket. Injected frames have their own buffer so
// they never land inside a partially received one.
func (t *Transport) InjectInbound(frame []byte) {
	t.injected.Enqueue(frame)
}

type Status struct {
	Name         string         `json:"name"`
	State        string         `json:"state"`
	ConnID       string         `json:"conn_id,omitempty"`
	Remote       string         `json:"remote,omitempty"`
	ConnectedSec float64        `json:"connected_sec,omitempty"`
	Compression  bool           `json:"compression"`
	Buffered     int            `json:"buffered"`
	Injected     int            `json:"injected"`
	SendQueue    int            `json:"send_queue"`
	BytesIn      uint64         `json:"bytes_in"`
	BytesOut     uint64         `json:"bytes_out"`
	Frames       dispatch.Stats `json:"frames"`
}

func (t *Transport) Status() Status {
	s := Status{
		Name:        t.name,
		State:       t.State().String(),
		Compression: t.compressed.Load(),
		Buffered:    t.ring.Len(),
		Injected:    t.injected.Len(),
		BytesIn:     t.bytesIn.Load(),
		BytesOut:    t.bytesOut.Load(),
		Frames:      t.dispatcher.Stats(),
	}
	t.mu.Lock()
	if l := t.link; l != nil {
		s.ConnID = l.id.String()
		s.Remote = l.addr
		s.ConnectedSec = time.Since(l.since).Seconds()
	}
	s.SendQueue = t.sendq.Length()
	t.mu.Unlock()
	return s
}
