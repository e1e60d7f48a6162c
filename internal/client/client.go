package client

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"shardlink/internal/conf"
	"shardlink/internal/dispatch"
	"shardlink/internal/flog"
	"shardlink/internal/framing"
	"shardlink/internal/metrics"
	"shardlink/internal/pkg/iterator"
	"shardlink/internal/plugin"
	"shardlink/internal/socket"
)

const (
	LoginTransport = "login"
	GameTransport  = "game"
)

type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseLogin
	PhaseRelay
	PhaseGame
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLogin:
		return "login"
	case PhaseRelay:
		return "relay"
	case PhaseGame:
		return "game"
	}
	return fmt.Sprintf("Phase(%d)", int32(p))
}

type Option func(*Client)

func WithPlugins(chain *plugin.Chain) Option {
	return func(c *Client) { c.plugins = chain }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithDialer(d socket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// Client walks one account through the login server, follows the relay to
// the game server and keeps that connection alive. Both transports are
// ticked from a single goroutine, so frame handlers never run concurrently.
type Client struct {
	cfg     *conf.Conf
	table   *framing.Table
	servers *iterator.Iterator[string]
	dialer  socket.Dialer
	plugins *plugin.Chain
	metrics *metrics.Metrics

	loginHandlers *dispatch.Registry
	gameHandlers  *dispatch.Registry
	login         *socket.Transport
	game          *socket.Transport

	phase  atomic.Int32
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	relay    relay
	shards   []Shard
	denied   string
	retry    *time.Timer
	pingSeq  uint8
	pingSent time.Time
	rtt      time.Duration
}

func New(cfg *conf.Conf, opts ...Option) (*Client, error) {
	c := &Client{
		cfg:           cfg,
		table:         framing.Build(cfg.Protocol.ClientVersion),
		servers:       iterator.New(cfg.Login.Servers...),
		loginHandlers: dispatch.NewRegistry(),
		gameHandlers:  dispatch.NewRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.servers.Len() == 0 {
		return nil, fmt.Errorf("no login servers configured")
	}
	if c.dialer == nil {
		d, err := socket.NewDialer(&cfg.Proxy, cfg.Network.DialTimeout())
		if err != nil {
			return nil, fmt.Errorf("failed to create dialer: %w", err)
		}
		c.dialer = d
	}

	c.login = socket.New(LoginTransport, &cfg.Network, c.table, c.loginHandlers, c.transportOptions(LoginTransport,
		socket.OnConnected(c.onLoginConnected),
		socket.OnDisconnected(c.onLoginDisconnected),
	)...)
	c.game = socket.New(GameTransport, &cfg.Network, c.table, c.gameHandlers, c.transportOptions(GameTransport,
		socket.OnConnected(c.onGameConnected),
		socket.OnDisconnected(c.onGameDisconnected),
	)...)

	c.registerLogin()
	c.registerGame()

	if c.plugins != nil {
		if err := c.plugins.Attach(LoginTransport, c.login); err != nil {
			return nil, err
		}
		if err := c.plugins.Attach(GameTransport, c.game); err != nil {
			return nil, err
		}
	}
	flog.Debugf("client %s, %d login server(s)", c.table.Version(), c.servers.Len())
	return c, nil
}

func (c *Client) transportOptions(name string, opts ...socket.Option) []socket.Option {
	opts = append(opts, socket.WithDialer(c.dialer), socket.WithMetrics(c.metrics))
	if c.plugins != nil {
		f := c.plugins.For(name)
		opts = append(opts, socket.WithInboundFilter(f), socket.WithOutboundFilter(f))
	}
	return opts
}

// Start connects to the first login server and runs the tick loop until ctx
// is cancelled or Close is called.
func (c *Client) Start(ctx context.Context) error {
	if c.ctx != nil {
		return fmt.Errorf("client already started")
	}
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.ticker(c.ctx)
	}()
	c.spawn(c.connectLogin)
	return nil
}

// Close stops the tick loop, waits for dials and pending retries to finish,
// drops both connections and closes the plugins.
func (c *Client) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Lock()
	c.stopRetry()
	c.mu.Unlock()
	c.wg.Wait()

	c.login.Disconnect(socket.ReasonLocal)
	c.game.Disconnect(socket.ReasonLocal)
	if c.plugins != nil {
		return c.plugins.Close()
	}
	return nil
}

func (c *Client) Phase() Phase { return Phase(c.phase.Load()) }

func (c *Client) Login() *socket.Transport { return c.login }

func (c *Client) Game() *socket.Transport { return c.game }

func (c *Client) Table() *framing.Table { return c.table }

// Handle registers h for frame id on the game connection, replacing any
// built-in handler.
func (c *Client) Handle(id byte, h dispatch.FrameHandler) {
	c.gameHandlers.Register(id, h)
}

func (c *Client) HandleLogin(id byte, h dispatch.FrameHandler) {
	c.loginHandlers.Register(id, h)
}

// Shards returns the server list last received from the login server.
func (c *Client) Shards() []Shard {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Shard(nil), c.shards...)
}

func (c *Client) RTT() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rtt
}

type Status struct {
	Version string        `json:"client_version"`
	Phase   string        `json:"phase"`
	RTTMs   float64       `json:"rtt_ms"`
	Denied  string        `json:"denied,omitempty"`
	Shards  []Shard       `json:"shards,omitempty"`
	Login   socket.Status `json:"login"`
	Game    socket.Status `json:"game"`
	Plugins []string      `json:"plugins,omitempty"`
}

func (c *Client) Status() Status {
	s := Status{
		Version: c.table.Version().String(),
		Phase:   c.Phase().String(),
		Shards:  c.Shards(),
		Login:   c.login.Status(),
		Game:    c.game.Status(),
	}
	c.mu.Lock()
	s.RTTMs = float64(c.rtt.Microseconds()) / 1000
	s.Denied = c.denied
	c.mu.Unlock()
	if c.plugins != nil {
		s.Plugins = c.plugins.Names()
	}
	return s
}
