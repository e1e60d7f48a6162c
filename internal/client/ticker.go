package client

import (
	"context"
	"time"

	"shardlink/internal/flog"
	"shardlink/internal/socket"
)

func (c *Client) ticker(ctx context.Context) {
	tick := time.NewTicker(max(c.cfg.Network.Tick(), time.Millisecond))
	defer tick.Stop()

	var pingC <-chan time.Time
	if interval := c.cfg.Network.Ping(); interval > 0 {
		ping := time.NewTicker(interval)
		defer ping.Stop()
		pingC = ping.C
	}

	for {
		select {
		case <-tick.C:
			c.update(c.login)
			c.update(c.game)
		case <-pingC:
			c.ping()
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) update(t *socket.Transport) {
	if err := t.Update(); err != nil {
		flog.Debugf("%s: update: %v", t.Name(), err)
	}
}

// ping sends a keepalive on the game connection, or on the login connection
// while there is no game connection yet.
func (c *Client) ping() {
	t := c.game
	if t.State() != socket.Connected {
		t = c.login
		if t.State() != socket.Connected {
			return
		}
	}
	c.mu.Lock()
	c.pingSeq++
	seq := c.pingSeq
	c.pingSent = time.Now()
	c.mu.Unlock()

	w := c.table.NewWriter(idPing)
	w.WriteUint8(seq)
	if err := t.SendFrame(w); err != nil {
		flog.Debugf("%s: ping %d: %v", t.Name(), seq, err)
	}
}
