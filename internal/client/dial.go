package client

import (
	"encoding/binary"
	"math/rand/v2"
	"net"
	"time"

	"shardlink/internal/crypt"
	"shardlink/internal/flog"
	"shardlink/internal/socket"
)

type relay struct {
	addr string
	key  uint32
}

func (c *Client) connectLogin() {
	if c.ctx.Err() != nil {
		return
	}
	addr := c.servers.Next()
	c.phase.Store(int32(PhaseLogin))
	// failures come back through onLoginDisconnected
	_ = c.login.ConnectAddr(c.ctx, addr)
}

func (c *Client) connectGame(r relay) {
	if c.ctx.Err() != nil {
		return
	}
	c.mu.Lock()
	c.relay = r
	c.mu.Unlock()
	_ = c.game.ConnectAddr(c.ctx, r.addr)
}

// spawn runs fn on a goroutine Close waits for, unless the client is closing.
func (c *Client) spawn(fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx.Err() != nil {
		return false
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
	return true
}

// scheduleRetry starts over at the next login server after the retry pause.
func (c *Client) scheduleRetry() {
	if c.ctx.Err() != nil {
		return
	}
	c.phase.Store(int32(PhaseIdle))
	d := time.Duration(c.cfg.Login.RetrySec) * time.Second

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx.Err() != nil {
		return
	}
	c.stopRetry()
	flog.Infof("retrying %s in %s", c.servers.Peek(), d)
	c.wg.Add(1)
	c.retry = time.AfterFunc(d, func() {
		defer c.wg.Done()
		c.connectLogin()
	})
}

// stopRetry cancels a pending retry; c.mu must be held.
func (c *Client) stopRetry() {
	if c.retry != nil && c.retry.Stop() {
		c.wg.Done()
	}
	c.retry = nil
}

func (c *Client) onLoginConnected(t *socket.Transport) {
	if c.ctx.Err() != nil {
		t.Disconnect(socket.ReasonLocal)
		return
	}
	seed := c.cfg.Login.Seed
	if seed == 0 {
		seed = localSeed(t.LocalAddr())
	}
	c.mu.Lock()
	c.denied = ""
	c.mu.Unlock()

	if err := c.sendSeed(t, seed); err != nil {
		flog.Errorf("failed to send login seed: %v", err)
		t.Disconnect(socket.ReasonSocketError)
		return
	}
	if err := c.applyCipher(t, seed); err != nil {
		flog.Errorf("failed to set up %s cipher: %v", c.cfg.Crypto.Mode, err)
		t.Disconnect(socket.ReasonLocal)
		return
	}
	if err := c.sendAccountLogin(t); err != nil {
		flog.Errorf("failed to send account login: %v", err)
		t.Disconnect(socket.ReasonSocketError)
	}
}

func (c *Client) onLoginDisconnected(_ *socket.Transport, reason socket.Reason, _ error) {
	switch reason {
	case socket.ReasonRelay:
		return
	case socket.ReasonLocal:
		if c.Phase() == PhaseLogin {
			c.phase.Store(int32(PhaseIdle))
		}
		return
	}
	c.scheduleRetry()
}

func (c *Client) onGameConnected(t *socket.Transport) {
	if c.ctx.Err() != nil {
		t.Disconnect(socket.ReasonLocal)
		return
	}
	c.mu.Lock()
	key := c.relay.key
	c.mu.Unlock()

	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], key)
	if err := t.SendRaw(raw[:]); err != nil {
		flog.Errorf("failed to send relay key: %v", err)
		t.Disconnect(socket.ReasonSocketError)
		return
	}
	if err := c.applyCipher(t, key); err != nil {
		flog.Errorf("failed to set up %s cipher: %v", c.cfg.Crypto.Mode, err)
		t.Disconnect(socket.ReasonLocal)
		return
	}
	// the server compresses everything it sends after the game login
	if c.cfg.Protocol.CompressionEnabled() {
		t.EnableCompression()
	}
	if err := c.sendGameLogin(t, key); err != nil {
		flog.Errorf("failed to send game login: %v", err)
		t.Disconnect(socket.ReasonSocketError)
		return
	}
	c.phase.Store(int32(PhaseGame))
}

func (c *Client) onGameDisconnected(_ *socket.Transport, reason socket.Reason, _ error) {
	if reason == socket.ReasonLocal {
		c.phase.Store(int32(PhaseIdle))
		return
	}
	c.scheduleRetry()
}

func (c *Client) applyCipher(t *socket.Transport, seed uint32) error {
	if c.cfg.Crypto.Mode == "" || c.cfg.Crypto.Mode == "none" {
		return nil
	}
	cipher, err := crypt.New(c.cfg.Crypto.Mode, crypt.DeriveKey(c.cfg.Crypto.Secret, seed))
	if err != nil {
		return err
	}
	return t.SetCipher(cipher)
}

// localSeed is the local IPv4 address as a big-endian integer, or a random
// value when there is none.
func localSeed(addr net.Addr) uint32 {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		if ip4 := tcp.IP.To4(); ip4 != nil && !ip4.IsUnspecified() {
			return binary.BigEndian.Uint32(ip4)
		}
	}
	return rand.Uint32()
}
