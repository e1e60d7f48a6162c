package client

import (
	"time"

	"shardlink/internal/flog"
	"shardlink/internal/framing"
)

const (
	idPopup = 0x53
	idPing  = 0x73
)

var popupMessages = map[uint8]string{
	0x00: "incorrect password",
	0x01: "character does not exist",
	0x02: "character already exists",
	0x03: "could not attach to game server",
	0x04: "could not attach to game server",
	0x05: "another character is logged in",
	0x06: "synchronization failed",
	0x07: "idle too long",
	0x08: "could not attach to game server",
	0x09: "character transfer in progress",
}

func (c *Client) registerGame() {
	c.gameHandlers.RegisterFunc(idPing, c.handlePing)
	c.gameHandlers.RegisterFunc(idPopup, c.handlePopup)
	c.loginHandlers.RegisterFunc(idPopup, c.handlePopup)
}

func (c *Client) handlePopup(r *framing.Reader) error {
	code := r.ReadUint8()
	msg, ok := popupMessages[code]
	if !ok {
		msg = "unknown message"
	}
	flog.Warnf("server message 0x%02X: %s", code, msg)
	return nil
}

func (c *Client) handlePing(r *framing.Reader) error {
	seq := r.ReadUint8()
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.pingSeq || c.pingSent.IsZero() {
		flog.Debugf("unexpected ping reply %d", seq)
		return nil
	}
	c.rtt = time.Since(c.pingSent)
	c.pingSent = time.Time{}
	flog.Debugf("ping %d: rtt %s", seq, c.rtt)
	return nil
}
