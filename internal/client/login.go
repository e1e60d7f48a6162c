package client

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"

	"shardlink/internal/flog"
	"shardlink/internal/framing"
	"shardlink/internal/socket"
)

const (
	idAccountLogin = 0x80
	idLoginDenied  = 0x82
	idRelay        = 0x8C
	idGameLogin    = 0x91
	idSelectServer = 0xA0
	idServerList   = 0xA8
	idLoginSeed    = 0xEF
)

const credentialLen = 30

// loginKey is the trailing byte of the account login; servers ignore it.
const loginKey = 0xFF

var denyReasons = map[uint8]string{
	0x00: "incorrect name or password",
	0x01: "account already in use",
	0x02: "account blocked",
	0x03: "credentials invalid",
	0x04: "communication problem",
	0x05: "concurrent IP limit reached",
	0x06: "play time exhausted",
	0x07: "general authentication failure",
}

func denyReason(code uint8) string {
	if s, ok := denyReasons[code]; ok {
		return s
	}
	return fmt.Sprintf("reason 0x%02X", code)
}

// Shard is one entry of the login server's server list.
type Shard struct {
	Index    uint16 `json:"index"`
	Name     string `json:"name"`
	Full     uint8  `json:"percent_full"`
	Timezone int8   `json:"timezone"`
	Addr     net.IP `json:"addr"`
}

// sendSeed opens the login stream. Clients that know frame 0xEF announce
// their version with it; older ones send the bare seed.
func (c *Client) sendSeed(t *socket.Transport, seed uint32) error {
	if c.table.Version() < framing.V6050 {
		var raw [4]byte
		binary.BigEndian.PutUint32(raw[:], seed)
		return t.SendRaw(raw[:])
	}
	v := c.table.Version()
	w := c.table.NewWriter(idLoginSeed)
	w.WriteUint32(seed)
	w.WriteUint32(uint32(v.Major()))
	w.WriteUint32(uint32(v.Minor()))
	w.WriteUint32(uint32(v.Build()))
	w.WriteUint32(uint32(v.Revision()))
	frame, err := w.Finish()
	if err != nil {
		return err
	}
	return t.SendRaw(frame)
}

func (c *Client) sendAccountLogin(t *socket.Transport) error {
	w := c.table.NewWriter(idAccountLogin)
	w.WriteASCII(c.cfg.Login.Username, credentialLen)
	w.WriteASCII(c.cfg.Login.Password, credentialLen)
	w.WriteUint8(loginKey)
	return t.SendFrame(w)
}

func (c *Client) sendGameLogin(t *socket.Transport, key uint32) error {
	w := c.table.NewWriter(idGameLogin)
	w.WriteUint32(key)
	w.WriteASCII(c.cfg.Login.Username, credentialLen)
	w.WriteASCII(c.cfg.Login.Password, credentialLen)
	return t.SendFrame(w)
}

func (c *Client) registerLogin() {
	c.loginHandlers.RegisterFunc(idServerList, c.handleServerList)
	c.loginHandlers.RegisterFunc(idRelay, c.handleRelay)
	c.loginHandlers.RegisterFunc(idLoginDenied, c.handleLoginDenied)
}

func parseServerList(r *framing.Reader) ([]Shard, error) {
	r.Skip(1) // flags
	count := int(r.ReadUint16())
	shards := make([]Shard, 0, min(count, 64))
	for i := 0; i < count && r.Err() == nil; i++ {
		s := Shard{
			Index:    r.ReadUint16(),
			Name:     r.ReadASCII(32),
			Full:     r.ReadUint8(),
			Timezone: int8(r.ReadUint8()),
		}
		// the address is stored least significant byte first
		ip := r.ReadBytes(4)
		if len(ip) == 4 {
			s.Addr = net.IPv4(ip[3], ip[2], ip[1], ip[0])
		}
		shards = append(shards, s)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("malformed server list: %w", err)
	}
	return shards, nil
}

// pickShard returns the shard called name, case-insensitively, or the first
// one when name is empty.
func pickShard(shards []Shard, name string) (Shard, bool) {
	if len(shards) == 0 {
		return Shard{}, false
	}
	if name == "" {
		return shards[0], true
	}
	for _, s := range shards {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Shard{}, false
}

func (c *Client) handleServerList(r *framing.Reader) error {
	shards, err := parseServerList(r)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.shards = shards
	c.mu.Unlock()

	s, ok := pickShard(shards, c.cfg.Login.Shard)
	if !ok {
		c.login.Disconnect(socket.ReasonLocal)
		return fmt.Errorf("shard %q not in server list of %d", c.cfg.Login.Shard, len(shards))
	}
	flog.Infof("selecting shard %d %q (%d%% full)", s.Index, s.Name, s.Full)
	w := c.table.NewWriter(idSelectServer)
	w.WriteUint16(s.Index)
	return c.login.SendFrame(w)
}

func (c *Client) handleRelay(r *framing.Reader) error {
	ip := r.ReadBytes(4)
	port := r.ReadUint16()
	key := r.ReadUint32()
	if err := r.Err(); err != nil {
		return fmt.Errorf("malformed relay: %w", err)
	}
	addr := net.JoinHostPort(net.IP(ip).String(), strconv.Itoa(int(port)))
	flog.Infof("relayed to game server %s", addr)

	c.phase.Store(int32(PhaseRelay))
	c.login.Disconnect(socket.ReasonRelay)

	rl := relay{addr: addr, key: key}
	if !c.spawn(func() { c.connectGame(rl) }) {
		c.phase.Store(int32(PhaseIdle))
	}
	return nil
}

func (c *Client) handleLoginDenied(r *framing.Reader) error {
	reason := denyReason(r.ReadUint8())
	flog.Errorf("login denied: %s", reason)
	c.mu.Lock()
	c.denied = reason
	c.mu.Unlock()
	c.login.Disconnect(socket.ReasonLocal)
	return nil
}
