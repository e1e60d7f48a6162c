package client

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"shardlink/internal/conf"
	"shardlink/internal/crypt"
	"shardlink/internal/dispatch"
	"shardlink/internal/framing"
	"shardlink/internal/huffman"
	"shardlink/internal/plugin"
)

type server struct {
	ln    net.Listener
	conns chan net.Conn
}

func newServer(t *testing.T) *server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := &server{ln: ln, conns: make(chan net.Conn, 4)}
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			s.conns <- c
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *server) addr() string { return s.ln.Addr().String() }

func (s *server) accept(t *testing.T) net.Conn {
	t.Helper()
	select {
	case c := <-s.conns:
		t.Cleanup(func() { c.Close() })
		return c
	case <-time.After(3 * time.Second):
		t.Fatal("no connection accepted")
		return nil
	}
}

func readN(t *testing.T, c net.Conn, n int) []byte {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(3 * time.Second))
	buf := make([]byte, n)
	if _, err := io.ReadFull(c, buf); err != nil {
		t.Fatalf("server read: %v", err)
	}
	return buf
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func testConf(t *testing.T, loginAddr string, extra string) *conf.Conf {
	t.Helper()
	data := fmt.Sprintf(`
login:
  servers: ["%s"]
  username: alice
  password: hunter22
  seed: 16909060
network:
  tick_ms: 2
%s`, loginAddr, extra)
	cfg, err := conf.Load([]byte(data))
	if err != nil {
		t.Fatalf("conf.Load() error = %v", err)
	}
	return cfg
}

func serverList(t *testing.T, names ...string) []byte {
	t.Helper()
	w := framing.Build(framing.VLatest).NewWriter(idServerList)
	w.WriteUint8(0x5D)
	w.WriteUint16(uint16(len(names)))
	for i, name := range names {
		w.WriteUint16(uint16(i * 3))
		w.WriteASCII(name, 32)
		w.WriteUint8(uint8(10 * i))
		w.WriteUint8(0)
		w.WriteBytes([]byte{1, 0, 0, 127})
	}
	frame, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	return frame
}

func relayFrame(t *testing.T, addr string, key uint32) []byte {
	t.Helper()
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(p)
	frame := []byte{idRelay, 127, 0, 0, 1, 0, 0, 0, 0, 0, 0}
	binary.BigEndian.PutUint16(frame[5:], uint16(port))
	binary.BigEndian.PutUint32(frame[7:], key)
	return frame
}

func TestLoginRelayGame(t *testing.T) {
	login := newServer(t)
	game := newServer(t)
	cfg := testConf(t, login.addr(), "  ping_sec: 600\n")
	cfg.Login.Shard = "bravo"

	var recorded [][]byte
	chain := plugin.NewChain(recorder(func(frame []byte) { recorded = append(recorded, frame) }))
	c, err := New(cfg, WithPlugins(chain))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got := make(chan byte, 1)
	c.Handle(0x55, dispatch.HandlerFunc(func(r *framing.Reader) error {
		got <- r.ID()
		return nil
	}))
	if err := c.Start(t.Context()); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	lc := login.accept(t)
	seed := readN(t, lc, 21)
	if seed[0] != idLoginSeed || binary.BigEndian.Uint32(seed[1:]) != 0x01020304 {
		t.Fatalf("seed frame = % x", seed)
	}
	if major := binary.BigEndian.Uint32(seed[5:]); major != uint32(framing.VLatest.Major()) {
		t.Errorf("seed major = %d, want %d", major, framing.VLatest.Major())
	}
	acct := readN(t, lc, 62)
	if acct[0] != idAccountLogin || !bytes.HasPrefix(acct[1:], []byte("alice\x00")) || !bytes.HasPrefix(acct[31:], []byte("hunter22\x00")) {
		t.Fatalf("account login = % x", acct)
	}

	if _, err := lc.Write(serverList(t, "Alpha", "Bravo")); err != nil {
		t.Fatal(err)
	}
	if sel := readN(t, lc, 3); !bytes.Equal(sel, []byte{idSelectServer, 0, 3}) {
		t.Fatalf("select server = % x, want a0 00 03", sel)
	}

	const key = 0xCAFEBABE
	if _, err := lc.Write(relayFrame(t, game.addr(), key)); err != nil {
		t.Fatal(err)
	}
	_ = lc.SetReadDeadline(time.Now().Add(3 * time.Second))
	if n, err := lc.Read(make([]byte, 1)); err == nil {
		t.Errorf("login connection still open after relay, read %d bytes", n)
	}

	gc := game.accept(t)
	if raw := readN(t, gc, 4); binary.BigEndian.Uint32(raw) != key {
		t.Fatalf("relay key = % x", raw)
	}
	gl := readN(t, gc, 65)
	if gl[0] != idGameLogin || binary.BigEndian.Uint32(gl[1:]) != key || !bytes.HasPrefix(gl[5:], []byte("alice\x00")) {
		t.Fatalf("game login = % x", gl)
	}

	if _, err := gc.Write(huffman.Encoder{}.Encode(nil, []byte{0x55})); err != nil {
		t.Fatal(err)
	}
	select {
	case id := <-got:
		if id != 0x55 {
			t.Errorf("handler got 0x%02X", id)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("compressed frame not dispatched")
	}

	waitFor(t, "game phase", func() bool { return c.Phase() == PhaseGame })
	st := c.Status()
	if len(st.Shards) != 2 || st.Shards[1].Name != "Bravo" || st.Shards[1].Addr.String() != "127.0.0.1" {
		t.Errorf("Status().Shards = %+v", st.Shards)
	}
	if st.Login.State != "disconnected" || st.Game.State != "connected" || !st.Game.Compression {
		t.Errorf("Status() login %s, game %s compression %v", st.Login.State, st.Game.State, st.Game.Compression)
	}
	if len(recorded) != 3 {
		t.Errorf("plugin saw %d inbound frames, want 3", len(recorded))
	}
}

func TestLoginDenied(t *testing.T) {
	login := newServer(t)
	c, err := New(testConf(t, login.addr(), ""))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(t.Context()); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	lc := login.accept(t)
	readN(t, lc, 21+62)
	if _, err := lc.Write([]byte{idLoginDenied, 0x03}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "denial", func() bool {
		st := c.Status()
		return st.Denied != "" && st.Phase == "idle"
	})
	if got := c.Status().Denied; got != "credentials invalid" {
		t.Errorf("Denied = %q", got)
	}
	if st := c.Login().State().String(); st != "disconnected" {
		t.Errorf("login state = %s", st)
	}
}

func TestLegacySeedWithCipher(t *testing.T) {
	login := newServer(t)
	cfg := testConf(t, login.addr(), "protocol:\n  client_version: 5.0.0\ncrypto:\n  mode: chacha20\n  secret: correct-horse\n")
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(t.Context()); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	lc := login.accept(t)
	if raw := readN(t, lc, 4); binary.BigEndian.Uint32(raw) != 0x01020304 {
		t.Fatalf("seed = % x", raw)
	}
	server, err := crypt.NewChaCha20Server(crypt.DeriveKey("correct-horse", 0x01020304))
	if err != nil {
		t.Fatal(err)
	}
	acct := readN(t, lc, 62)
	server.Decrypt(acct, acct)
	if acct[0] != idAccountLogin || !bytes.HasPrefix(acct[1:], []byte("alice\x00")) {
		t.Fatalf("decrypted account login = % x", acct)
	}
}

func TestRetryNextServer(t *testing.T) {
	dead, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	deadAddr := dead.Addr().String()
	dead.Close()

	login := newServer(t)
	cfg := testConf(t, deadAddr, "")
	cfg.Login.Servers = append(cfg.Login.Servers, login.addr())
	cfg.Login.RetrySec = 1
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(t.Context()); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	lc := login.accept(t)
	if seed := readN(t, lc, 21); seed[0] != idLoginSeed {
		t.Errorf("seed frame = % x", seed)
	}
}

func TestCloseCancelsPendingRetry(t *testing.T) {
	dead, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	deadAddr := dead.Addr().String()
	dead.Close()

	login := newServer(t)
	cfg := testConf(t, deadAddr, "")
	cfg.Login.Servers = append(cfg.Login.Servers, login.addr())
	cfg.Login.RetrySec = 1
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(t.Context()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "pending retry", func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.retry != nil
	})

	start := time.Now()
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if d := time.Since(start); d > 500*time.Millisecond {
		t.Errorf("Close() took %s with a retry pending", d)
	}
	select {
	case <-login.conns:
		t.Error("retry dialed the next server after Close")
	case <-time.After(1500 * time.Millisecond):
	}
	if p := c.Phase(); p != PhaseIdle {
		t.Errorf("Phase() = %s after Close, want idle", p)
	}
}

func TestConnectGameWithoutCompressionSetting(t *testing.T) {
	game := newServer(t)
	cfg := testConf(t, "127.0.0.1:1", "")
	cfg.Protocol.Compression = nil
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(t.Context()); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.spawn(func() { c.connectGame(relay{addr: game.addr(), key: 7}) })
	gc := game.accept(t)
	if gl := readN(t, gc, 4+65); gl[4] != idGameLogin {
		t.Fatalf("game login = % x", gl)
	}
	if !c.Game().Compressed() {
		t.Error("unset compression setting left compression off")
	}
}

type recorder func(frame []byte)

func (recorder) Name() string { return "recorder" }

func (r recorder) OnRecv(_ string, frame []byte) ([]byte, bool) {
	r(append([]byte(nil), frame...))
	return frame, true
}

func (recorder) OnSend(_ string, frame []byte) ([]byte, bool) { return frame, true }

func (recorder) Close() error { return nil }
