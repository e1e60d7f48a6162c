package socket

import (
	"context"
	"fmt"
	"net"
	"time"

	"shardlink/internal/conf"

	"github.com/txthinking/socks5"
)

type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// NewDialer returns the dialer configured by the proxy section.
func NewDialer(cfg *conf.Proxy, timeout time.Duration) (Dialer, error) {
	switch cfg.Type {
	case "", "direct":
		return newDirectDialer(timeout), nil
	case "socks5":
		return newSOCKS5Dialer(cfg.Addr, cfg.Username, cfg.Password, timeout)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDialer, cfg.Type)
}

type directDialer struct {
	d *net.Dialer
}

func (d *directDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return d.d.DialContext(ctx, network, address)
}

func newDirectDialer(timeout time.Duration) Dialer {
	return &directDialer{
		d: &net.Dialer{Timeout: timeout},
	}
}

type socks5Dialer struct {
	client *socks5.Client
}

func (d *socks5Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := d.client.Dial(network, address)
		done <- result{conn, err}
	}()
	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		select {
		case <-ctx.Done():
			res.conn.Close()
			return nil, ctx.Err()
		default:
			return res.conn, nil
		}
	case <-ctx.Done():
		// the handshake goroutine still owns a connection it may open later
		go func() {
			if res := <-done; res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

func newSOCKS5Dialer(addr, username, password string, timeout time.Duration) (Dialer, error) {
	secs := max(int(timeout/time.Second), 1)
	client, err := socks5.NewClient(addr, username, password, secs, secs)
	if err != nil {
		return nil, err
	}
	return &socks5Dialer{client: client}, nil
}
