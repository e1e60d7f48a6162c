package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"shardlink/internal/admin"
	"shardlink/internal/client"
	"shardlink/internal/conf"
	"shardlink/internal/flog"
	"shardlink/internal/metrics"
	"shardlink/internal/plugin"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func startClient(cfg *conf.Conf) error {
	flog.SetLevel(cfg.Log.Level)
	defer flog.Close()

	flog.Infof("Starting client %s...", cfg.Protocol.ClientVersion)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		flog.Infof("Shutdown signal received, initiating graceful shutdown...")
		cancel()
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	chain, err := plugin.FromConfig(&cfg.Plugins)
	if err != nil {
		return fmt.Errorf("failed to initialize plugins: %w", err)
	}
	c, err := client.New(cfg, client.WithPlugins(chain), client.WithMetrics(metrics.New(reg)))
	if err != nil {
		chain.Close()
		return fmt.Errorf("failed to initialize client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		c.Close()
		return err
	}

	if cfg.Admin.Listen != "" {
		if err := admin.New(c, reg).Start(ctx, cfg.Admin.Listen); err != nil {
			flog.Errorf("Admin endpoint disabled: %v", err)
		}
	}

	<-ctx.Done()
	if err := c.Close(); err != nil {
		flog.Warnf("Plugins closed with: %v", err)
	}
	return nil
}
