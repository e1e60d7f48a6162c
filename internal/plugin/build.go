package plugin

import (
	"shardlink/internal/conf"
	"shardlink/internal/flog"
)

// FromConfig builds the chain the plugins section asks for, in a fixed
// order: the filter first so dropped frames are neither captured nor mirrored.
func FromConfig(cfg *conf.Plugins) (*Chain, error) {
	chain := NewChain()
	if cfg.Filter.Enabled() {
		chain.Add(NewDrop(cfg.Filter.DropInbound, cfg.Filter.DropOutbound))
	}
	if cfg.Capture.Path != "" {
		c, err := NewCapture(cfg.Capture.Path, cfg.Capture.Snaplen)
		if err != nil {
			chain.Close()
			return nil, err
		}
		chain.Add(c)
		flog.Infof("capturing frames to %s", cfg.Capture.Path)
	}
	if cfg.NATS.URL != "" {
		t, err := DialNATS(cfg.NATS.URL, cfg.NATS.Prefix)
		if err != nil {
			chain.Close()
			return nil, err
		}
		chain.Add(t)
		flog.Infof("mirroring frames to nats subjects %s.*", cfg.NATS.Prefix)
	}
	return chain, nil
}
