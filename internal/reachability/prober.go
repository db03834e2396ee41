package reachability

import (
	"context"
	"net"
	"time"

	"gomate/internal/logger"
)

// ProberConfig configures the connectivity probe.
type ProberConfig struct {
	Address  string        // host:port dialed over TCP
	Interval time.Duration
	Timeout  time.Duration
}

// Dialer opens a connection. net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Prober periodically dials a well-known address and feeds the result
// into a Monitor.
type Prober struct {
	cfg     ProberConfig
	monitor *Monitor
	dialer  Dialer
	logger  logger.Logger
}

// NewProber creates a prober. A nil dialer uses net.Dialer.
func NewProber(cfg ProberConfig, monitor *Monitor, dialer Dialer, log logger.Logger) *Prober {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Prober{cfg: cfg, monitor: monitor, dialer: dialer, logger: log}
}

// Probe dials once and updates the monitor. It returns the observed offline state.
func (p *Prober) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", p.cfg.Address)
	offline := err != nil
	if err != nil {
		p.logger.Debug("Reachability probe failed", "address", p.cfg.Address, "error", err)
	} else {
		_ = conn.Close()
	}

	p.monitor.Set(offline)
	return offline
}

// Run probes immediately and then on every interval until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	p.logger.Info("Starting reachability prober", "address", p.cfg.Address, "interval", p.cfg.Interval)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Stopping reachability prober")
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}
