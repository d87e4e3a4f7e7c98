package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/canvasser/internal/logging"
)

const pingTimeout = 3 * time.Second

// Connectivity polls the remote store and keeps SyncService's online flag
// current. Going online triggers one Flush for the active user; a failed
// flush is only logged.
type Connectivity struct {
	sync     *SyncService
	user     func() string
	interval time.Duration
	logger   logging.Logger

	// OnChange, if set, is called after every transition.
	OnChange func(online bool)
}

func NewConnectivity(s *SyncService, user func() string, interval time.Duration, logger logging.Logger) *Connectivity {
	return &Connectivity{sync: s, user: user, interval: interval, logger: logger.With("module", "connectivity")}
}

// Run checks once immediately, then on every tick until ctx is done.
func (c *Connectivity) Run(ctx context.Context) {
	c.Check(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Check pings once and handles a transition.
func (c *Connectivity) Check(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := c.sync.Ping(pctx)
	cancel()

	online := err == nil
	if !c.sync.SetOnline(online) {
		return
	}

	if online {
		c.logger.Info(ctx, "switched to online mode")
	} else {
		c.logger.Info(ctx, "switched to offline mode", "error", err)
	}
	if c.OnChange != nil {
		c.OnChange(online)
	}

	if !online {
		return
	}
	user := c.user()
	if user == "" {
		return
	}
	if n, err := c.sync.Flush(ctx, user); err != nil {
		c.logger.Warn(ctx, "flush on reconnect failed", "user", user, "error", err)
	} else if n > 0 {
		c.logger.Info(ctx, "flushed on reconnect", "user", user, "records", n)
	}
}
