package realtime

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultKeepAliveInterval is short enough for common proxy idle timeouts.
const DefaultKeepAliveInterval = 10 * time.Second

// KeepAliveWriter sends one keep-alive frame on a connection.
type KeepAliveWriter interface {
	WriteKeepAlive() error
}

// TickerKeepAlive pings a connection at a fixed interval until stopped or a
// write fails.
type TickerKeepAlive struct {
	interval time.Duration
	done     chan struct{}
	once     sync.Once
}

// NewTickerKeepAlive creates a keep-alive ticking every interval.
func NewTickerKeepAlive(interval time.Duration) *TickerKeepAlive {
	if interval <= 0 {
		interval = DefaultKeepAliveInterval
	}
	return &TickerKeepAlive{
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start runs the ticker in a goroutine. The returned channel closes when the
// keep-alive ends, either through Stop or a failed write.
func (k *TickerKeepAlive) Start(writer KeepAliveWriter, logger *slog.Logger) <-chan struct{} {
	stopped := make(chan struct{})
	ticker := time.NewTicker(k.interval)

	go func() {
		defer close(stopped)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := writer.WriteKeepAlive(); err != nil {
					logger.Debug("keep-alive write failed, stopping", "error", err)
					return
				}
			case <-k.done:
				return
			}
		}
	}()

	return stopped
}

// Stop ends the keep-alive. Safe to call multiple times.
func (k *TickerKeepAlive) Stop() {
	k.once.Do(func() { close(k.done) })
}
