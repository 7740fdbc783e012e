package core

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultPollInterval is the refresh rate of chat and notification views.
const DefaultPollInterval = 5 * time.Second

// Poller runs fn on a fixed interval until stopped. A failing run is logged
// and the next tick proceeds as usual.
type Poller struct {
	name     string
	interval time.Duration
	fn       func(context.Context) error
	log      logrus.FieldLogger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

func NewPoller(name string, interval time.Duration, fn func(context.Context) error, logger logrus.FieldLogger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Poller{
		name:     name,
		interval: interval,
		fn:       fn,
		log:      logger.WithField("poller", name),
	}
}

// Start launches the loop in the background. The first run happens right
// away. Calling Start twice is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.run(ctx)
		}
	}
}

func (p *Poller) run(ctx context.Context) {
	if err := p.fn(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		pollRuns.WithLabelValues(p.name, "error").Inc()
		p.log.WithError(err).Warn("poll failed")
		return
	}
	pollRuns.WithLabelValues(p.name, "ok").Inc()
}

// Stop cancels the loop and waits for the in-flight run to return.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		cancel, done := p.cancel, p.done
		p.mu.Unlock()
		if cancel == nil {
			return
		}
		cancel()
		<-done
	})
}

// Done is closed once the loop has exited. It is nil before Start.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}
