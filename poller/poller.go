package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
)

// DefaultInterval is the wait between poll cycles when none is configured.
const DefaultInterval = 10 * time.Second

// ErrInvalidInterval indicates a non-positive poll interval.
var ErrInvalidInterval = errors.New("poller: interval must be positive")

// Poller periodically checks the model registry for changes.
type Poller struct {
	interval time.Duration
	logger   log.Interface
}

// Option configures a Poller (functional options pattern).
type Option func(*Poller)

// WithInterval sets the wait between cycles. Default is DefaultInterval; must be positive.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		p.interval = d
	}
}

// WithLogger sets the logger sink. If l is nil, the default apex/log logger is left unchanged.
func WithLogger(l log.Interface) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Poller. Returns ErrInvalidInterval if the interval is not positive.
func New(opts ...Option) (*Poller, error) {
	p := &Poller{
		interval: DefaultInterval,
		logger:   log.Log,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.interval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, p.interval)
	}
	return p, nil
}

// Interval returns the configured wait between cycles.
func (p *Poller) Interval() time.Duration { return p.interval }

// Run logs a debug line, then waits the interval, until ctx is cancelled.
// It returns ctx.Err() and nothing else.
//
// TODO: replace polling with registry change events once the MLflow server supports webhooks.
func (p *Poller) Run(ctx context.Context) error {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.logger.Debug("Polling registry for changes")
		timer.Reset(p.interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}
