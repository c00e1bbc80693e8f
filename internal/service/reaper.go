package service

import (
	"context"
	"sync"
	"time"

	"github.com/lshigami/mockdrive/config"
	"github.com/rs/zerolog/log"
)

// Reaper periodically expires attempts that ran past their deadline.
type Reaper struct {
	attempts AttemptService
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewReaper(attempts AttemptService, cfg *config.Config) *Reaper {
	return &Reaper{attempts: attempts, interval: cfg.Reaper.Interval}
}

// RunOnce performs a single sweep.
func (r *Reaper) RunOnce(ctx context.Context) (int, error) {
	return r.attempts.Reap(ctx)
}

// Start launches the sweep loop. It is a no-op when already running.
func (r *Reaper) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.loop(ctx, r.done)
	log.Info().Dur("interval", r.interval).Msg("Expiry reaper started")
}

// Stop ends the loop and waits for an in-flight sweep, or for ctx to end.
func (r *Reaper) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		log.Info().Msg("Expiry reaper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reaper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.attempts.Reap(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("Expiry sweep failed")
			}
		}
	}
}
