package reconcile

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/marmos91/pinledger/pkg/pinning"
)

// Pacer spaces out existence checks against the pinning API.
//
// Wait is called once after every check and blocks until the next check
// may start. Observe receives the result of every check attempt.
type Pacer interface {
	Wait(ctx context.Context) error
	Observe(err error)
}

// FixedPacer sleeps a constant delay after every check, whatever its
// outcome.
type FixedPacer struct {
	delay time.Duration
}

// NewFixedPacer returns a pacer sleeping d after each check. A zero or
// negative d disables pacing.
func NewFixedPacer(d time.Duration) *FixedPacer {
	return &FixedPacer{delay: d}
}

func (p *FixedPacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *FixedPacer) Observe(error) {}

// AdaptiveConfig tunes the AIMD loop of the adaptive pacer.
type AdaptiveConfig struct {
	StartRPS float64
	MaxRPS   float64
	MinRPS   float64

	// Step is added to the rate after OKEvery consecutive successes.
	Step float64

	// Down multiplies the rate on every rate-limited response.
	Down float64

	OKEvery int
}

// DefaultAdaptiveConfig returns the defaults used by `reconcile.pacing: adaptive`.
func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		StartRPS: 3,
		MaxRPS:   10,
		MinRPS:   0.25,
		Step:     0.25,
		Down:     0.7,
		OKEvery:  30,
	}
}

func (c *AdaptiveConfig) normalize() {
	d := DefaultAdaptiveConfig()
	if c.StartRPS <= 0 {
		c.StartRPS = d.StartRPS
	}
	if c.MinRPS <= 0 {
		c.MinRPS = d.MinRPS
	}
	if c.MaxRPS <= 0 {
		c.MaxRPS = d.MaxRPS
	}
	if c.MaxRPS < c.StartRPS {
		c.MaxRPS = c.StartRPS
	}
	if c.StartRPS < c.MinRPS {
		c.StartRPS = c.MinRPS
	}
	if c.Step <= 0 {
		c.Step = d.Step
	}
	if c.Down <= 0 || c.Down >= 1 {
		c.Down = d.Down
	}
	if c.OKEvery <= 0 {
		c.OKEvery = d.OKEvery
	}
}

// AdaptivePacer is a token bucket whose rate backs off multiplicatively
// on 429 responses and creeps back up additively while checks succeed.
type AdaptivePacer struct {
	mu      sync.Mutex
	cfg     AdaptiveConfig
	limiter *rate.Limiter
	rps     float64
	okCnt   int

	onChange func(rps float64)
}

// NewAdaptivePacer creates an adaptive pacer. Invalid fields fall back to
// DefaultAdaptiveConfig values.
func NewAdaptivePacer(cfg AdaptiveConfig) *AdaptivePacer {
	cfg.normalize()
	return &AdaptivePacer{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.StartRPS), 1),
		rps:     cfg.StartRPS,
	}
}

// OnRateChange registers fn to be called with the new rate after every
// adjustment.
func (p *AdaptivePacer) OnRateChange(fn func(rps float64)) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

func (p *AdaptivePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Observe adjusts the rate. Errors other than rate limiting leave it as is.
func (p *AdaptivePacer) Observe(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case pinning.IsRateLimited(err):
		p.okCnt = 0
		p.setRate(math.Max(p.cfg.MinRPS, p.rps*p.cfg.Down))
	case err == nil:
		p.okCnt++
		if p.okCnt >= p.cfg.OKEvery {
			p.okCnt = 0
			p.setRate(math.Min(p.cfg.MaxRPS, p.rps+p.cfg.Step))
		}
	}
}

// Rate returns the current rate in requests per second.
func (p *AdaptivePacer) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rps
}

// setRate must be called with mu held.
func (p *AdaptivePacer) setRate(rps float64) {
	if rps == p.rps {
		return
	}
	p.rps = rps
	p.limiter.SetLimit(rate.Limit(rps))
	if p.onChange != nil {
		p.onChange(rps)
	}
}
