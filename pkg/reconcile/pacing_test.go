package reconcile

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/pinledger/pkg/pinning"
)

var rateLimited = &pinning.APIError{StatusCode: http.StatusTooManyRequests, Reason: "rate limited"}

func TestFixedPacer(t *testing.T) {
	t.Run("SleepsDelay", func(t *testing.T) {
		p := NewFixedPacer(20 * time.Millisecond)
		start := time.Now()
		require.NoError(t, p.Wait(t.Context()))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("IgnoresOutcome", func(t *testing.T) {
		p := NewFixedPacer(time.Millisecond)
		p.Observe(rateLimited)
		p.Observe(nil)
		assert.Equal(t, time.Millisecond, p.delay)
	})

	t.Run("StopsOnCancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		err := NewFixedPacer(time.Hour).Wait(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("ZeroDelay", func(t *testing.T) {
		assert.NoError(t, NewFixedPacer(0).Wait(t.Context()))
	})
}

func TestAdaptivePacer(t *testing.T) {
	cfg := AdaptiveConfig{StartRPS: 4, MaxRPS: 5, MinRPS: 1, Step: 0.5, Down: 0.5, OKEvery: 3}

	t.Run("BacksOffOn429", func(t *testing.T) {
		p := NewAdaptivePacer(cfg)
		p.Observe(rateLimited)
		assert.Equal(t, 2.0, p.Rate())
		p.Observe(rateLimited)
		assert.Equal(t, 1.0, p.Rate())
		p.Observe(rateLimited)
		assert.Equal(t, 1.0, p.Rate(), "never below MinRPS")
	})

	t.Run("RecoversAfterOKEvery", func(t *testing.T) {
		p := NewAdaptivePacer(cfg)
		p.Observe(rateLimited)
		require.Equal(t, 2.0, p.Rate())

		p.Observe(nil)
		p.Observe(nil)
		assert.Equal(t, 2.0, p.Rate())
		p.Observe(nil)
		assert.Equal(t, 2.5, p.Rate())
	})

	t.Run("ThrottleResetsStreak", func(t *testing.T) {
		p := NewAdaptivePacer(cfg)
		p.Observe(nil)
		p.Observe(nil)
		p.Observe(rateLimited)
		p.Observe(nil)
		assert.Equal(t, 2.0, p.Rate())
	})

	t.Run("CappedAtMaxRPS", func(t *testing.T) {
		p := NewAdaptivePacer(cfg)
		for range 30 {
			p.Observe(nil)
		}
		assert.Equal(t, 5.0, p.Rate())
	})

	t.Run("OtherErrorsIgnored", func(t *testing.T) {
		p := NewAdaptivePacer(cfg)
		p.Observe(errTransient)
		p.Observe(&pinning.APIError{StatusCode: http.StatusBadGateway})
		assert.Equal(t, 4.0, p.Rate())
	})

	t.Run("NotifiesRateChanges", func(t *testing.T) {
		p := NewAdaptivePacer(cfg)
		var got []float64
		p.OnRateChange(func(rps float64) { got = append(got, rps) })
		p.Observe(rateLimited)
		p.Observe(rateLimited)
		assert.Equal(t, []float64{2, 1}, got)
	})

	t.Run("InvalidConfigFallsBack", func(t *testing.T) {
		p := NewAdaptivePacer(AdaptiveConfig{})
		assert.Equal(t, DefaultAdaptiveConfig(), p.cfg)
		assert.Equal(t, 3.0, p.Rate())
	})

	t.Run("WaitHonoursRate", func(t *testing.T) {
		p := NewAdaptivePacer(AdaptiveConfig{StartRPS: 50, MaxRPS: 50, MinRPS: 1, Step: 1, Down: 0.5, OKEvery: 1})
		start := time.Now()
		for range 3 {
			require.NoError(t, p.Wait(t.Context()))
		}
		// The first token is free, the next two cost 20ms each.
		assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
	})
}
