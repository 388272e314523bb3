package biz

import (
	"github.com/westhule/combatcap/config"
	"golang.org/x/time/rate"
)

// burst floor covers a full AoE tick worth of records
const minRateBurst = 32

// NewRateLimit builds the emitter's Limiter from --rate-limit-qps.
// Zero disables limiting.
func NewRateLimit(settings *config.AppSettings) Limiter {
	qps := settings.RateLimitQPS
	if qps <= 0 {
		return nil
	}
	burst := qps
	if burst < minRateBurst {
		burst = minRateBurst
	}
	return rate.NewLimiter(rate.Limit(qps), burst)
}
