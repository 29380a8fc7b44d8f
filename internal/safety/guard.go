package safety

import "context"

// Guard combines a rate limiter and a circuit breaker in front of one class
// of broker operations.
type Guard struct {
	limiter *RateLimiter
	breaker *CircuitBreaker
}

// NewGuard builds a guard for a named operation class.
func NewGuard(name string, capacity, refillRate int, breakerCfg CircuitBreakerConfig) *Guard {
	return &Guard{
		limiter: NewRateLimiter(name, capacity, refillRate),
		breaker: NewCircuitBreaker(name, breakerCfg),
	}
}

// Do runs fn after acquiring a rate-limit token, under breaker protection.
func (g *Guard) Do(ctx context.Context, fn func() error) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	return g.breaker.Call(fn)
}

// Breaker exposes the underlying breaker for state-change callbacks.
func (g *Guard) Breaker() *CircuitBreaker { return g.breaker }
