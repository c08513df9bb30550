package transport

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Budget is a token-bucket publish quota: Quota sends per Window.
type Budget struct {
	Quota  int
	Window time.Duration
}

func (b Budget) withDefaults() Budget {
	if b.Quota <= 0 {
		b.Quota = 10
	}
	if b.Window <= 0 {
		b.Window = time.Hour
	}
	return b
}

// LimitedPublisher gates a Publisher behind a rate budget. An exhausted
// budget fails fast with ErrRateLimited; the wrapped channel is never
// called in that case.
type LimitedPublisher struct {
	mu      sync.Mutex
	next    Publisher
	limiter *rate.Limiter
}

var _ Publisher = (*LimitedPublisher)(nil)

func Limit(next Publisher, b Budget) *LimitedPublisher {
	b = b.withDefaults()
	return &LimitedPublisher{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(float64(b.Quota)/b.Window.Seconds()), b.Quota),
	}
}

// SetBudget swaps the quota at runtime (config hot reload).
func (p *LimitedPublisher) SetBudget(b Budget) {
	b = b.withDefaults()
	p.mu.Lock()
	p.limiter = rate.NewLimiter(rate.Limit(float64(b.Quota)/b.Window.Seconds()), b.Quota)
	p.mu.Unlock()
}

func (p *LimitedPublisher) Publish(ctx context.Context, text string) (Receipt, error) {
	p.mu.Lock()
	lim := p.limiter
	p.mu.Unlock()

	// Allow, never Wait: a blocked tick is worse than a skipped send.
	if !lim.Allow() {
		return Receipt{}, ErrRateLimited
	}
	return p.next.Publish(ctx, text)
}

func (p *LimitedPublisher) Connected() bool { return p.next.Connected() }
