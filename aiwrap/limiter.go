package aiwrap

import (
	"sync"

	"golang.org/x/time/rate"
)

// limiterPool hands out token buckets. Operations with GlobalLimit
// share one bucket; everything else gets a bucket per operation id,
// created lazily from the operation's own config.
type limiterPool struct {
	mu     sync.Mutex
	global *rate.Limiter
	perOp  map[string]*rate.Limiter
}

func newLimiterPool() *limiterPool {
	return &limiterPool{perOp: make(map[string]*rate.Limiter)}
}

func (p *limiterPool) get(op Operation) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if op.Config.GlobalLimit {
		if p.global == nil {
			p.global = rate.NewLimiter(rate.Limit(op.Config.RefillPerSec), op.Config.Burst)
		}
		return p.global
	}

	lim, ok := p.perOp[op.ID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(op.Config.RefillPerSec), op.Config.Burst)
		p.perOp[op.ID] = lim
	}
	return lim
}
