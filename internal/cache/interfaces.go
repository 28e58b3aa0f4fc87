package cache

import (
	"context"
	"sync"
	"time"
)

// RateLimiter считает запросы в фиксированном окне.
// Возвращает номер запроса внутри текущего окна.
type RateLimiter interface {
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// HealthChecker - то, что может отчитаться в /health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// MemoryLimiter - счетчик окон в памяти процесса, используется без Redis.
// Годится только для одного инстанса.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	count   int64
	resetAt time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (m *MemoryLimiter) IncrementRateLimit(_ context.Context, key string, ttl time.Duration) (int64, error) {
	if key == "" {
		return 0, NewCacheError("incr", key, ErrInvalidCacheKey)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		// Заодно выкидываем протухшие окна, чтобы map не рос бесконечно
		if !ok {
			m.sweepLocked(now)
		}
		w = &window{resetAt: now.Add(ttl)}
		m.windows[key] = w
	}
	w.count++
	return w.count, nil
}

func (m *MemoryLimiter) sweepLocked(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}
