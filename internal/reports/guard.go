package reports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrGenerationInProgress is returned when the same key is already held.
var ErrGenerationInProgress = errors.New("report generation already in progress")

// Guard serializes report generation per key so that repeated clicks do not
// start duplicate renders.
type Guard interface {
	// Acquire takes the key or fails with ErrGenerationInProgress. The
	// returned release func must be called once the work is done.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// GuardKey builds the lock key for a user and format.
func GuardKey(userID uint64, format Format) string {
	return fmt.Sprintf("taskflow:report:%d:%s", userID, format)
}

// MemoryGuard is a process-local Guard.
type MemoryGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{inFlight: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inFlight[key]; busy {
		return nil, ErrGenerationInProgress
	}
	g.inFlight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, key)
			g.mu.Unlock()
		})
	}, nil
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisGuard shares in-flight state between instances through Redis. The TTL
// bounds how long a crashed holder can block the key.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisGuard(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisGuard {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisGuard{client: client, ttl: ttl, log: log}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire report lock: %w", err)
	}
	if !ok {
		return nil, ErrGenerationInProgress
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be cancelled here.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, g.client, []string{key}, token).Err(); err != nil {
				g.log.Warn("Failed to release report lock, it expires with its TTL",
					zap.String("key", key),
					zap.Duration("ttl", g.ttl),
					zap.Error(err))
			}
		})
	}, nil
}
