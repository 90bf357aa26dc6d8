package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/quorumsoft/ballotd/internal/secrets"
)

// SaltCache fronts the secret resolver with a short-lived cache so that
// the external secret access happens once per election per TTL, never
// inside the submission transaction.  A background sweeper drops expired
// entries; it runs as a goroutine and is stopped via its context or Stop.
//
// Cache entries hold live salt values, so they are never logged.
type SaltCache struct {
	resolver secrets.Resolver
	ttl      time.Duration
	interval time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	entries map[string]saltEntry

	cancel context.CancelFunc
	done   chan struct{}
}

type saltEntry struct {
	value     string
	expiresAt time.Time
}

// SaltCacheConfig holds the parameters for NewSaltCache.
type SaltCacheConfig struct {
	// TTL is how long a resolved salt stays usable.  Defaults to 5m.
	TTL time.Duration

	// SweepInterval is how often expired entries are evicted.
	// Defaults to the TTL.
	SweepInterval time.Duration
}

func NewSaltCache(resolver secrets.Resolver, cfg SaltCacheConfig, logger *log.Logger) *SaltCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = ttl
	}

	return &SaltCache{
		resolver: resolver,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		entries:  make(map[string]saltEntry),
		done:     make(chan struct{}),
	}
}

// Resolve returns the salt for ref, consulting the resolver only when the
// cached value is missing or expired.
func (c *SaltCache) Resolve(ref string) (string, error) {
	now := time.Now().UTC()

	c.mu.Lock()
	if e, ok := c.entries[ref]; ok && now.Before(e.expiresAt) {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	value, err := c.resolver.ResolveSecret(ref)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[ref] = saltEntry{value: value, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()

	return value, nil
}

// Start begins the background eviction loop.
func (c *SaltCache) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go c.loop(ctx)
}

// Stop signals the sweeper to exit and waits for it to finish.
func (c *SaltCache) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	<-c.done
}

func (c *SaltCache) loop(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *SaltCache) sweep() {
	now := time.Now().UTC()

	c.mu.Lock()
	evicted := 0
	for ref, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, ref)
			evicted++
		}
	}
	c.mu.Unlock()

	if evicted > 0 {
		c.logger.Printf("salt cache: evicted %d expired entries", evicted)
	}
}
