// Package idempotency records which deliveries a consumer has already
// handled. A delivery is first claimed with a short lease, then either
// completed (kept for the retention TTL) or released for redelivery.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the slice of pkg/redis.Client the manager needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// State is the outcome of a claim.
type State int

const (
	// Acquired means the caller owns the delivery and must Complete or Release it.
	Acquired State = iota
	// InFlight means another worker holds the lease.
	InFlight
	// Done means the delivery was already handled.
	Done
)

func (s State) String() string {
	switch s {
	case Acquired:
		return "acquired"
	case InFlight:
		return "in_flight"
	case Done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

const (
	leaseMarker     = "pending"
	doneMarker      = "done"
	defaultLeaseTTL = 5 * time.Minute
)

type Manager struct {
	store    Store
	ttl      time.Duration
	leaseTTL time.Duration
}

type Option func(*Manager)

// WithLease overrides how long an unfinished claim blocks redelivery.
func WithLease(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.leaseTTL = d
		}
	}
}

// NewManager keeps completed markers for ttl; zero keeps them forever.
func NewManager(store Store, ttl time.Duration, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	m := &Manager{store: store, ttl: ttl, leaseTTL: defaultLeaseTTL}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Claim tries to take the delivery identified by scope and id.
func (m *Manager) Claim(ctx context.Context, scope, id string) (State, error) {
	key, err := m.key(scope, id)
	if err != nil {
		return InFlight, err
	}
	ok, err := m.store.SetNX(ctx, key, leaseMarker, m.leaseTTL)
	if err != nil {
		return InFlight, fmt.Errorf("claim %s: %w", key, err)
	}
	if ok {
		return Acquired, nil
	}
	current, err := m.store.Get(ctx, key)
	switch {
	case errors.Is(err, redis.Nil):
		// Lease expired between the two calls; let the next delivery retry.
		return InFlight, nil
	case err != nil:
		return InFlight, fmt.Errorf("inspect %s: %w", key, err)
	case current == doneMarker:
		return Done, nil
	}
	return InFlight, nil
}

// Complete marks a claimed delivery as handled.
func (m *Manager) Complete(ctx context.Context, scope, id string) error {
	key, err := m.key(scope, id)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, key, doneMarker, m.ttl)
}

// Release drops a claim so the delivery can run again.
func (m *Manager) Release(ctx context.Context, scope, id string) error {
	key, err := m.key(scope, id)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(scope, id string) (string, error) {
	if scope == "" {
		return "", errors.New("scope is required")
	}
	if id == "" {
		return "", errors.New("delivery id is required")
	}
	return m.store.IdempotencyKey(scope, id), nil
}
