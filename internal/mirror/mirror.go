package mirror

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/fjod/go_cart/smart-trolley/internal/cache"
	"github.com/fjod/go_cart/smart-trolley/internal/domain"
)

var ErrFetchFailed = errors.New("cart refresh failed")

type Fetcher interface {
	GetCart(ctx context.Context) (*domain.CartSnapshot, error)
}

// Mirror is the kiosk's copy of the backend cart. The snapshot is only ever
// replaced as a whole through a single pointer store.
type Mirror struct {
	fetcher   Fetcher
	current   atomic.Pointer[domain.CartSnapshot]
	cache     cache.SnapshotCache
	trolleyID string
}

type Option func(*Mirror)

// WithCache writes every accepted snapshot through to c under trolleyID.
func WithCache(c cache.SnapshotCache, trolleyID string) Option {
	return func(m *Mirror) {
		m.cache = c
		m.trolleyID = trolleyID
	}
}

func New(fetcher Fetcher, opts ...Option) *Mirror {
	m := &Mirror{fetcher: fetcher}
	for _, opt := range opts {
		opt(m)
	}
	m.current.Store(domain.EmptySnapshot())
	return m
}

// Refresh fetches the authoritative cart and replaces the mirror with it.
// On any failure the previous snapshot is kept and the error is returned.
func (m *Mirror) Refresh(ctx context.Context) (*domain.CartSnapshot, error) {
	snapshot, err := m.fetcher.GetCart(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if snapshot == nil {
		return nil, fmt.Errorf("%w: empty response", ErrFetchFailed)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	m.current.Store(snapshot)
	m.writeThrough(snapshot)
	return snapshot, nil
}

// Contains looks barcode up in the last known snapshot. It never calls the
// backend, so the answer may be stale.
func (m *Mirror) Contains(barcode string) (domain.CartLine, bool) {
	return m.current.Load().Lookup(barcode)
}

func (m *Mirror) Snapshot() *domain.CartSnapshot {
	return m.current.Load()
}

// Restore seeds the mirror from the cache. It only applies while the mirror
// still holds the initial empty snapshot, so a completed refresh always wins.
func (m *Mirror) Restore(ctx context.Context) error {
	if m.cache == nil {
		return nil
	}

	initial := m.current.Load()
	snapshot, err := m.cache.Get(ctx, m.trolleyID)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	if initial.FetchedAt.IsZero() && m.current.CompareAndSwap(initial, snapshot) {
		log.Printf("restored cart snapshot for trolley %s with %d lines", m.trolleyID, snapshot.Len())
	}
	return nil
}

func (m *Mirror) writeThrough(snapshot *domain.CartSnapshot) {
	if m.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.cache.Set(ctx, m.trolleyID, snapshot); err != nil {
		log.Printf("snapshot cache set error: %v \n", err)
	}
}
