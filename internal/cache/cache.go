package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/smart-trolley/internal/domain"
)

// SnapshotCache keeps the last good cart snapshot per trolley so a restarted
// kiosk can show the cart before its first refresh completes.
type SnapshotCache interface {
	Get(ctx context.Context, trolleyID string) (*domain.CartSnapshot, error)
	Set(ctx context.Context, trolleyID string, snapshot *domain.CartSnapshot) error
	Delete(ctx context.Context, trolleyID string) error
}

var ErrCacheMiss = errors.New("cache miss")
