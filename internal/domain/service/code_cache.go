package service

import (
	"context"
	"time"
)

// CodeCache remembers which provider account a one-time code resolved to,
// so a retried code does not hit the provider a second time.
type CodeCache interface {
	Get(ctx context.Context, code string) (string, bool, error)

	Set(ctx context.Context, code, providerAccountID string, ttl time.Duration) error
}
