package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrSourceUnavailable = errors.New("row source unavailable")
)

// RowSource loads a fresh batch of raw rows on every call.
type RowSource interface {
	LoadRows(ctx context.Context) (Batch, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
