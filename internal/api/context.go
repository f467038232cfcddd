package api

import "context"

type contextKey string

const idempotencyKey contextKey = "idempotency_key"

// WithIdempotencyKey attaches the key sent as Idempotency-Key on writes.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey, key)
}

// IdempotencyKeyFrom extracts the idempotency key, or "".
func IdempotencyKeyFrom(ctx context.Context) string {
	if v, ok := ctx.Value(idempotencyKey).(string); ok {
		return v
	}
	return ""
}
