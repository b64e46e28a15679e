package store

import (
	"context"
	"log/slog"
	"strconv"

	"ventbot/core/logger"
)

// Resilient wraps a KV so every failure degrades to a safe default instead of
// propagating. The relay core must never abort because the store is down;
// outages cost exact counter monotonicity, not availability.
type Resilient struct {
	kv KV
}

// NewResilient wraps the given KV.
func NewResilient(kv KV) *Resilient {
	return &Resilient{kv: kv}
}

// GetOr returns the stored value, or def when the key is absent or the store
// errors. Errors are logged and swallowed.
func (r *Resilient) GetOr(ctx context.Context, key, def string) string {
	val, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		logger.KV.Warn("get degraded to default",
			slog.String("event", "kv.get"),
			slog.String("key", key),
			slog.String("err", err.Error()),
		)
		return def
	}
	if !ok {
		return def
	}
	return val
}

// SetQuiet writes the value and reports success; failure is logged only.
func (r *Resilient) SetQuiet(ctx context.Context, key, value string) bool {
	if err := r.kv.Set(ctx, key, value); err != nil {
		logger.KV.Warn("set failed",
			slog.String("event", "kv.set"),
			slog.String("key", key),
			slog.String("err", err.Error()),
		)
		return false
	}
	return true
}

// GetInt returns the integer stored at key, or 0 when absent, unparsable, or
// the store errors.
func (r *Resilient) GetInt(ctx context.Context, key string) int64 {
	raw := r.GetOr(ctx, key, "0")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// NextInt increments the counter at key and returns the new value. When the
// atomic increment fails it falls back to read+1+write; when that also fails
// it returns 1 as a last-resort non-authoritative value so callers can
// proceed rather than deadlock on counter semantics.
func (r *Resilient) NextInt(ctx context.Context, key string) int64 {
	n, err := r.kv.Incr(ctx, key)
	if err == nil {
		return n
	}
	logger.KV.Warn("incr failed, falling back to read-modify-write",
		slog.String("event", "kv.incr"),
		slog.String("key", key),
		slog.String("err", err.Error()),
	)

	next := r.GetInt(ctx, key) + 1
	if !r.SetQuiet(ctx, key, strconv.FormatInt(next, 10)) {
		logger.KV.Warn("incr fallback failed, returning non-authoritative 1",
			slog.String("event", "kv.incr"),
			slog.String("key", key),
		)
		return 1
	}
	return next
}

// Ping probes the underlying store. Used once at startup for a logged
// connectivity check; failures are not fatal.
func (r *Resilient) Ping(ctx context.Context) error {
	return r.kv.Ping(ctx)
}
