package store

import (
	"context"
	"errors"
	"testing"
)

// fakeKV is an in-memory KV with switchable failure modes.
type fakeKV struct {
	data map[string]string

	failGet  bool
	failSet  bool
	failIncr bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

var errDown = errors.New("store unavailable")

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errDown
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	if f.failSet {
		return errDown
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Incr(_ context.Context, key string) (int64, error) {
	if f.failIncr {
		return 0, errDown
	}
	n := int64(0)
	if v, ok := f.data[key]; ok {
		for _, c := range v {
			n = n*10 + int64(c-'0')
		}
	}
	n++
	f.data[key] = itoa(n)
	return n, nil
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func (f *fakeKV) Ping(context.Context) error { return nil }
func (f *fakeKV) Close() error               { return nil }

func TestResilientGetOrDefaults(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	r := NewResilient(kv)

	if got := r.GetOr(ctx, "missing", "fallback"); got != "fallback" {
		t.Fatalf("absent key: got %q, want fallback", got)
	}

	kv.data["k"] = "v"
	if got := r.GetOr(ctx, "k", "fallback"); got != "v" {
		t.Fatalf("present key: got %q, want v", got)
	}

	kv.failGet = true
	if got := r.GetOr(ctx, "k", "fallback"); got != "fallback" {
		t.Fatalf("store error: got %q, want fallback", got)
	}
}

func TestResilientNextIntMonotonic(t *testing.T) {
	ctx := context.Background()
	r := NewResilient(newFakeKV())

	prev := int64(0)
	for i := 0; i < 5; i++ {
		n := r.NextInt(ctx, "counter")
		if n <= prev {
			t.Fatalf("counter not strictly increasing: %d after %d", n, prev)
		}
		prev = n
	}
	if prev != 5 {
		t.Fatalf("expected counter at 5, got %d", prev)
	}
}

func TestResilientNextIntFallsBackToReadModifyWrite(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	kv.data["counter"] = "7"
	kv.failIncr = true
	r := NewResilient(kv)

	if n := r.NextInt(ctx, "counter"); n != 8 {
		t.Fatalf("fallback increment: got %d, want 8", n)
	}
	if kv.data["counter"] != "8" {
		t.Fatalf("fallback should persist new value, got %q", kv.data["counter"])
	}
}

func TestResilientNextIntLastResort(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	kv.failIncr = true
	kv.failGet = true
	kv.failSet = true
	r := NewResilient(kv)

	if n := r.NextInt(ctx, "counter"); n != 1 {
		t.Fatalf("full outage should return non-authoritative 1, got %d", n)
	}
}
