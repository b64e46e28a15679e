package comments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
)

type fakeKV struct {
	data map[string]string
	down bool
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]string{}} }

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	if f.down {
		return "", false, errors.New("down")
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	if f.down {
		return errors.New("down")
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Incr(_ context.Context, key string) (int64, error) {
	if f.down {
		return 0, errors.New("down")
	}
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (f *fakeKV) Ping(context.Context) error { return nil }
func (f *fakeKV) Close() error               { return nil }

func TestAppendPreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newFakeKV())

	const n = 5
	for i := 0; i < n; i++ {
		c := Comment{
			ID:        s.NextCommentID(ctx),
			Text:      fmt.Sprintf("comment %d", i),
			Timestamp: int64(1000 + i),
			AuthorID:  42,
		}
		total, ok := s.Append(ctx, 7, c)
		if !ok {
			t.Fatalf("append %d failed", i)
		}
		if total != i+1 {
			t.Fatalf("append %d: total = %d, want %d", i, total, i+1)
		}
	}

	list := s.List(ctx, 7)
	if len(list) != n {
		t.Fatalf("list length = %d, want %d", len(list), n)
	}
	for i, c := range list {
		if c.Text != fmt.Sprintf("comment %d", i) {
			t.Fatalf("element %d out of order: %q", i, c.Text)
		}
	}
}

func TestListAbsentPostIsEmpty(t *testing.T) {
	s := NewStore(newFakeKV())
	if got := s.List(context.Background(), 123); len(got) != 0 {
		t.Fatalf("expected empty list, got %d entries", len(got))
	}
}

func TestListDegradesOnStoreError(t *testing.T) {
	kv := newFakeKV()
	s := NewStore(kv)
	kv.down = true
	if got := s.List(context.Background(), 1); len(got) != 0 {
		t.Fatalf("expected empty list under outage, got %d entries", len(got))
	}
}

func TestCountersAreIndependentAndIncreasing(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newFakeKV())

	var prev int64
	for i := 0; i < 3; i++ {
		id := s.NextCommentID(ctx)
		if id <= prev {
			t.Fatalf("comment id not increasing: %d after %d", id, prev)
		}
		prev = id
	}

	if v := s.NextVentNumber(ctx); v != 1 {
		t.Fatalf("vent counter must start at 1, got %d", v)
	}
	if v := s.NextVentNumber(ctx); v != 2 {
		t.Fatalf("vent counter must increase, got %d", v)
	}
}

func TestConcurrentAppendLastWriteWins(t *testing.T) {
	// Two callers read the same list revision; the second write overwrites
	// the first. Documents the accepted read-modify-write race.
	ctx := context.Background()
	kv := newFakeKV()
	s := NewStore(kv)

	base := s.List(ctx, 9)
	_ = base

	if _, ok := s.Append(ctx, 9, Comment{ID: 1, Text: "first"}); !ok {
		t.Fatal("first append failed")
	}
	// Simulate a concurrent writer that read the empty revision.
	kv.data["comments:9"] = `[{"id":2,"text":"second","timestamp":0,"userId":0}]`

	list := s.List(ctx, 9)
	if len(list) != 1 || list[0].Text != "second" {
		t.Fatalf("expected last write to win, got %+v", list)
	}
}
