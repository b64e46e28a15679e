// Package comments implements the counter-backed comment store attached to
// channel posts. Lists are stored as JSON arrays under comments:<postID>;
// the comment-id and vent counters are independent global integers. All
// store access degrades to safe defaults so routing never aborts on an
// outage.
package comments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"ventbot/core/logger"
	"ventbot/core/store"
)

const (
	keyCommentIDCounter = "commentIdCounter"
	keyVentCounter      = "ventCounter"
)

// Comment is a single anonymous comment on a channel post.
// AuthorID is retained for moderation only and is never rendered to users.
type Comment struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	AuthorID  int64  `json:"userId"`
}

// Time returns the creation instant of the comment.
func (c Comment) Time() time.Time {
	return time.UnixMilli(c.Timestamp)
}

// Store keeps per-post comment lists and the two global counters.
type Store struct {
	kv *store.Resilient
}

// NewStore builds a Store over the given KV backend.
func NewStore(kv store.KV) *Store {
	return &Store{kv: store.NewResilient(kv)}
}

func listKey(postID int) string {
	return fmt.Sprintf("comments:%d", postID)
}

// List returns the ordered comments for a channel post. Absent key or store
// error both yield an empty list.
func (s *Store) List(ctx context.Context, postID int) []Comment {
	raw := s.kv.GetOr(ctx, listKey(postID), "")
	if raw == "" {
		return nil
	}
	var list []Comment
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		logger.SVCComments.Warn("stored comment list is unreadable",
			slog.String("event", "comments.list"),
			slog.Int("post_id", postID),
			slog.String("err", err.Error()),
		)
		return nil
	}
	return list
}

// Append adds a comment to the post's list with read-modify-write semantics.
// Two concurrent appends to the same post can lose one of them (last write
// wins at list granularity); accepted given low per-post concurrency.
// It returns the resulting list length and whether the write succeeded.
func (s *Store) Append(ctx context.Context, postID int, c Comment) (int, bool) {
	list := append(s.List(ctx, postID), c)
	data, err := json.Marshal(list)
	if err != nil {
		logger.SVCComments.Error("comment list marshal failed",
			slog.String("event", "comments.append"),
			slog.Int("post_id", postID),
			slog.String("err", err.Error()),
		)
		return len(list) - 1, false
	}
	if !s.kv.SetQuiet(ctx, listKey(postID), string(data)) {
		return len(list) - 1, false
	}
	logger.SVCComments.Debug("comment stored",
		slog.String("event", "comments.append"),
		slog.Int("post_id", postID),
		slog.Int64("comment_id", c.ID),
		slog.Int("count", len(list)),
	)
	return len(list), true
}

// Count returns the number of comments stored for a post.
func (s *Store) Count(ctx context.Context, postID int) int {
	return len(s.List(ctx, postID))
}

// NextCommentID allocates the next globally unique comment ID.
func (s *Store) NextCommentID(ctx context.Context) int64 {
	return s.kv.NextInt(ctx, keyCommentIDCounter)
}

// NextVentNumber allocates the next anonymous channel-post number.
// Consumed only for non-admin channel posts.
func (s *Store) NextVentNumber(ctx context.Context) int64 {
	return s.kv.NextInt(ctx, keyVentCounter)
}

// Ping probes the backing store. Used for the startup connectivity check.
func (s *Store) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}
