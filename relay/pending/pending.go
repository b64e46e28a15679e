// Package pending tracks the short-lived intent a user creates by clicking a
// deep-link button: "my next message is a comment on post X" or "my next
// message goes straight to the channel". State lives in process memory only;
// a restart drops in-flight intents and the user's next message falls through
// to the default forwarding path. That limitation is accepted and assumes
// single-instance affinity.
package pending

import "sync"

// Action is the intent recorded for a user's next private message.
type Action struct {
	// Post is the channel post awaiting a comment. Meaningful only when
	// Direct is false.
	Post int
	// Direct marks a pending direct-to-channel post.
	Direct bool
}

// CommentOn returns an action awaiting a comment for the given channel post.
func CommentOn(postID int) Action {
	return Action{Post: postID}
}

// DirectPost is the action awaiting a direct channel post.
var DirectPost = Action{Direct: true}

// Tracker stores at most one pending action per user. Take consumes the
// action so it can never be applied to more than one message.
type Tracker interface {
	Set(userID int64, action Action)
	Take(userID int64) (Action, bool)
}

type memoryTracker struct {
	mu      sync.Mutex
	actions map[int64]Action
}

// NewMemoryTracker constructs the in-memory Tracker implementation.
func NewMemoryTracker() Tracker {
	return &memoryTracker{actions: make(map[int64]Action)}
}

// Set records the pending action for a user, replacing any previous one.
func (t *memoryTracker) Set(userID int64, action Action) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.actions[userID] = action
}

// Take returns and removes the user's pending action in one step.
func (t *memoryTracker) Take(userID int64) (Action, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	action, ok := t.actions[userID]
	if ok {
		delete(t.actions, userID)
	}
	return action, ok
}
