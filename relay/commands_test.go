package relay

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

// cmdCtx stubs the slice of tele.Context the command handlers touch.
type cmdCtx struct {
	tele.Context
	sender *tele.User
	sent   []string
}

func (c *cmdCtx) Sender() *tele.User { return c.sender }

func (c *cmdCtx) Send(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		c.sent = append(c.sent, s)
	}
	return nil
}

func TestHelpRepliesOnlyToAdmins(t *testing.T) {
	eng, _ := newTestEngine(testConfig())
	h := NewHandlers(eng)

	c := &cmdCtx{sender: &tele.User{ID: userID}}
	if err := h.Help(c); err != nil {
		t.Fatalf("Help: %v", err)
	}
	if len(c.sent) != 0 {
		t.Fatalf("non-admin /help must stay silent, got %q", c.sent)
	}

	c = &cmdCtx{sender: &tele.User{ID: adminID}}
	if err := h.Help(c); err != nil {
		t.Fatalf("Help: %v", err)
	}
	if len(c.sent) != 1 || c.sent[0] != msgAdminHelp {
		t.Fatalf("admin help wrong: %q", c.sent)
	}
}
