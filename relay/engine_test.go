package relay

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	coreconfig "ventbot/core/config"
	"ventbot/relay/comments"
	"ventbot/relay/pending"

	tele "gopkg.in/telebot.v4"
)

type memKV struct {
	data map[string]string
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.data[key] = value
	return nil
}

func (m *memKV) Incr(_ context.Context, key string) (int64, error) {
	n, _ := strconv.ParseInt(m.data[key], 10, 64)
	n++
	m.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *memKV) Ping(context.Context) error { return nil }
func (m *memKV) Close() error               { return nil }

type sentText struct {
	chatID int64
	text   string
	markup *tele.ReplyMarkup
}

type sentCopy struct {
	chatID  int64
	kind    MediaKind
	caption string
}

type markupEdit struct {
	chatID    int64
	messageID int
	markup    *tele.ReplyMarkup
}

type deletion struct {
	chatID    int64
	messageID int
}

// fakeSender records every outbound call and hands out sequential message IDs.
type fakeSender struct {
	texts   []sentText
	copies  []sentCopy
	edits   []markupEdit
	deletes []deletion

	nextID  int
	editErr error
}

func (f *fakeSender) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakeSender) SendText(_ context.Context, chatID int64, text string, markup *tele.ReplyMarkup) (int, error) {
	f.texts = append(f.texts, sentText{chatID: chatID, text: text, markup: markup})
	return f.id(), nil
}

func (f *fakeSender) SendCopy(_ context.Context, chatID int64, in Incoming, caption string) (int, error) {
	f.copies = append(f.copies, sentCopy{chatID: chatID, kind: in.Media, caption: caption})
	return f.id(), nil
}

func (f *fakeSender) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	f.deletes = append(f.deletes, deletion{chatID: chatID, messageID: messageID})
	return nil
}

func (f *fakeSender) EditReplyMarkup(_ context.Context, chatID int64, messageID int, markup *tele.ReplyMarkup) error {
	f.edits = append(f.edits, markupEdit{chatID: chatID, messageID: messageID, markup: markup})
	return f.editErr
}

func (f *fakeSender) ChatTitle(context.Context, int64) (string, error) {
	return "Test Channel", nil
}

func (f *fakeSender) textsTo(chatID int64) []string {
	var out []string
	for _, s := range f.texts {
		if s.chatID == chatID {
			out = append(out, s.text)
		}
	}
	return out
}

const (
	adminID   = int64(10)
	groupID   = int64(-20)
	channelID = int64(-30)
	userID    = int64(42)
)

func testConfig() coreconfig.RelayConfig {
	return coreconfig.RelayConfig{
		AdminIDs:    []int64{adminID},
		GroupID:     groupID,
		ChannelID:   channelID,
		BotUsername: "ventrelay_bot",
	}
}

// newTestEngine wires an Engine with a nil dispatcher so every send runs
// synchronously in call order.
func newTestEngine(cfg coreconfig.RelayConfig) (*Engine, *fakeSender) {
	snd := &fakeSender{}
	eng := New(cfg, snd, comments.NewStore(newMemKV()), pending.NewMemoryTracker(), nil)
	eng.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return eng, snd
}

func privateText(from int64, username, text string) Incoming {
	return Incoming{
		From:      User{ID: from, Username: username},
		Chat:      ChatRef{ID: from, Type: tele.ChatPrivate},
		MessageID: 5,
		Text:      text,
		Media:     KindText,
	}
}

func TestAnonymousTextFanOut(t *testing.T) {
	eng, snd := newTestEngine(testConfig())
	ctx := context.Background()

	if err := eng.HandleMessage(ctx, privateText(userID, "", "hello")); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	adminMsgs := snd.textsTo(adminID)
	if len(adminMsgs) != 1 || adminMsgs[0] != "[anon] From <no username> (ID 42)\n\nhello" {
		t.Fatalf("admin delivery wrong: %q", adminMsgs)
	}

	groupMsgs := snd.textsTo(groupID)
	if len(groupMsgs) != 1 || groupMsgs[0] != "hello" {
		t.Fatalf("group delivery wrong: %q", groupMsgs)
	}

	chanMsgs := snd.textsTo(channelID)
	if len(chanMsgs) != 1 || chanMsgs[0] != "UnKnown vent (1)\n\nhello" {
		t.Fatalf("channel delivery wrong: %q", chanMsgs)
	}

	if len(snd.edits) != 1 {
		t.Fatalf("expected one button edit, got %d", len(snd.edits))
	}
	edit := snd.edits[0]
	if edit.chatID != channelID {
		t.Fatalf("buttons edited on chat %d", edit.chatID)
	}
	row := edit.markup.InlineKeyboard[0]
	if len(row) != 2 || row[0].Text != "Comment" || row[1].Text != "View comments (0)" {
		t.Fatalf("unexpected button row: %+v", row)
	}
	// The Comment button always carries the static direct-post payload; the
	// per-post comment link lives on the view reply, not here.
	if row[0].URL != "https://t.me/ventrelay_bot?start=comment_direct" {
		t.Fatalf("comment URL = %q, want the comment_direct deep link", row[0].URL)
	}
	wantURL := "https://t.me/ventrelay_bot?start=view_" + strconv.Itoa(edit.messageID)
	if row[1].URL != wantURL {
		t.Fatalf("view URL = %q, want %q", row[1].URL, wantURL)
	}

	acks := snd.textsTo(userID)
	if len(acks) != 1 || acks[0] != "Your message was delivered anonymously." {
		t.Fatalf("user ack wrong: %q", acks)
	}
}

func TestVentNumbersIncrementPerPost(t *testing.T) {
	eng, snd := newTestEngine(testConfig())
	ctx := context.Background()

	_ = eng.HandleMessage(ctx, privateText(userID, "", "first"))
	_ = eng.HandleMessage(ctx, privateText(userID, "", "second"))

	chanMsgs := snd.textsTo(channelID)
	if len(chanMsgs) != 2 {
		t.Fatalf("expected 2 channel posts, got %d", len(chanMsgs))
	}
	if !strings.HasPrefix(chanMsgs[0], "UnKnown vent (1)") || !strings.HasPrefix(chanMsgs[1], "UnKnown vent (2)") {
		t.Fatalf("vent numbering wrong: %q", chanMsgs)
	}
}

func TestAdminPostSkipsVentHeader(t *testing.T) {
	eng, snd := newTestEngine(testConfig())
	ctx := context.Background()

	if err := eng.HandleMessage(ctx, privateText(adminID, "boss", "announcement")); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	chanMsgs := snd.textsTo(channelID)
	if len(chanMsgs) != 1 || chanMsgs[0] != "announcement" {
		t.Fatalf("admin channel post wrong: %q", chanMsgs)
	}

	acks := snd.textsTo(adminID)
	// The admin also receives their own fan-out copy plus the ack.
	var ack string
	for _, m := range acks {
		if strings.HasPrefix(m, "✅") {
			ack = m
		}
	}
	if ack != "✅ Your message was posted to the channel." {
		t.Fatalf("admin ack wrong: %q", acks)
	}
}

func TestAdminReplyRoutesToEmbeddedID(t *testing.T) {
	eng, snd := newTestEngine(testConfig())
	ctx := context.Background()

	in := privateText(adminID, "boss", "hang in there")
	in.ReplyTo = &ReplyRef{MessageID: 3, Text: "[anon] From @someone (ID 42)\n\noriginal"}

	if err := eng.HandleMessage(ctx, in); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	got := snd.textsTo(userID)
	if len(got) != 1 || got[0] != "hang in there" {
		t.Fatalf("reply delivery wrong: %q", got)
	}
	if msgs := snd.textsTo(channelID); len(msgs) != 0 {
		t.Fatalf("reply must not reach the channel, got %q", msgs)
	}
}

func TestAdminReplyWithoutEmbeddedID(t *testing.T) {
	eng, snd := newTestEngine(testConfig())
	ctx := context.Background()

	in := privateText(adminID, "boss", "who was this")
	in.ReplyTo = &ReplyRef{MessageID: 3, Text: "just some text"}

	if err := eng.HandleMessage(ctx, in); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	got := snd.textsTo(adminID)
	if len(got) != 1 || got[0] != "Could not find original user ID in the replied message." {
		t.Fatalf("expected parse-failure notice, got %q", got)
	}
}

func TestPendingCommentIsStoredNotForwarded(t *testing.T) {
	eng, snd := newTestEngine(testConfig())
	ctx := context.Background()

	eng.pending.Set(userID, pending.CommentOn(7))

	if err := eng.HandleMessage(ctx, privateText(userID, "", "nice post")); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	list := eng.comments.List(ctx, 7)
	if len(list) != 1 || list[0].Text != "nice post" || list[0].AuthorID != userID {
		t.Fatalf("comment not stored correctly: %+v", list)
	}

	if msgs := snd.textsTo(channelID); len(msgs) != 0 {
		t.Fatalf("comment must not be posted to channel, got %q", msgs)
	}
	if msgs := snd.textsTo(adminID); len(msgs) != 0 {
		t.Fatalf("comment must not be forwarded to admins, got %q", msgs)
	}

	if len(snd.edits) != 1 {
		t.Fatalf("expected a button resync, got %d edits", len(snd.edits))
	}
	row := snd.edits[0].markup.InlineKeyboard[0]
	if row[1].Text != "View comments (1)" {
		t.Fatalf("button count not updated: %q", row[1].Text)
	}

	acks := snd.textsTo(userID)
	if len(acks) != 1 || !strings.HasPrefix(acks[0], "✅ Your anonymous comment was added!") {
		t.Fatalf("comment ack wrong: %q", acks)
	}

	// The intent is consumed: the next message takes the default path.
	_ = eng.HandleMessage(ctx, privateText(userID, "", "another"))
	if msgs := snd.textsTo(channelID); len(msgs) != 1 {
		t.Fatalf("follow-up must be forwarded, channel got %q", msgs)
	}
}

func TestDirectPostIntentFallsThrough(t *testing.T) {
	eng, snd := newTestEngine(testConfig())
	ctx := context.Background()

	eng.pending.Set(userID, pending.DirectPost)

	if err := eng.HandleMessage(ctx, privateText(userID, "", "straight to channel")); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	chanMsgs := snd.textsTo(channelID)
	if len(chanMsgs) != 1 || chanMsgs[0] != "UnKnown vent (1)\n\nstraight to channel" {
		t.Fatalf("direct post wrong: %q", chanMsgs)
	}
}

func TestGroupGuardDeletesAndRedirects(t *testing.T) {
	eng, snd := newTestEngine(testConfig())
	ctx := context.Background()

	in := Incoming{
		From:      User{ID: userID},
		Chat:      ChatRef{ID: groupID, Type: tele.ChatSuperGroup},
		MessageID: 77,
		Text:      "oops, posted in the open",
		Media:     KindText,
	}
	if err := eng.HandleMessage(ctx, in); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if len(snd.deletes) != 1 || snd.deletes[0].messageID != 77 {
		t.Fatalf("group message not deleted: %+v", snd.deletes)
	}
	got := snd.textsTo(groupID)
	if len(got) != 1 || got[0] != msgGroupGuard {
		t.Fatalf("guard notice wrong: %q", got)
	}
	if msgs := snd.textsTo(channelID); len(msgs) != 0 {
		t.Fatalf("group message must not be relayed, got %q", msgs)
	}
}

func TestGroupGuardIgnoresBots(t *testing.T) {
	eng, snd := newTestEngine(testConfig())
	ctx := context.Background()

	in := Incoming{
		From:  User{ID: 999, IsBot: true},
		Chat:  ChatRef{ID: groupID, Type: tele.ChatGroup},
		Text:  "automated",
		Media: KindText,
	}
	if err := eng.HandleMessage(ctx, in); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(snd.deletes) != 0 || len(snd.texts) != 0 {
		t.Fatal("bot messages in the group must be left alone")
	}
}

func TestSyncButtonsTreatsNotModifiedAsSuccess(t *testing.T) {
	eng, snd := newTestEngine(testConfig())
	snd.editErr = ErrNotModified

	if !eng.SyncButtons(context.Background(), 12) {
		t.Fatal("unchanged keyboard must count as success")
	}
}

func TestSyncButtonsFailsOnRealError(t *testing.T) {
	eng, snd := newTestEngine(testConfig())
	snd.editErr = errors.New("chat not found")

	if eng.SyncButtons(context.Background(), 12) {
		t.Fatal("real edit errors must not be swallowed")
	}
}

func TestSyncButtonsSkipsWhenUnconfigured(t *testing.T) {
	cfg := testConfig()
	cfg.BotUsername = ""
	eng, snd := newTestEngine(cfg)

	if eng.SyncButtons(context.Background(), 12) {
		t.Fatal("sync must be disabled without a bot username")
	}
	if len(snd.edits) != 0 {
		t.Fatal("no edit should be attempted")
	}
}

func TestViewRefreshesButtonCount(t *testing.T) {
	eng, snd := newTestEngine(testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c := comments.Comment{
			ID:        eng.comments.NextCommentID(ctx),
			Text:      "c" + strconv.Itoa(i),
			Timestamp: int64(1000 + i),
		}
		if _, ok := eng.comments.Append(ctx, 7, c); !ok {
			t.Fatalf("append %d failed", i)
		}
	}

	rendered := formatComments(eng.comments.List(ctx, 7))
	for _, want := range []string{"1. c0", "2. c1", "3. c2"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("rendered list missing %q: %q", want, rendered)
		}
	}

	if !eng.SyncButtons(ctx, 7) {
		t.Fatal("sync failed")
	}
	row := snd.edits[len(snd.edits)-1].markup.InlineKeyboard[0]
	if row[1].Text != "View comments (3)" {
		t.Fatalf("button count wrong: %q", row[1].Text)
	}
}

func TestUnsupportedKindIsRejected(t *testing.T) {
	eng, snd := newTestEngine(testConfig())
	ctx := context.Background()

	in := Incoming{
		From:  User{ID: userID},
		Chat:  ChatRef{ID: userID, Type: tele.ChatPrivate},
		Media: KindUnsupported,
	}
	if err := eng.HandleMessage(ctx, in); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	got := snd.textsTo(userID)
	if len(got) != 1 || got[0] != msgUnsupportedKind {
		t.Fatalf("expected rejection notice, got %q", got)
	}
	if len(snd.copies) != 0 {
		t.Fatal("nothing should be copied anywhere")
	}
}

func TestStickerFanOutSendsHeaderSeparately(t *testing.T) {
	eng, snd := newTestEngine(testConfig())
	ctx := context.Background()

	in := Incoming{
		From:  User{ID: userID, Username: "sly"},
		Chat:  ChatRef{ID: userID, Type: tele.ChatPrivate},
		Media: KindSticker,
	}
	if err := eng.HandleMessage(ctx, in); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	adminMsgs := snd.textsTo(adminID)
	if len(adminMsgs) != 1 || adminMsgs[0] != "[anon] From @sly (ID 42)\n\n[sticker]" {
		t.Fatalf("sticker header wrong: %q", adminMsgs)
	}

	var adminCopies, channelCopies int
	for _, cp := range snd.copies {
		if cp.kind != KindSticker {
			t.Fatalf("unexpected copy kind %v", cp.kind)
		}
		switch cp.chatID {
		case adminID:
			adminCopies++
		case channelID:
			channelCopies++
		}
	}
	if adminCopies != 1 || channelCopies != 1 {
		t.Fatalf("sticker copies: admin=%d channel=%d", adminCopies, channelCopies)
	}

	// Vent header precedes the channel sticker as its own message.
	chanMsgs := snd.textsTo(channelID)
	if len(chanMsgs) != 1 || chanMsgs[0] != "UnKnown vent (1)" {
		t.Fatalf("channel vent header wrong: %q", chanMsgs)
	}
}

func TestCaptionedMediaCarriesHeaderInCaption(t *testing.T) {
	eng, snd := newTestEngine(testConfig())
	ctx := context.Background()

	in := Incoming{
		From:    User{ID: userID},
		Chat:    ChatRef{ID: userID, Type: tele.ChatPrivate},
		Media:   KindPhoto,
		Caption: "look at this",
	}
	if err := eng.HandleMessage(ctx, in); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	var adminCaption, groupCaption, channelCaption string
	for _, cp := range snd.copies {
		switch cp.chatID {
		case adminID:
			adminCaption = cp.caption
		case groupID:
			groupCaption = cp.caption
		case channelID:
			channelCaption = cp.caption
		}
	}
	if adminCaption != "[anon] From <no username> (ID 42)\n\nlook at this" {
		t.Fatalf("admin caption wrong: %q", adminCaption)
	}
	if groupCaption != "look at this" {
		t.Fatalf("group caption wrong: %q", groupCaption)
	}
	if channelCaption != "UnKnown vent (1)\n\nlook at this" {
		t.Fatalf("channel caption wrong: %q", channelCaption)
	}
}
