package relay

import (
	"strings"
	"testing"

	"ventbot/relay/comments"
)

func TestAnonHeader(t *testing.T) {
	if got := anonHeader(User{ID: 42, Username: "alice"}); got != "[anon] From @alice (ID 42)" {
		t.Fatalf("header with username: %q", got)
	}
	if got := anonHeader(User{ID: 42}); got != "[anon] From <no username> (ID 42)" {
		t.Fatalf("header without username: %q", got)
	}
}

func TestFormatCommentsEmpty(t *testing.T) {
	got := formatComments(nil)
	if !strings.Contains(got, "No comments yet. Be the first to comment!") {
		t.Fatalf("empty list rendering: %q", got)
	}
	if !strings.HasPrefix(got, msgCommentsHeader) {
		t.Fatalf("missing header: %q", got)
	}
}

func TestFormatCommentsNumbersAndEscapes(t *testing.T) {
	got := formatComments([]comments.Comment{
		{ID: 1, Text: "first", Timestamp: 1700000000000},
		{ID: 2, Text: "a < b & c", Timestamp: 1700000060000},
	})
	if !strings.Contains(got, "1. first") {
		t.Fatalf("missing first item: %q", got)
	}
	if !strings.Contains(got, "2. a &lt; b &amp; c") {
		t.Fatalf("text not escaped: %q", got)
	}
	if strings.Count(got, "<i>") != 2 {
		t.Fatalf("expected two timestamps: %q", got)
	}
}

func TestCommentBody(t *testing.T) {
	if body, ok := commentBody(Incoming{Media: KindText, Text: "hi"}); !ok || body != "hi" {
		t.Fatalf("text body: %q ok=%v", body, ok)
	}
	if body, ok := commentBody(Incoming{Media: KindPhoto, Caption: "sunset"}); !ok || body != "sunset" {
		t.Fatalf("caption body: %q ok=%v", body, ok)
	}
	if body, ok := commentBody(Incoming{Media: KindVoice}); !ok || body != "[Voice message]" {
		t.Fatalf("placeholder body: %q ok=%v", body, ok)
	}
	if _, ok := commentBody(Incoming{Media: KindUnsupported}); ok {
		t.Fatal("unsupported media must be rejected")
	}
}

func TestPreviewTruncation(t *testing.T) {
	short := "short comment"
	if got := preview(short); got != short {
		t.Fatalf("short text altered: %q", got)
	}
	long := strings.Repeat("x", 60)
	got := preview(long)
	if len([]rune(got)) != previewRunes+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("long text not truncated: %q", got)
	}
}

func TestDeepLink(t *testing.T) {
	got := deepLink("ventrelay_bot", "comment_12")
	if got != "https://t.me/ventrelay_bot?start=comment_12" {
		t.Fatalf("deep link: %q", got)
	}
}
