package relay

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestCopyPayloadAppliesCaptionPerKind(t *testing.T) {
	src := &tele.Message{
		Photo:    &tele.Photo{Caption: "original"},
		Document: &tele.Document{Caption: "original"},
		Audio:    &tele.Audio{Caption: "original"},
		Voice:    &tele.Voice{},
		Video:    &tele.Video{Caption: "original"},
	}

	for _, kind := range []MediaKind{KindPhoto, KindDocument, KindAudio, KindVoice, KindVideo} {
		in := Incoming{Media: kind, Original: src}
		payload, err := copyPayload(in, "[anon] From @sly (ID 42)")
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}

		var got string
		switch p := payload.(type) {
		case *tele.Photo:
			got = p.Caption
		case *tele.Document:
			got = p.Caption
		case *tele.Audio:
			got = p.Caption
		case *tele.Voice:
			got = p.Caption
		case *tele.Video:
			got = p.Caption
		default:
			t.Fatalf("%s: unexpected payload type %T", kind, payload)
		}
		if got != "[anon] From @sly (ID 42)" {
			t.Fatalf("%s: caption = %q", kind, got)
		}
	}

	// The source message must stay untouched for the next destination.
	if src.Voice.Caption != "" || src.Photo.Caption != "original" {
		t.Fatalf("source message mutated: voice=%q photo=%q", src.Voice.Caption, src.Photo.Caption)
	}
}

func TestCopyPayloadStickerIgnoresCaption(t *testing.T) {
	src := &tele.Message{Sticker: &tele.Sticker{}}

	payload, err := copyPayload(Incoming{Media: KindSticker, Original: src}, "ignored")
	if err != nil {
		t.Fatalf("copyPayload: %v", err)
	}
	if payload != src.Sticker {
		t.Fatal("sticker must be passed through as-is")
	}
}

func TestCopyPayloadRejectsUncopyable(t *testing.T) {
	if _, err := copyPayload(Incoming{Media: KindUnsupported, Original: &tele.Message{}}, ""); err == nil {
		t.Fatal("unsupported kinds must be rejected")
	}
	if _, err := copyPayload(Incoming{Media: KindPhoto}, ""); err == nil {
		t.Fatal("a missing source message must be rejected")
	}
}
