package format

import (
	"fmt"
	"html"
)

// EscapeHTML escapes user-supplied text for Telegram HTML parse mode.
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

// Bold wraps escaped text in bold tags.
func Bold(text string) string {
	return fmt.Sprintf("<b>%s</b>", EscapeHTML(text))
}

// Italic wraps escaped text in italic tags.
func Italic(text string) string {
	return fmt.Sprintf("<i>%s</i>", EscapeHTML(text))
}
