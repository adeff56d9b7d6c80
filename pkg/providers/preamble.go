package providers

import "strings"

// StripPreamble removes a leading conversational line such as
// "Here is chapter 3:" from generated text. The first line is dropped only
// when the text starts with "Here" and that line, trimmed, ends with a colon.
// Everything after the first newline is returned untouched.
func StripPreamble(text string) string {
	if !strings.HasPrefix(text, "Here") {
		return text
	}
	first, rest, found := strings.Cut(text, "\n")
	if !found {
		return text
	}
	if !strings.HasSuffix(strings.TrimSpace(first), ":") {
		return text
	}
	return rest
}
