package stt

import (
	"regexp"
	"strings"
)

var (
	// regexTimestamp matches VTT/SRT timestamps like [00:00:00.000 --> 00:00:04.000]
	regexTimestamp = regexp.MustCompile(`\[\d{2}:\d{2}:\d{2}\.\d{3}\s-->\s\d{2}:\d{2}:\d{2}\.\d{3}\]`)
	// regexTags matches bracketed decoder tags such as [BLANK_AUDIO] or [MUSIC]
	regexTags = regexp.MustCompile(`\[[^\]]*\]`)
	// regexSounds matches parenthesized sound descriptions like (upbeat music)
	regexSounds = regexp.MustCompile(`(?i)\((?:[a-z ]*\s)?(?:music|silence|applause|laughs?|laughter|noise|inaudible|sighs?|coughs?)(?:\s[a-z ]*)?\)`)
	regexSpaces = regexp.MustCompile(`\s+`)
)

// cleanText removes timestamps and non-speech artifacts and normalizes
// whitespace.
func cleanText(text string) string {
	text = regexTimestamp.ReplaceAllString(text, "")
	text = regexTags.ReplaceAllString(text, "")
	text = regexSounds.ReplaceAllString(text, "")
	text = regexSpaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
