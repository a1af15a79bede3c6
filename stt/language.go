package stt

import (
	"slices"
	"strings"

	"github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
)

// Languages the detector always considers besides the allowed ones, so a
// transcript in an unexpected language can be told apart.
var commonLanguages = []string{"en", "es", "fr", "de", "it", "pt", "nl", "ru", "zh", "ja", "ko"}

// NormalizeLanguage reduces a BCP 47 tag like "en-US" to its ISO 639-1 base.
// "auto" and "" are returned as "auto".
func NormalizeLanguage(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" || strings.EqualFold(tag, "auto") {
		return "auto", nil
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "", err
	}
	base, _ := t.Base()
	return base.String(), nil
}

// languageGuard detects transcripts that came out in a language outside the
// user's set, which whisper's auto-detection produces on short or accented
// speech.
type languageGuard struct {
	allowed  []string
	detector lingua.LanguageDetector
}

// newLanguageGuard returns nil when allowed is empty or none of its entries
// is known to the detector.
func newLanguageGuard(allowed []string) *languageGuard {
	var codes []string
	for _, a := range allowed {
		code, err := NormalizeLanguage(a)
		if err != nil || code == "auto" || linguaLanguage(code) == lingua.Unknown {
			continue
		}
		if !slices.Contains(codes, code) {
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		return nil
	}

	var langs []lingua.Language
	for _, code := range append(slices.Clone(codes), commonLanguages...) {
		if l := linguaLanguage(code); l != lingua.Unknown && !slices.Contains(langs, l) {
			langs = append(langs, l)
		}
	}

	return &languageGuard{
		allowed: codes,
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(langs...).
			WithMinimumRelativeDistance(0.1).
			Build(),
	}
}

// primary is the language to retry with.
func (g *languageGuard) primary() string {
	return g.allowed[0]
}

// outside reports the detected language of text when it is confidently not
// one of the allowed languages.
func (g *languageGuard) outside(text string) (string, bool) {
	lang, ok := g.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	code := strings.ToLower(lang.IsoCode639_1().String())
	if slices.Contains(g.allowed, code) {
		return "", false
	}
	return code, true
}

func linguaLanguage(code string) lingua.Language {
	for _, l := range lingua.AllLanguages() {
		if strings.EqualFold(l.IsoCode639_1().String(), code) {
			return l
		}
	}
	return lingua.Unknown
}
