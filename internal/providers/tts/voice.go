package tts

import (
	"unicode"

	"golang.org/x/text/language"
)

// scriptTables maps ISO 15924 codes to the unicode tables that write them.
var scriptTables = map[string][]*unicode.RangeTable{
	"Latn": {unicode.Latin},
	"Deva": {unicode.Devanagari},
	"Taml": {unicode.Tamil},
	"Telu": {unicode.Telugu},
	"Knda": {unicode.Kannada},
	"Mlym": {unicode.Malayalam},
	"Beng": {unicode.Bengali},
	"Gujr": {unicode.Gujarati},
	"Guru": {unicode.Gurmukhi},
	"Orya": {unicode.Oriya},
	"Sinh": {unicode.Sinhala},
	"Arab": {unicode.Arabic},
	"Hebr": {unicode.Hebrew},
	"Cyrl": {unicode.Cyrillic},
	"Grek": {unicode.Greek},
	"Armn": {unicode.Armenian},
	"Geor": {unicode.Georgian},
	"Ethi": {unicode.Ethiopic},
	"Thai": {unicode.Thai},
	"Laoo": {unicode.Lao},
	"Khmr": {unicode.Khmer},
	"Mymr": {unicode.Myanmar},
	"Hang": {unicode.Hangul},
	"Kore": {unicode.Hangul, unicode.Han},
	"Hans": {unicode.Han},
	"Hant": {unicode.Han},
	"Jpan": {unicode.Hiragana, unicode.Katakana, unicode.Han},
}

// Voice pairs a language with the voice name used to speak it. An empty Name
// lets the engine pick its default voice for the language.
type Voice struct {
	Language string
	Name     string
	tables   []*unicode.RangeTable
}

// Selector picks a voice by the dominant script of the text.
type Selector struct {
	voices []Voice
}

// NewSelector builds a selector over languages in order; ties and text in no
// known script fall back to the first language.
func NewSelector(languages []string, names map[string]string) *Selector {
	s := &Selector{}
	for _, l := range languages {
		v := Voice{Language: l, Name: names[l]}
		if tag, err := language.Parse(l); err == nil {
			script, _ := tag.Script()
			v.tables = scriptTables[script.String()]
		}
		s.voices = append(s.voices, v)
	}
	return s
}

func (s *Selector) Select(text string) Voice {
	if len(s.voices) == 0 {
		return Voice{}
	}
	best, bestCount := 0, 0
	for i, v := range s.voices {
		if n := countRunes(text, v.tables); n > bestCount {
			best, bestCount = i, n
		}
	}
	return s.voices[best]
}

func countRunes(text string, tables []*unicode.RangeTable) int {
	if len(tables) == 0 {
		return 0
	}
	n := 0
	for _, r := range text {
		if unicode.IsOneOf(tables, r) {
			n++
		}
	}
	return n
}
