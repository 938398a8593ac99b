// Package report builds the field notes sentence and the exported snapshot
// that pairs a monster drawing with its notes.
package report

import (
	"regexp"
	"strings"
)

// Blank stands in for a word that has not been filled in.
const Blank = "_____"

var tagPattern = regexp.MustCompile(`<[^>]*>?`)

// FieldNotes are the words describing a monster.
type FieldNotes struct {
	Adjective   string
	Noun        string
	Adverb      string
	Preposition string
}

// StripTags removes markup from s.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

func orBlank(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return Blank
	}
	return s
}

// Lines returns the two sentences of the notes.
func (n FieldNotes) Lines() [2]string {
	return [2]string{
		"The " + orBlank(n.Adjective) + " beast waits " + orBlank(n.Adverb),
		orBlank(n.Preposition) + " to show its " + orBlank(StripTags(n.Noun)) + ".",
	}
}

// String joins the notes into one paragraph.
func (n FieldNotes) String() string {
	l := n.Lines()
	return l[0] + " " + l[1]
}
