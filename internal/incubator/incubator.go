// Package incubator turns adjectives into nouns with the -ness suffix,
// checking the word against a dictionary first.
package incubator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Suffix is appended to every adjective.
const Suffix = "ness"

// Incubation errors.
var (
	ErrEmptyWord       = errors.New("no word to incubate")
	ErrUnknownSpecimen = errors.New("unknown specimen")
)

// PartOfSpeechError reports a word that is not usable as an adjective.
type PartOfSpeechError struct {
	Word string
	POS  string
}

func (e *PartOfSpeechError) Error() string {
	return fmt.Sprintf("%q is a %s", e.Word, e.POS)
}

// Result is an incubated word split for display: Stem + Joint + Suffix == Noun.
type Result struct {
	Adjective string
	Noun      string
	Stem      string
	Joint     string
	Suffix    string
	// Offline is set when the dictionary could not be consulted.
	Offline bool
}

// Nounify applies the -ness rule: a trailing "y" becomes "i".
func Nounify(adjective string) Result {
	base := strings.ToLower(strings.TrimSpace(adjective))
	r := Result{Adjective: strings.TrimSpace(adjective), Stem: base, Suffix: Suffix}
	if stem, ok := strings.CutSuffix(base, "y"); ok {
		r.Stem = stem
		r.Joint = "i"
	}
	r.Noun = r.Stem + r.Joint + r.Suffix
	return r
}

// Incubator validates words and derives their nouns.
type Incubator struct {
	dict   Dictionary
	logger *zap.Logger
}

// Option configures an Incubator.
type Option func(*Incubator)

// WithLogger sets the incubator logger.
func WithLogger(l *zap.Logger) Option {
	return func(inc *Incubator) {
		if l != nil {
			inc.logger = l
		}
	}
}

// New creates an incubator. A nil dictionary runs every word offline.
func New(dict Dictionary, opts ...Option) *Incubator {
	inc := &Incubator{dict: dict, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(inc)
	}
	return inc
}

// Incubate checks word and returns its noun.
//
// Words whose primary usage is a verb, or that have no adjective meaning,
// fail with *PartOfSpeechError. Words the dictionary does not know fail with
// ErrUnknownSpecimen. If the dictionary cannot be reached, or answers with
// something other than a list of entries, the word is accepted and the
// result is marked Offline.
func (inc *Incubator) Incubate(ctx context.Context, word string) (Result, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return Result{}, ErrEmptyWord
	}
	if inc.dict == nil {
		r := Nounify(word)
		r.Offline = true
		return r, nil
	}

	usage, err := inc.dict.Lookup(ctx, word)
	switch {
	case errors.Is(err, ErrWordNotFound):
		inc.logger.Debug("word not in dictionary", zap.String("word", word))
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownSpecimen, word)
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		inc.logger.Warn("dictionary check failed, incubating offline",
			zap.String("word", word), zap.Error(err))
		r := Nounify(word)
		r.Offline = true
		return r, nil
	}

	if usage.Primary == "verb" {
		return Result{}, &PartOfSpeechError{Word: word, POS: "verb"}
	}
	if !usage.Has("adjective") {
		return Result{}, &PartOfSpeechError{Word: word, POS: usage.Primary}
	}
	return Nounify(word), nil
}
