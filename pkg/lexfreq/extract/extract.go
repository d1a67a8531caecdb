// Package extract walks a decoded corpus document and yields its word tokens.
//
// Two schemas are supported. The flat schema collects every word element
// anywhere in the tree. The sentence schema reads the body (second top-level
// child of the root), its sentence children, and their word children with an
// optional lemma attribute.
package extract

import (
	"fmt"

	"github.com/cognicore/lexfreq/pkg/lexfreq/decode"
	"github.com/cognicore/lexfreq/pkg/lexfreq/internalerr"
)

// Schema selects the document layout.
type Schema int

const (
	SchemaFlat Schema = iota
	SchemaSentence
)

func (s Schema) String() string {
	if s == SchemaSentence {
		return "sentence"
	}
	return "flat"
}

// Token is one word element's text and lemma.
type Token struct {
	Text     string
	Lemma    string
	HasLemma bool
}

// Stats counts what one extraction saw. FirstSkip holds the first skipped
// word element, wrapping internalerr.ErrEmptyElement.
type Stats struct {
	Sentences int
	Tokens    int
	Skipped   int
	FirstSkip error
}

func (st *Stats) skip(path string) {
	st.Skipped++
	if st.FirstSkip == nil {
		st.FirstSkip = fmt.Errorf("%w: %s token %d", internalerr.ErrEmptyElement, path, st.Tokens)
	}
}

// Extractor yields the tokens of a document in document order.
type Extractor interface {
	Extract(doc *decode.Document, fn func(Token)) (Stats, error)
}

// Options names the elements and attribute each schema reads.
type Options struct {
	WordTag     string
	SentenceTag string
	LemmaAttr   string
}

// DefaultOptions matches the OPUS XML export.
func DefaultOptions() Options {
	return Options{WordTag: "w", SentenceTag: "s", LemmaAttr: "lem"}
}

// New returns the extractor for schema.
func New(schema Schema, opts Options) Extractor {
	if schema == SchemaSentence {
		return &Sentence{opts: opts}
	}
	return &Flat{opts: opts}
}

// Flat collects every word element regardless of nesting.
type Flat struct {
	opts Options
}

// Extract implements Extractor.
func (f *Flat) Extract(doc *decode.Document, fn func(Token)) (Stats, error) {
	var st Stats
	doc.Root.Iter(f.opts.WordTag, func(w *decode.Element) {
		st.Tokens++
		if w.Text == "" {
			st.skip(doc.Path)
			return
		}
		fn(Token{Text: w.Text})
	})
	return st, nil
}

// Sentence reads body → sentence → word.
type Sentence struct {
	opts Options
}

// Extract implements Extractor. A document without a body section fails
// with internalerr.ErrNoBody; words without text are skipped.
func (s *Sentence) Extract(doc *decode.Document, fn func(Token)) (Stats, error) {
	var st Stats
	body := doc.Root.Child(1)
	if body == nil {
		return st, fmt.Errorf("%w: %s has %d top-level children", internalerr.ErrNoBody, doc.Path, len(doc.Root.Children))
	}
	for _, sent := range body.Children {
		st.Sentences++
		if sent.Name != s.opts.SentenceTag {
			continue
		}
		for _, w := range sent.Children {
			st.Tokens++
			if w.Text == "" {
				st.skip(doc.Path)
				continue
			}
			tok := Token{Text: w.Text}
			if s.opts.LemmaAttr != "" {
				tok.Lemma, tok.HasLemma = w.Get(s.opts.LemmaAttr)
			}
			fn(tok)
		}
	}
	return st, nil
}
