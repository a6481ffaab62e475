package service

import (
	"strings"
	"unicode"

	"github.com/thingspace/thingspace-notes/internal/domain"

	"golang.org/x/text/cases"
)

const (
	coverageWeight      = 0.6
	titleCoverageWeight = 0.25
	phraseWeight        = 0.15
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {}, "or": {},
	"the": {}, "to": {}, "with": {},
}

// lexicalQuery scores notes against one folded query. Not safe for
// concurrent use: the caser keeps state.
type lexicalQuery struct {
	caser  cases.Caser
	terms  []string
	phrase string
}

func newLexicalQuery(query string) *lexicalQuery {
	lq := &lexicalQuery{caser: cases.Fold()}
	tokens := lq.tokens(query)
	lq.phrase = strings.Join(tokens, " ")

	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, stop := stopWords[t]; stop {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		lq.terms = append(lq.terms, t)
	}
	// a query made only of stop words still matches on them
	if len(lq.terms) == 0 {
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			lq.terms = append(lq.terms, t)
		}
	}
	return lq
}

func (lq *lexicalQuery) tokens(s string) []string {
	folded := lq.caser.String(s)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func (lq *lexicalQuery) normalize(s string) string {
	return strings.Join(lq.tokens(s), " ")
}

// score returns the lexical match strength of n in [0,1].
func (lq *lexicalQuery) score(n *domain.Note) float64 {
	if len(lq.terms) == 0 {
		return 0
	}

	title := lq.normalize(n.Title)
	var b strings.Builder
	b.WriteString(title)
	for _, f := range n.Fields {
		b.WriteString(" \n ")
		b.WriteString(lq.normalize(f.Content))
	}
	body := b.String()

	var inBody, inTitle int
	for _, t := range lq.terms {
		if strings.Contains(title, t) {
			inTitle++
			inBody++
		} else if strings.Contains(body, t) {
			inBody++
		}
	}

	total := float64(len(lq.terms))
	s := coverageWeight*float64(inBody)/total + titleCoverageWeight*float64(inTitle)/total
	if lq.phrase != "" && strings.Contains(body, lq.phrase) {
		s += phraseWeight
	}
	return s
}
