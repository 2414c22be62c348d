// Package lexicon maps terms to dense integer IDs and back.
package lexicon

// TermID identifies a term. IDs are assigned densely from 0 in first-seen
// order.
type TermID int32

// Lexicon is a bidirectional term dictionary. It is mutated only while an
// index is being built; afterwards it is shared read-only.
type Lexicon struct {
	ids   map[string]TermID
	terms []string
}

func New() *Lexicon {
	return &Lexicon{
		ids: make(map[string]TermID),
	}
}

// FromTerms rebuilds a Lexicon whose term i has ID i.
func FromTerms(terms []string) *Lexicon {
	l := &Lexicon{
		ids:   make(map[string]TermID, len(terms)),
		terms: make([]string, 0, len(terms)),
	}
	for _, t := range terms {
		l.Intern(t)
	}
	return l
}

// Intern returns the ID of term, assigning the next ID if it is new.
func (l *Lexicon) Intern(term string) TermID {
	if id, ok := l.ids[term]; ok {
		return id
	}
	id := TermID(len(l.terms))
	l.ids[term] = id
	l.terms = append(l.terms, term)
	return id
}

// InternAll interns every token in order.
func (l *Lexicon) InternAll(tokens []string) []TermID {
	ids := make([]TermID, len(tokens))
	for i, t := range tokens {
		ids[i] = l.Intern(t)
	}
	return ids
}

func (l *Lexicon) Lookup(term string) (TermID, bool) {
	id, ok := l.ids[term]
	return id, ok
}

func (l *Lexicon) Term(id TermID) (string, bool) {
	if id < 0 || int(id) >= len(l.terms) {
		return "", false
	}
	return l.terms[id], true
}

func (l *Lexicon) Len() int {
	return len(l.terms)
}

// Terms returns the terms in ID order. The slice must not be modified.
func (l *Lexicon) Terms() []string {
	return l.terms
}
