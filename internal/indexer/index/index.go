package index

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/lexicon"
)

// Meta describes how an index was built.
type Meta struct {
	// Stemmed records whether tokens were stemmed at build time. Queries
	// must be tokenized with the same setting.
	Stemmed   bool
	CreatedAt int64
}

// Index is the immutable index artifact: lexicon, inverted index, document
// lengths and the DocID to DOCNO table. It is safe for concurrent reads.
type Index struct {
	meta         Meta
	lexicon      *lexicon.Lexicon
	postings     []PostingList
	docLengths   []int32
	docNos       []string
	avgDocLength float64
}

func newIndex(meta Meta, lex *lexicon.Lexicon, postings []PostingList, docLengths []int32, docNos []string) *Index {
	var total int64
	for _, l := range docLengths {
		total += int64(l)
	}
	avg := 0.0
	if len(docLengths) > 0 {
		avg = float64(total) / float64(len(docLengths))
	}
	return &Index{
		meta:         meta,
		lexicon:      lex,
		postings:     postings,
		docLengths:   docLengths,
		docNos:       docNos,
		avgDocLength: avg,
	}
}

// Restore reassembles an Index from persisted sections. It checks that the
// sections agree with each other.
func Restore(meta Meta, terms []string, postings []PostingList, docLengths []int32, docNos []string) (*Index, error) {
	lex := lexicon.FromTerms(terms)
	if lex.Len() != len(terms) {
		return nil, fmt.Errorf("lexicon has %d terms but %d distinct", len(terms), lex.Len())
	}
	if len(postings) != len(terms) {
		return nil, fmt.Errorf("%d postings lists for %d terms", len(postings), len(terms))
	}
	if docNos != nil && len(docNos) != len(docLengths) {
		return nil, fmt.Errorf("%d DOCNOs for %d documents", len(docNos), len(docLengths))
	}
	n := DocID(len(docLengths))
	for id, pl := range postings {
		for _, p := range pl {
			if p.DocID < 0 || p.DocID >= n {
				return nil, fmt.Errorf("term %d posts unknown document %d", id, p.DocID)
			}
			if p.Frequency <= 0 {
				return nil, fmt.Errorf("term %d has non-positive frequency for document %d", id, p.DocID)
			}
		}
	}
	return newIndex(meta, lex, postings, docLengths, docNos), nil
}

func (x *Index) Meta() Meta {
	return x.meta
}

func (x *Index) Lexicon() *lexicon.Lexicon {
	return x.lexicon
}

// Postings returns the postings list for a term, or nil when the ID is out
// of range. The list must not be modified.
func (x *Index) Postings(id lexicon.TermID) PostingList {
	if id < 0 || int(id) >= len(x.postings) {
		return nil
	}
	return x.postings[id]
}

// Lookup returns the postings list for a term string.
func (x *Index) Lookup(term string) (PostingList, bool) {
	id, ok := x.lexicon.Lookup(term)
	if !ok {
		return nil, false
	}
	return x.postings[id], true
}

// DocCount is N, the number of documents in the collection.
func (x *Index) DocCount() int {
	return len(x.docLengths)
}

func (x *Index) DocLength(id DocID) int {
	return int(x.docLengths[id])
}

// DocLengths returns the length table indexed by DocID. The slice must not
// be modified.
func (x *Index) DocLengths() []int32 {
	return x.docLengths
}

func (x *Index) AvgDocLength() float64 {
	return x.avgDocLength
}

// DocNo returns the external identifier of a document. Indexes built without
// DOCNOs fall back to the decimal DocID.
func (x *Index) DocNo(id DocID) string {
	if x.docNos == nil {
		return fmt.Sprintf("%d", id)
	}
	return x.docNos[id]
}

// DocNos returns the DOCNO table, or nil if the index has none.
func (x *Index) DocNos() []string {
	return x.docNos
}

// Entries walks the inverted index in TermID order.
func (x *Index) Entries() []TermEntry {
	terms := x.lexicon.Terms()
	entries := make([]TermEntry, len(terms))
	for i, t := range terms {
		entries[i] = TermEntry{
			ID:       lexicon.TermID(i),
			Term:     t,
			Postings: x.postings[i],
		}
	}
	return entries
}

// Stats returns per-document statistics in DocID order.
func (x *Index) Stats() []DocStats {
	stats := make([]DocStats, len(x.docLengths))
	for i, l := range x.docLengths {
		stats[i] = DocStats{
			DocID:  DocID(i),
			DocNo:  x.DocNo(DocID(i)),
			DocLen: int(l),
		}
	}
	return stats
}
