package index

import (
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/lexicon"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/errors"
)

// Builder accumulates postings for one index build. It is not safe for
// concurrent use; a build is a single sequential pass over the collection.
type Builder struct {
	lexicon    *lexicon.Lexicon
	postings   []PostingList
	docLengths []int32
	docNos     []string
	seenDocNo  map[string]DocID
	built      bool

	// scratch space reused across documents
	counts map[lexicon.TermID]int32
	order  []lexicon.TermID
}

func NewBuilder() *Builder {
	return &Builder{
		lexicon:   lexicon.New(),
		seenDocNo: make(map[string]DocID),
		counts:    make(map[lexicon.TermID]int32),
	}
}

// Lexicon exposes the lexicon being built so callers can intern tokens
// before calling AddDocument.
func (b *Builder) Lexicon() *lexicon.Lexicon {
	return b.lexicon
}

// Add interns tokens, assigns the next DocID to docNo and indexes the
// document. It returns the assigned DocID.
func (b *Builder) Add(docNo string, tokens []string) (DocID, error) {
	if b.built {
		return 0, apperrors.New(apperrors.ErrInvalidInput, "builder already finished")
	}
	if docNo == "" {
		return 0, apperrors.Validation("", 0, "document %d has an empty DOCNO", len(b.docLengths))
	}
	if prev, ok := b.seenDocNo[docNo]; ok {
		return 0, apperrors.Newf(apperrors.ErrDuplicateKey, "DOCNO %q already indexed as document %d", docNo, prev)
	}
	docID := DocID(len(b.docLengths))
	ids := b.lexicon.InternAll(tokens)
	if _, err := b.AddDocument(docID, ids); err != nil {
		return 0, err
	}
	b.seenDocNo[docNo] = docID
	b.docNos = append(b.docNos, docNo)
	return docID, nil
}

// AddDocument counts term frequencies in tokenIDs, appends one posting per
// distinct term and records the document length. DocIDs must arrive densely
// in order; each DocID may be added once. Postings for a document are
// appended in order of each term's first occurrence in tokenIDs.
func (b *Builder) AddDocument(docID DocID, tokenIDs []lexicon.TermID) (int, error) {
	if b.built {
		return 0, apperrors.New(apperrors.ErrInvalidInput, "builder already finished")
	}
	next := DocID(len(b.docLengths))
	switch {
	case docID < 0:
		return 0, apperrors.Validation("", 0, "negative document id %d", docID)
	case docID < next:
		return 0, apperrors.Newf(apperrors.ErrDuplicateKey, "document %d already indexed", docID)
	case docID > next:
		return 0, apperrors.Validation("", 0, "document id %d skips ahead of %d", docID, next)
	}

	b.order = b.order[:0]
	for _, id := range tokenIDs {
		if int(id) >= b.lexicon.Len() || id < 0 {
			return 0, apperrors.Validation("", 0, "term id %d not in lexicon", id)
		}
		if _, ok := b.counts[id]; !ok {
			b.order = append(b.order, id)
		}
		b.counts[id]++
	}
	if need := b.lexicon.Len(); len(b.postings) < need {
		b.postings = append(b.postings, make([]PostingList, need-len(b.postings))...)
	}
	for _, id := range b.order {
		b.postings[id] = append(b.postings[id], Posting{DocID: docID, Frequency: b.counts[id]})
		delete(b.counts, id)
	}
	b.docLengths = append(b.docLengths, int32(len(tokenIDs)))
	return len(tokenIDs), nil
}

// DocCount returns the number of documents added so far.
func (b *Builder) DocCount() int {
	return len(b.docLengths)
}

// Build hands the accumulated state to an immutable Index. It may be
// called once; the builder rejects further documents.
func (b *Builder) Build(meta Meta) *Index {
	if b.built {
		panic("index: Build called twice")
	}
	b.built = true
	if need := b.lexicon.Len(); len(b.postings) < need {
		b.postings = append(b.postings, make([]PostingList, need-len(b.postings))...)
	}
	docNos := b.docNos
	if len(docNos) != len(b.docLengths) {
		// Documents were added via AddDocument without a DOCNO.
		docNos = nil
	}
	idx := newIndex(meta, b.lexicon, b.postings, b.docLengths, docNos)
	b.lexicon = nil
	b.postings = nil
	b.docLengths = nil
	b.docNos = nil
	b.seenDocNo = nil
	return idx
}
