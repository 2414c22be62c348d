package index

import "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/lexicon"

// DocID is the dense internal document identifier, assigned in ingestion
// order from 0.
type DocID int32

// Posting records how often a term occurs in one document.
type Posting struct {
	DocID     DocID
	Frequency int32
}

// PostingList is in insertion order. It is not guaranteed to be sorted by
// DocID.
type PostingList []Posting

// TermEntry pairs a term with its postings, used when walking the index in
// TermID order.
type TermEntry struct {
	ID       lexicon.TermID
	Term     string
	Postings PostingList
}

type DocStats struct {
	DocID  DocID
	DocNo  string
	DocLen int
}
