// Package ingestion reads raw documents from a TREC-formatted collection and
// hands them to the indexer as (DOCNO, text) records in stream order.
package ingestion

import "strings"

// Document is one <DOC> element of the collection with its text fields
// already extracted.
type Document struct {
	DocNo    string `json:"docno"`
	Headline string `json:"headline"`
	Text     string `json:"text"`
	Graphic  string `json:"graphic"`
}

// IndexText is the text that gets tokenized for the document.
func (d Document) IndexText() string {
	return strings.Join([]string{d.Headline, d.Text, d.Graphic}, " ")
}
