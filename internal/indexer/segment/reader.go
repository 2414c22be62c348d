package segment

import (
	"bytes"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/errors"
)

// Artifact is a loaded index file.
type Artifact struct {
	Path   string
	Header Header
	Digest [32]byte
	Index  *index.Index
}

// Open reads and verifies an index file and reconstructs the index.
func Open(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	if len(data) < HeaderSize+FooterSize {
		return nil, apperrors.Newf(apperrors.ErrCorrupt, "%s: file too short (%d bytes)", path, len(data))
	}
	header := decodeHeader(data[:HeaderSize])
	if header.Magic != MagicBytes {
		return nil, apperrors.Newf(apperrors.ErrCorrupt, "%s: bad magic bytes %x", path, header.Magic)
	}
	if header.Version != FormatVersion {
		return nil, apperrors.Newf(apperrors.ErrCorrupt, "%s: unsupported format version %d", path, header.Version)
	}

	body := data[HeaderSize : len(data)-FooterSize]
	var digest [32]byte
	copy(digest[:], data[len(data)-FooterSize:])
	if sum := blake3.Sum256(body); !bytes.Equal(sum[:], digest[:]) {
		return nil, apperrors.Newf(apperrors.ErrCorrupt, "%s: checksum mismatch", path)
	}

	var (
		terms      []string
		flat       [][]int32
		docLengths []int32
		docNos     []string
	)
	targets := [numSections]any{
		SectionLexicon:    &terms,
		SectionPostings:   &flat,
		SectionDocLengths: &docLengths,
		SectionDocNos:     &docNos,
	}
	end := int64(len(data) - FooterSize)
	for s := Section(0); s < numSections; s++ {
		ref := header.Sections[s]
		if ref.Offset < int64(HeaderSize) || ref.Size < 0 || ref.Offset+ref.Size > end {
			return nil, apperrors.Newf(apperrors.ErrCorrupt, "%s: %s section out of bounds", path, s)
		}
		if err := decodeSection(data[ref.Offset:ref.Offset+ref.Size], targets[s]); err != nil {
			return nil, apperrors.Newf(apperrors.ErrCorrupt, "%s: decoding %s: %v", path, s, err)
		}
	}

	if uint32(len(terms)) != header.TermCount || uint32(len(docLengths)) != header.DocCount {
		return nil, apperrors.Newf(apperrors.ErrCorrupt,
			"%s: header counts %d terms/%d docs, sections hold %d/%d",
			path, header.TermCount, header.DocCount, len(terms), len(docLengths))
	}
	postings, err := expandPostings(flat)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrCorrupt, "%s: %v", path, err)
	}
	meta := index.Meta{
		Stemmed:   header.Flags&flagStemmed != 0,
		CreatedAt: header.CreatedAt,
	}
	idx, err := index.Restore(meta, terms, postings, docLengths, docNos)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrCorrupt, "%s: %v", path, err)
	}
	return &Artifact{
		Path:   path,
		Header: header,
		Digest: digest,
		Index:  idx,
	}, nil
}

func decodeSection(data []byte, v any) error {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("decompressing: %w", err)
	}
	return cbor.Unmarshal(raw, v)
}

func expandPostings(flat [][]int32) ([]index.PostingList, error) {
	postings := make([]index.PostingList, len(flat))
	for id, pairs := range flat {
		if len(pairs)%2 != 0 {
			return nil, fmt.Errorf("term %d has an odd postings length %d", id, len(pairs))
		}
		pl := make(index.PostingList, 0, len(pairs)/2)
		for j := 0; j < len(pairs); j += 2 {
			pl = append(pl, index.Posting{
				DocID:     index.DocID(pairs[j]),
				Frequency: pairs[j+1],
			})
		}
		postings[id] = pl
	}
	return postings, nil
}
