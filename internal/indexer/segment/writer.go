package segment

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/index"
)

// MagicBytes identifies a valid .bmx index file.
const (
	MagicBytes    uint32 = 0x424D4958
	FormatVersion uint32 = 1
	HeaderSize    int    = 128
	FooterSize    int    = 32
	FileName             = "index.bmx"
)

const flagStemmed uint32 = 1 << 0

// Section identifies one encoded block of the index file. Sections are
// written in this order.
type Section int

const (
	SectionLexicon Section = iota
	SectionPostings
	SectionDocLengths
	SectionDocNos
	numSections
)

func (s Section) String() string {
	switch s {
	case SectionLexicon:
		return "lexicon"
	case SectionPostings:
		return "postings"
	case SectionDocLengths:
		return "doc_lengths"
	case SectionDocNos:
		return "docnos"
	default:
		return fmt.Sprintf("section(%d)", int(s))
	}
}

// SectionRef locates a section relative to the start of the file.
type SectionRef struct {
	Offset int64
	Size   int64
}

// Header is the fixed-size header at the start of every index file.
type Header struct {
	Magic     uint32
	Version   uint32
	TermCount uint32
	DocCount  uint32
	CreatedAt int64
	Flags     uint32
	Sections  [numSections]SectionRef
}

var (
	encMode cbor.EncMode
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("segment: CBOR encoder initialization failed: " + err.Error())
	}
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("segment: zstd encoder initialization failed: " + err.Error())
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("segment: zstd decoder initialization failed: " + err.Error())
	}
}

// Writer serialises an index.Index into a single file.
type Writer struct {
	dataDir string
}

func NewWriter(dataDir string) *Writer {
	return &Writer{dataDir: dataDir}
}

// Write atomically creates the index file for idx. It writes to a .tmp file
// first and renames on success. It returns the final path and the blake3
// digest of the section bytes.
func (w *Writer) Write(idx *index.Index) (string, [32]byte, error) {
	var digest [32]byte
	finalPath := filepath.Join(w.dataDir, FileName)
	tmpPath := finalPath + ".tmp"

	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return "", digest, fmt.Errorf("creating index directory: %w", err)
	}
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", digest, fmt.Errorf("creating temp index file: %w", err)
	}
	defer f.Close()

	meta := idx.Meta()
	createdAt := meta.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}
	header := Header{
		Magic:     MagicBytes,
		Version:   FormatVersion,
		TermCount: uint32(idx.Lexicon().Len()),
		DocCount:  uint32(idx.DocCount()),
		CreatedAt: createdAt,
	}
	if meta.Stemmed {
		header.Flags |= flagStemmed
	}
	if _, err := f.Write(make([]byte, HeaderSize)); err != nil {
		return "", digest, fmt.Errorf("writing header placeholder: %w", err)
	}

	hasher := blake3.New()
	out := io.MultiWriter(f, hasher)
	offset := int64(HeaderSize)
	payloads := [numSections]any{
		SectionLexicon:    idx.Lexicon().Terms(),
		SectionPostings:   flattenPostings(idx),
		SectionDocLengths: idx.DocLengths(),
		SectionDocNos:     idx.DocNos(),
	}
	for s := Section(0); s < numSections; s++ {
		data, err := encodeSection(payloads[s])
		if err != nil {
			return "", digest, fmt.Errorf("encoding %s: %w", s, err)
		}
		if _, err := out.Write(data); err != nil {
			return "", digest, fmt.Errorf("writing %s: %w", s, err)
		}
		header.Sections[s] = SectionRef{Offset: offset, Size: int64(len(data))}
		offset += int64(len(data))
	}

	copy(digest[:], hasher.Sum(nil))
	if _, err := f.Write(digest[:]); err != nil {
		return "", digest, fmt.Errorf("writing footer: %w", err)
	}
	if _, err := f.WriteAt(encodeHeader(header), 0); err != nil {
		return "", digest, fmt.Errorf("updating header: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", digest, fmt.Errorf("syncing index file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", digest, fmt.Errorf("renaming index file: %w", err)
	}
	return finalPath, digest, nil
}

// flattenPostings stores each list as docID,frequency pairs, one list per
// TermID.
func flattenPostings(idx *index.Index) [][]int32 {
	entries := idx.Entries()
	flat := make([][]int32, len(entries))
	for i, e := range entries {
		pairs := make([]int32, 0, 2*len(e.Postings))
		for _, p := range e.Postings {
			pairs = append(pairs, int32(p.DocID), p.Frequency)
		}
		flat[i] = pairs
	}
	return flat
}

func encodeSection(v any) ([]byte, error) {
	raw, err := encMode.Marshal(v)
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

func encodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.TermCount)
	binary.LittleEndian.PutUint32(buf[12:16], h.DocCount)
	binary.LittleEndian.PutUint64(buf[16:24], uint64(h.CreatedAt))
	binary.LittleEndian.PutUint32(buf[24:28], h.Flags)
	pos := 32
	for _, ref := range h.Sections {
		binary.LittleEndian.PutUint64(buf[pos:pos+8], uint64(ref.Offset))
		binary.LittleEndian.PutUint64(buf[pos+8:pos+16], uint64(ref.Size))
		pos += 16
	}
	return buf
}

func decodeHeader(buf []byte) Header {
	h := Header{
		Magic:     binary.LittleEndian.Uint32(buf[0:4]),
		Version:   binary.LittleEndian.Uint32(buf[4:8]),
		TermCount: binary.LittleEndian.Uint32(buf[8:12]),
		DocCount:  binary.LittleEndian.Uint32(buf[12:16]),
		CreatedAt: int64(binary.LittleEndian.Uint64(buf[16:24])),
		Flags:     binary.LittleEndian.Uint32(buf[24:28]),
	}
	pos := 32
	for i := range h.Sections {
		h.Sections[i] = SectionRef{
			Offset: int64(binary.LittleEndian.Uint64(buf[pos : pos+8])),
			Size:   int64(binary.LittleEndian.Uint64(buf[pos+8 : pos+16])),
		}
		pos += 16
	}
	return h
}
