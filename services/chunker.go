package services

import (
	"strings"
	"unicode/utf8"

	"pdf-rag-service/models"
)

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 100
)

// Chunker splits text into word-aligned chunks of at most Size runes, each
// starting with up to Overlap runes of trailing words from its predecessor.
type Chunker struct {
	Size    int
	Overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Split returns the chunks of text in order. Whitespace-only input yields no
// chunks.
func (c *Chunker) Split(text string) []models.Chunk {
	words := c.words(text)
	if len(words) == 0 {
		return []models.Chunk{}
	}

	var (
		chunks []models.Chunk
		buf    []string
		bufLen int
	)
	emit := func() {
		chunks = append(chunks, models.Chunk{Index: len(chunks), Text: strings.Join(buf, " ")})
	}

	for _, w := range words {
		wl := utf8.RuneCountInString(w)
		if len(buf) == 0 {
			buf, bufLen = []string{w}, wl
			continue
		}
		if bufLen+1+wl <= c.Size {
			buf = append(buf, w)
			bufLen += 1 + wl
			continue
		}

		emit()

		// carry over as much tail as the overlap allows while leaving room for w
		limit := c.Overlap
		if room := c.Size - wl - 1; room < limit {
			limit = room
		}
		tail, tailLen := tailWords(buf, limit)
		buf = append(tail, w)
		bufLen = wl
		if len(tail) > 0 {
			bufLen += tailLen + 1
		}
	}
	emit()

	return chunks
}

// words splits on whitespace and breaks any word longer than Size into
// Size-rune pieces.
func (c *Chunker) words(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) <= c.Size {
			out = append(out, f)
			continue
		}
		runes := []rune(f)
		for start := 0; start < len(runes); start += c.Size {
			end := start + c.Size
			if end > len(runes) {
				end = len(runes)
			}
			out = append(out, string(runes[start:end]))
		}
	}
	return out
}

// tailWords returns the longest suffix of words whose space-joined length is
// at most limit, along with that length.
func tailWords(words []string, limit int) ([]string, int) {
	if limit <= 0 {
		return nil, 0
	}

	n, length := 0, 0
	for i := len(words) - 1; i >= 0; i-- {
		next := utf8.RuneCountInString(words[i])
		if n > 0 {
			next++
		}
		if length+next > limit {
			break
		}
		length += next
		n++
	}

	tail := make([]string, n, n+1)
	copy(tail, words[len(words)-n:])
	return tail, length
}
