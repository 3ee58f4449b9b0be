package services

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"pdf-rag-service/models"
)

const (
	ModeVector   = "vector"
	ModeFallback = "fallback"

	fallbackTopK = 5
)

// FallbackRetriever ranks the locally stored corpus by keyword overlap. It
// needs no external service.
type FallbackRetriever struct {
	corpus *CorpusStore
}

func NewFallbackRetriever(corpus *CorpusStore) *FallbackRetriever {
	return &FallbackRetriever{corpus: corpus}
}

func (r *FallbackRetriever) Mode() string { return ModeFallback }

// Index replaces the stored corpus with chunks.
func (r *FallbackRetriever) Index(ctx context.Context, documentID string, chunks []models.Chunk) error {
	return r.corpus.Replace(documentID, chunks)
}

func (r *FallbackRetriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	corpus, err := r.corpus.Load()
	if err != nil {
		return nil, err
	}
	return RankByKeywords(query, models.ChunkTexts(corpus.Chunks), fallbackTopK), nil
}

// RankByKeywords scores each text by how many query keywords it contains and
// returns the best topK, keeping original order among equal scores.
func RankByKeywords(query string, texts []string, topK int) []string {
	if len(texts) == 0 {
		return nil
	}
	keywords := queryKeywords(query)

	type scored struct {
		text  string
		score int
	}
	ranked := make([]scored, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		score := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		ranked[i] = scored{text: t, score: score}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if topK > len(ranked) {
		topK = len(ranked)
	}
	out := make([]string, topK)
	for i := range out {
		out[i] = ranked[i].text
	}
	return out
}

// queryKeywords lowercases the query and keeps words longer than two runes.
func queryKeywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) > 2 {
			keywords = append(keywords, f)
		}
	}
	return keywords
}
