package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/normalize"
)

// SearchParams configures a book search.
type SearchParams struct {
	Query  string            // Matched as a substring of title or author
	Status domain.BookStatus // Optional filter
	Limit  int
}

// DefaultLimit caps results when SearchParams.Limit is unset.
const DefaultLimit = 50

// Hit is one matching book.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// wildcardEscaper neutralizes the user's own wildcard characters. A '*' or
// '?' in the query becomes a single-character wildcard, which still matches
// the literal character.
var wildcardEscaper = strings.NewReplacer("*", "?")

// Search returns the IDs of books whose title or author contains the query,
// ignoring case and accents. Results are ordered by relevance.
func (s *BookIndex) Search(ctx context.Context, params SearchParams) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), limit, 0, false)
	req.SortBy([]string{"-_score", "-updated_at"})

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	folded := normalize.Fold(params.Query)
	if folded != "" {
		pattern := "*" + wildcardEscaper.Replace(folded) + "*"

		titleWildcard := bleve.NewWildcardQuery(pattern)
		titleWildcard.SetField("title_folded")
		titleWildcard.SetBoost(2.0)

		authorWildcard := bleve.NewWildcardQuery(pattern)
		authorWildcard.SetField("author_folded")

		// Stemmed matches only lift the score of substring hits.
		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		authorMatch := bleve.NewMatchQuery(params.Query)
		authorMatch.SetField("author")

		substring := bleve.NewDisjunctionQuery(titleWildcard, authorWildcard)
		ranking := bleve.NewDisjunctionQuery(titleMatch, authorMatch)

		boolean := bleve.NewBooleanQuery()
		boolean.AddMust(substring)
		boolean.AddShould(ranking)
		queries = append(queries, boolean)
	}

	if params.Status != "" {
		statusQuery := bleve.NewTermQuery(string(params.Status))
		statusQuery.SetField("status")
		queries = append(queries, statusQuery)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
