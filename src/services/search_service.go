package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// searchDoc is the indexed view of a fund.
type searchDoc struct {
	Ticker      string `json:"ticker"`
	Name        string `json:"name"`
	Issuer      string `json:"issuer"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// SearchHit is one search result.
type SearchHit struct {
	Ticker   string  `json:"ticker"`
	Name     string  `json:"name"`
	Issuer   string  `json:"issuer,omitempty"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// SearchService keeps an in-memory full-text index over the fund universe.
// Rebuild swaps the whole index, so searches never see a partial one.
type SearchService struct {
	mu    sync.RWMutex
	index bleve.Index
	funds map[string]models.Fund
}

func NewSearchService() *SearchService {
	return &SearchService{}
}

func buildSearchMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	fundMapping := bleve.NewDocumentMapping()

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	fundMapping.AddFieldMappingsAt("ticker", keyword)
	fundMapping.AddFieldMappingsAt("category", keyword)

	text := bleve.NewTextFieldMapping()
	text.Analyzer = "standard"
	fundMapping.AddFieldMappingsAt("name", text)
	fundMapping.AddFieldMappingsAt("issuer", text)
	fundMapping.AddFieldMappingsAt("description", text)

	indexMapping.DefaultMapping = fundMapping
	return indexMapping
}

// Rebuild replaces the index with the given funds.
func (s *SearchService) Rebuild(ctx context.Context, funds []models.Fund) error {
	index, err := bleve.NewMemOnly(buildSearchMapping())
	if err != nil {
		return fmt.Errorf("create search index: %w", err)
	}

	byTicker := make(map[string]models.Fund, len(funds))
	batch := index.NewBatch()
	for _, f := range funds {
		doc := searchDoc{
			Ticker:      strings.ToLower(f.Ticker),
			Name:        f.Name,
			Issuer:      f.Issuer,
			Category:    f.Category,
			Description: f.Description,
		}
		if err := batch.Index(f.Ticker, doc); err != nil {
			index.Close()
			return fmt.Errorf("index %s: %w", f.Ticker, err)
		}
		byTicker[f.Ticker] = f
	}
	if err := index.Batch(batch); err != nil {
		index.Close()
		return fmt.Errorf("apply search batch: %w", err)
	}

	s.mu.Lock()
	old := s.index
	s.index, s.funds = index, byTicker
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}
	logger.FromContext(ctx).Info("Search index rebuilt", "funds", len(funds))
	return nil
}

func fundQuery(q string) query.Query {
	lower := strings.ToLower(q)
	// Wildcard metacharacters in user input would widen the match.
	literal := strings.NewReplacer("*", "", "?", "").Replace(lower)

	exact := bleve.NewTermQuery(lower)
	exact.SetField("ticker")
	exact.SetBoost(10)

	prefix := bleve.NewPrefixQuery(lower)
	prefix.SetField("ticker")
	prefix.SetBoost(5)

	name := bleve.NewMatchQuery(q)
	name.SetField("name")
	name.SetBoost(3)

	issuer := bleve.NewMatchQuery(q)
	issuer.SetField("issuer")
	issuer.SetBoost(2)

	category := bleve.NewTermQuery(strings.ToUpper(q))
	category.SetField("category")

	description := bleve.NewMatchQuery(q)
	description.SetField("description")
	description.SetBoost(0.5)

	queries := []query.Query{exact, prefix, name, issuer, category, description}
	if literal != "" {
		wildcard := bleve.NewWildcardQuery("*" + literal + "*")
		wildcard.SetField("ticker")
		wildcard.SetBoost(1.5)
		queries = append(queries, wildcard)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Search returns up to limit funds best match first. Before the first
// Rebuild it returns no hits.
func (s *SearchService) Search(ctx context.Context, q string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return []SearchHit{}, nil
	}

	req := bleve.NewSearchRequestOptions(fundQuery(q), limit, 0, false)
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q, err)
	}

	hits := make([]SearchHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		f, ok := s.funds[h.ID]
		if !ok {
			continue
		}
		hits = append(hits, SearchHit{
			Ticker:   f.Ticker,
			Name:     f.Name,
			Issuer:   f.Issuer,
			Category: f.Category,
			Score:    h.Score,
		})
	}
	return hits, nil
}

// Close releases the index.
func (s *SearchService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}
