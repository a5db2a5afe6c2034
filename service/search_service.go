package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"magit/apperror"
	"magit/config"
	"magit/domain"
	"magit/logger"
	"magit/repository"
)

// PropertyQueryGateway runs a structured filter against the listing store.
type PropertyQueryGateway interface {
	Search(ctx context.Context, filter domain.SearchFilter, limit int) ([]domain.Property, error)
}

// Suggester writes the one-line hint shown under search results.
type Suggester interface {
	SuggestSearch(ctx context.Context, query string, filter domain.SearchFilter, found int, mode domain.SearchMode) string
}

// SearchError reports that a search could not be answered because a
// dependency failed, as opposed to an empty result.
type SearchError struct {
	Stage string
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %s query failed: %v", e.Stage, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

const (
	stageStrict  = "strict"
	stageRelaxed = "relaxed"

	warnQueryNotUnderstood = "query was not understood, showing the newest listings"
)

type SearchService struct {
	parser    FilterParser
	gateway   PropertyQueryGateway
	cache     repository.CacheRepository
	suggester Suggester
	filterTTL time.Duration
	resultTTL time.Duration
}

func NewSearchService(parser FilterParser, gateway PropertyQueryGateway, cache repository.CacheRepository, suggester Suggester, cfg config.CacheConfig) *SearchService {
	return &SearchService{
		parser:    parser,
		gateway:   gateway,
		cache:     cache,
		suggester: suggester,
		filterTTL: cfg.FilterTTL,
		resultTTL: cfg.ResultTTL,
	}
}

// Search parses the query, runs it as a strict filter and, when that finds
// nothing, retries with a widened filter and ranks the candidates.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	query := normalizeQuery(req.Query)
	if query == "" {
		return nil, apperror.ErrBadRequest.WithMessage("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, apperror.ErrValidation.WithMessage(fmt.Sprintf("query must be at most %d characters", MaxQueryLength))
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	resultKey := "results:" + strconv.Itoa(limit) + ":" + query
	if s.resultTTL > 0 {
		if cached, ok := s.cache.Get(ctx, resultKey); ok {
			var result domain.SearchResult
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				return &result, nil
			}
		}
	}

	filter := s.parseFilter(ctx, query)
	result := &domain.SearchResult{
		Mode:    domain.ModeStrict,
		Filters: filter,
	}
	if filter.IsEmpty() {
		result.Warnings = append(result.Warnings, warnQueryNotUnderstood)
	}

	props, err := s.gateway.Search(ctx, filter, limit)
	if err != nil {
		return nil, &SearchError{Stage: stageStrict, Err: err}
	}
	result.Properties = make([]domain.ScoredProperty, len(props))
	for i, p := range props {
		result.Properties[i] = domain.ScoredProperty{Property: p}
	}

	if len(props) == 0 && !filter.IsEmpty() {
		candidates, err := s.gateway.Search(ctx, WidenFilter(filter), relaxedPoolSize)
		if err != nil {
			return nil, &SearchError{Stage: stageRelaxed, Err: err}
		}
		ranked := RankRelaxed(candidates, filter)
		if len(ranked) > limit {
			ranked = ranked[:limit]
		}
		result.Mode = domain.ModeRelaxed
		result.Properties = ranked
	}

	result.Suggestion = s.suggester.SuggestSearch(ctx, query, filter, len(result.Properties), result.Mode)

	logger.Info().
		Str("query", query).
		Str("mode", string(result.Mode)).
		Int("found", len(result.Properties)).
		Msg("search completed")

	if s.resultTTL > 0 {
		s.store(ctx, resultKey, result, s.resultTTL)
	}
	return result, nil
}

func (s *SearchService) parseFilter(ctx context.Context, query string) domain.SearchFilter {
	key := "filters:" + strings.ToLower(query)

	if cached, ok := s.cache.Get(ctx, key); ok {
		var filter domain.SearchFilter
		if err := json.Unmarshal([]byte(cached), &filter); err == nil {
			return filter
		}
	}

	filter := s.parser.Parse(ctx, query)
	if !filter.IsEmpty() {
		s.store(ctx, key, filter, s.filterTTL)
	}
	return filter
}

func (s *SearchService) store(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(data), ttl); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// normalizeQuery trims the query and collapses runs of whitespace.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}
