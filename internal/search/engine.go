package search

import (
	"context"
	"log/slog"
	"strings"

	"discuss/internal/models"
)

// Index is the full-text capability the engine is built on.
type Index interface {
	// Query returns one page of matching threads, ranked by the query's sort
	// key with creation time descending as tie-break, plus the total number
	// of matches ignoring pagination.
	Query(ctx context.Context, q IndexQuery) (*IndexPage, error)

	// Suggest returns the best alternate spelling for a single term. It
	// reports false when the term already occurs in the index or when no
	// candidate is close enough.
	Suggest(ctx context.Context, term string) (string, bool, error)
}

type IndexPage struct {
	Items []models.ThreadSummary
	Total int
}

// Engine turns search requests into index queries and shapes the response.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	index          Index
	defaultPerPage int
	logger         *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithDefaultPerPage sets the page size used when a request does not give one.
// Default is DefaultPerPage.
func WithDefaultPerPage(n int) Option {
	return func(e *Engine) error {
		if n < 1 {
			return ErrInvalidPerPage
		}
		if n > MaxPerPage {
			n = MaxPerPage
		}
		e.defaultPerPage = n
		return nil
	}
}

// NewEngine creates a search engine over index.
func NewEngine(index Index, opts ...Option) (*Engine, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	e := &Engine{
		index:          index,
		defaultPerPage: DefaultPerPage,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Search runs q. Requests without text or with an unknown sort key yield an
// empty result rather than an error.
func (e *Engine) Search(ctx context.Context, q Query) (*models.SearchResult, error) {
	perPage := e.perPage(q.PerPage)
	page := q.Page
	if page < 1 {
		page = 1
	}

	if !q.SortKey.Valid() {
		e.logger.Debug("unrecognized sort key", "sort_key", string(q.SortKey))
		return emptyResult(), nil
	}
	terms := Tokenize(q.Text)
	if len(terms) == 0 {
		return emptyResult(), nil
	}

	iq := IndexQuery{
		Terms:   terms,
		Filters: q.Filters.normalize(),
		Sort:    q.SortKey.Normalize(),
		Limit:   perPage,
		Offset:  (page - 1) * perPage,
	}
	res, err := e.index.Query(ctx, iq)
	if err != nil {
		return nil, err
	}
	if res.Total > 0 {
		return shape(res, perPage, nil), nil
	}

	corrected, changed, err := e.correctTerms(ctx, terms)
	if err != nil {
		return nil, err
	}
	if !changed {
		return emptyResult(), nil
	}

	iq.Terms = corrected
	res, err = e.index.Query(ctx, iq)
	if err != nil {
		return nil, err
	}
	phrase := strings.Join(corrected, " ")
	if res.Total == 0 {
		e.logger.Debug("discarding spelling correction without matches", "text", q.Text, "corrected", phrase)
		return emptyResult(), nil
	}
	return shape(res, perPage, &phrase), nil
}

// correctTerms replaces every term the index has a suggestion for. It reports
// whether any term changed.
func (e *Engine) correctTerms(ctx context.Context, terms []string) ([]string, bool, error) {
	out := make([]string, len(terms))
	changed := false
	for i, term := range terms {
		out[i] = term
		suggestion, ok, err := e.index.Suggest(ctx, term)
		if err != nil {
			return nil, false, err
		}
		if !ok || suggestion == term {
			continue
		}
		out[i] = suggestion
		changed = true
	}
	return out, changed, nil
}

func (e *Engine) perPage(n int) int {
	if n < 1 {
		return e.defaultPerPage
	}
	if n > MaxPerPage {
		return MaxPerPage
	}
	return n
}

func shape(page *IndexPage, perPage int, corrected *string) *models.SearchResult {
	items := page.Items
	if items == nil {
		items = []models.ThreadSummary{}
	}
	return &models.SearchResult{
		Collection:    items,
		TotalResults:  page.Total,
		NumPages:      NumPages(page.Total, perPage),
		CorrectedText: corrected,
	}
}

// NumPages is ceil(total/perPage); zero results means zero pages.
func NumPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

func emptyResult() *models.SearchResult {
	return &models.SearchResult{Collection: []models.ThreadSummary{}}
}
