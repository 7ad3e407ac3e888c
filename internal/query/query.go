// Package query answers keyword searches over stored jobs: it tokenizes the
// term, normalizes the paging window and delegates filtering and ordering to
// the store.
package query

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/amishk599/gigfinder/internal/model"
)

const (
	// DefaultLimit is the page size used when a request gives none.
	DefaultLimit = 50
	// MaxLimit caps the page size.
	MaxLimit = 500
	// minTokenLen is the rune length a token must exceed to be kept.
	minTokenLen = 2
)

// Request describes one page of a search.
type Request struct {
	Term     string
	Platform model.Platform // empty means every platform
	Offset   int
	Limit    int
}

// Page is one window of results plus what a pager needs to move on.
type Page struct {
	Jobs   []model.Job
	Total  int
	Offset int
	Limit  int
	Tokens []string
}

// HasMore reports whether records exist past this page.
func (p Page) HasMore() bool {
	return p.Offset+len(p.Jobs) < p.Total
}

// Engine runs searches against a JobStore. It never writes.
type Engine struct {
	store        model.JobStore
	defaultLimit int
}

// NewEngine creates an engine. A non-positive defaultLimit means DefaultLimit.
func NewEngine(store model.JobStore, defaultLimit int) *Engine {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &Engine{store: store, defaultLimit: min(defaultLimit, MaxLimit)}
}

// Tokenize splits term on whitespace, lowercases it and drops tokens of two
// runes or fewer. A nil result means no filtering.
func Tokenize(term string) []string {
	tokens := lo.Filter(strings.Fields(strings.ToLower(term)), func(tok string, _ int) bool {
		return utf8.RuneCountInString(tok) > minTokenLen
	})
	if len(tokens) == 0 {
		return nil
	}
	return lo.Uniq(tokens)
}

// Query returns the requested window of jobs matching req, newest first.
func (e *Engine) Query(ctx context.Context, req Request) (Page, error) {
	opts := model.ListOptions{
		Tokens:   Tokenize(req.Term),
		Platform: req.Platform,
		Offset:   max(req.Offset, 0),
		Limit:    e.normalizeLimit(req.Limit),
	}

	jobs, total, err := e.store.Page(ctx, opts)
	if err != nil {
		return Page{}, fmt.Errorf("querying jobs: %w", err)
	}
	return Page{Jobs: jobs, Total: total, Offset: opts.Offset, Limit: opts.Limit, Tokens: opts.Tokens}, nil
}

// Search is Query without a platform filter, returning only the records.
func (e *Engine) Search(ctx context.Context, term string, offset, limit int) ([]model.Job, error) {
	page, err := e.Query(ctx, Request{Term: term, Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	return page.Jobs, nil
}

func (e *Engine) normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return e.defaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}
