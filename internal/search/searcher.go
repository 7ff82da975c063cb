// Package search collects candidate vacancies across paginated search
// results, deduplicated and filtered against the application ledger and the
// keyword suitability policy.
package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/avolkov/hh-autoapply/internal/hh"
)

// Ledger is the subset of the application ledger the searcher reads.
type Ledger interface {
	// Contains reports whether the vacancy was already applied to.
	Contains(id string) bool
}

// Filter is the content-based suitability policy applied to vacancy names.
// An empty Include list admits everything; Exclude always wins.
type Filter struct {
	// Include lists keywords of which at least one must appear in the name.
	Include []string
	// Exclude lists keywords none of which may appear in the name.
	Exclude []string
}

// Suitable reports whether a vacancy name passes the keyword policy.
// Matching is case-insensitive substring containment.
func (f Filter) Suitable(name string) bool {
	name = strings.ToLower(name)

	for _, kw := range f.Exclude {
		if kw != "" && strings.Contains(name, strings.ToLower(kw)) {
			return false
		}
	}

	if len(f.Include) == 0 {
		return true
	}
	for _, kw := range f.Include {
		if kw != "" && strings.Contains(name, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Searcher fetches vacancy pages up to a hard page cap and returns the
// suitable, not-yet-applied vacancies in the server's publication order.
type Searcher struct {
	api      hh.API
	ledger   Ledger
	filter   Filter
	perPage  int
	maxPages int
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// Option is a function that configures a Searcher.
type Option func(*Searcher)

// WithPerPage sets the page size requested from the server.
func WithPerPage(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.perPage = n
		}
	}
}

// WithMaxPages sets the hard cap on page fetches per search, bounding
// request volume regardless of how many pages the server reports.
func WithMaxPages(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.maxPages = n
		}
	}
}

// WithFilter sets the keyword suitability policy.
func WithFilter(f Filter) Option {
	return func(s *Searcher) {
		s.filter = f
	}
}

// WithPageDelay sets the pause between page fetches. Zero disables pacing.
func WithPageDelay(d time.Duration) Option {
	return func(s *Searcher) {
		if d > 0 {
			s.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Searcher) {
		s.logger = l
	}
}

// New creates a Searcher with the observed platform defaults: 50 results
// per page, at most 5 pages, 1 second between page fetches.
func New(api hh.API, ledger Ledger, opts ...Option) *Searcher {
	s := &Searcher{
		api:      api,
		ledger:   ledger,
		perPage:  50,
		maxPages: 5,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Search fetches pages starting at 0 up to min(maxPages, pages reported by
// the server) and returns the collected vacancies. Any request failure ends
// the search early and returns what was collected so far.
func (s *Searcher) Search(ctx context.Context, params hh.SearchParams) []hh.Vacancy {
	var collected []hh.Vacancy
	seen := make(map[string]struct{})

	pages := s.maxPages
	for page := 0; page < pages; page++ {
		// The limiter starts with one free token, so only fetches after the
		// first wait out the page delay.
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Info("search cancelled", slog.Int("page", page))
			break
		}

		result, err := s.api.SearchVacancies(ctx, params, page, s.perPage)
		if err != nil {
			// Partial results on error: keep what we have.
			s.logger.Error("vacancy search failed",
				slog.Int("page", page),
				slog.String("error", err.Error()),
			)
			break
		}

		if result.Pages < pages {
			pages = result.Pages
		}

		for _, v := range result.Items {
			if !s.filter.Suitable(v.Name) {
				continue
			}
			if _, dup := seen[v.ID]; dup {
				continue
			}
			if s.ledger.Contains(v.ID) {
				continue
			}
			seen[v.ID] = struct{}{}
			collected = append(collected, v)
		}
	}

	s.logger.Info("search finished", slog.Int("candidates", len(collected)))
	return collected
}
