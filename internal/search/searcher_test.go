package search

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/hh-autoapply/internal/hh"
)

// fakeAPI serves scripted search pages and counts fetches.
type fakeAPI struct {
	pages   map[int]*hh.SearchPage
	total   int
	err     error
	fetches int
}

func (f *fakeAPI) SearchVacancies(_ context.Context, _ hh.SearchParams, page, _ int) (*hh.SearchPage, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.pages[page]; ok {
		p.Pages = f.total
		return p, nil
	}
	return &hh.SearchPage{Pages: f.total}, nil
}

func (f *fakeAPI) Resume(context.Context, string) (*hh.Resume, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAPI) Negotiations(context.Context, int) (*hh.NegotiationList, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAPI) Apply(context.Context, string, string, string) (hh.Outcome, string, error) {
	return "", "", errors.New("not implemented")
}

// mapLedger is a Ledger backed by a plain set.
type mapLedger map[string]bool

func (m mapLedger) Contains(id string) bool { return m[id] }

func vacancies(ids ...string) []hh.Vacancy {
	out := make([]hh.Vacancy, 0, len(ids))
	for _, id := range ids {
		out = append(out, hh.Vacancy{ID: id, Name: "Go Developer " + id})
	}
	return out
}

func newTestSearcher(api *fakeAPI, ledger Ledger, opts ...Option) *Searcher {
	base := []Option{WithPageDelay(0)}
	return New(api, ledger, append(base, opts...)...)
}

func TestSearcher_PageCap(t *testing.T) {
	api := &fakeAPI{total: 20, pages: map[int]*hh.SearchPage{}}
	for page := 0; page < 20; page++ {
		api.pages[page] = &hh.SearchPage{Items: vacancies(strconv.Itoa(page))}
	}

	s := newTestSearcher(api, mapLedger{})
	got := s.Search(context.Background(), hh.SearchParams{})

	// Server reports 20 pages; the hard cap bounds it to exactly 5 fetches
	assert.Equal(t, 5, api.fetches)
	assert.Len(t, got, 5)
}

func TestSearcher_StopsAtReportedPages(t *testing.T) {
	api := &fakeAPI{total: 2, pages: map[int]*hh.SearchPage{
		0: {Items: vacancies("a")},
		1: {Items: vacancies("b")},
	}}

	s := newTestSearcher(api, mapLedger{})
	got := s.Search(context.Background(), hh.SearchParams{})

	assert.Equal(t, 2, api.fetches)
	assert.Len(t, got, 2)
}

func TestSearcher_ExcludesLedgerEntries(t *testing.T) {
	api := &fakeAPI{total: 1, pages: map[int]*hh.SearchPage{
		0: {Items: vacancies("555", "556")},
	}}

	s := newTestSearcher(api, mapLedger{"555": true})
	got := s.Search(context.Background(), hh.SearchParams{})

	require.Len(t, got, 1)
	assert.Equal(t, "556", got[0].ID)
}

func TestSearcher_DeduplicatesAcrossPages(t *testing.T) {
	api := &fakeAPI{total: 2, pages: map[int]*hh.SearchPage{
		0: {Items: vacancies("1", "2")},
		1: {Items: vacancies("2", "3")},
	}}

	s := newTestSearcher(api, mapLedger{})
	got := s.Search(context.Background(), hh.SearchParams{})

	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
	assert.Equal(t, "3", got[2].ID)
}

func TestSearcher_PartialResultsOnError(t *testing.T) {
	calls := 0
	api := &fakeAPI{total: 5, pages: map[int]*hh.SearchPage{
		0: {Items: vacancies("1")},
	}}

	// Fail from the second fetch onward
	failing := &failAfter{inner: api, failFrom: 2, calls: &calls}
	s := New(failing, mapLedger{}, WithPageDelay(0))

	got := s.Search(context.Background(), hh.SearchParams{})
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

// failAfter delegates to an inner API until a call threshold, then errors.
type failAfter struct {
	inner    *fakeAPI
	failFrom int
	calls    *int
}

func (f *failAfter) SearchVacancies(ctx context.Context, params hh.SearchParams, page, perPage int) (*hh.SearchPage, error) {
	*f.calls++
	if *f.calls >= f.failFrom {
		return nil, errors.New("connection reset")
	}
	return f.inner.SearchVacancies(ctx, params, page, perPage)
}

func (f *failAfter) Resume(ctx context.Context, id string) (*hh.Resume, error) {
	return f.inner.Resume(ctx, id)
}

func (f *failAfter) Negotiations(ctx context.Context, perPage int) (*hh.NegotiationList, error) {
	return f.inner.Negotiations(ctx, perPage)
}

func (f *failAfter) Apply(ctx context.Context, vacancyID, resumeID, message string) (hh.Outcome, string, error) {
	return f.inner.Apply(ctx, vacancyID, resumeID, message)
}

func TestSearcher_AppliesKeywordFilter(t *testing.T) {
	api := &fakeAPI{total: 1, pages: map[int]*hh.SearchPage{
		0: {Items: []hh.Vacancy{
			{ID: "1", Name: "Senior Go Developer"},
			{ID: "2", Name: "Go Developer (1C)"},
			{ID: "3", Name: "Java Developer"},
		}},
	}}

	s := newTestSearcher(api, mapLedger{}, WithFilter(Filter{
		Include: []string{"go"},
		Exclude: []string{"1c"},
	}))

	got := s.Search(context.Background(), hh.SearchParams{})
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestFilter_Suitable(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		title  string
		want   bool
	}{
		{"empty filter admits everything", Filter{}, "Anything", true},
		{"include match", Filter{Include: []string{"go"}}, "Go Developer", true},
		{"include miss", Filter{Include: []string{"go"}}, "Java Developer", false},
		{"exclude wins over include", Filter{Include: []string{"go"}, Exclude: []string{"go"}}, "Go Developer", false},
		{"exclude only", Filter{Exclude: []string{"intern"}}, "Backend Intern", false},
		{"case insensitive", Filter{Include: []string{"GOLANG"}}, "golang engineer", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Suitable(tt.title))
		})
	}
}
