package hh

import (
	"net/url"
	"strconv"
)

// Vacancy is a job posting returned by the search endpoint.
// It is read-only for this application.
type Vacancy struct {
	// ID is the platform identifier of the posting.
	ID string `json:"id"`
	// Name is the posting title.
	Name string `json:"name"`
	// Employer is the company behind the posting.
	Employer Employer `json:"employer"`
	// Area is the geographic region of the posting.
	Area Area `json:"area"`
}

// Employer holds the company fields used by this application.
type Employer struct {
	Name string `json:"name"`
}

// Area holds the region fields used by this application.
type Area struct {
	Name string `json:"name"`
}

// SearchPage is one page of vacancy search results.
type SearchPage struct {
	Items []Vacancy `json:"items"`
	// Pages is the total page count reported by the server.
	Pages int `json:"pages"`
	Found int `json:"found"`
}

// SearchParams are the caller-supplied search filters. Zero values are
// omitted from the request.
type SearchParams struct {
	// Text is the free-text query.
	Text string
	// Area is the platform region identifier.
	Area string
	// Experience filters by required experience level.
	Experience string
	// Employment filters by employment type.
	Employment string
	// Schedule filters by work schedule.
	Schedule string
	// Period limits results to postings published within the last N days.
	Period int
}

func (p SearchParams) values() url.Values {
	v := url.Values{}
	if p.Text != "" {
		v.Set("text", p.Text)
	}
	if p.Area != "" {
		v.Set("area", p.Area)
	}
	if p.Experience != "" {
		v.Set("experience", p.Experience)
	}
	if p.Employment != "" {
		v.Set("employment", p.Employment)
	}
	if p.Schedule != "" {
		v.Set("schedule", p.Schedule)
	}
	if p.Period > 0 {
		v.Set("period", strconv.Itoa(p.Period))
	}
	return v
}

// ResumeStatusPublished is the only resume status treated as healthy.
const ResumeStatusPublished = "published"

// Resume is the subset of the resume entity needed for the pre-flight check.
type Resume struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Status ResumeStatus `json:"status"`
}

// ResumeStatus is the publication state of a resume.
type ResumeStatus struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NegotiationList is a page of the user's existing applications.
type NegotiationList struct {
	Items []Negotiation `json:"items"`
	Found int           `json:"found"`
}

// Negotiation is a previously submitted application.
type Negotiation struct {
	ID        string  `json:"id"`
	CreatedAt string  `json:"created_at"`
	Vacancy   Vacancy `json:"vacancy"`
}

// applyResponse is the success payload of the application-submit endpoint.
type applyResponse struct {
	ID string `json:"id"`
}

// apiError is the failure payload shared by the platform's endpoints.
// 403 responses carry Errors, 400 responses carry Description.
type apiError struct {
	Errors      []apiErrorItem `json:"errors"`
	Description string         `json:"description"`
}

type apiErrorItem struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}
