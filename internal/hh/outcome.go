package hh

import "fmt"

// Outcome classifies the result of a single application attempt.
type Outcome string

const (
	// OutcomeSuccess indicates the application was created (HTTP 201).
	OutcomeSuccess Outcome = "success"
	// OutcomeAlreadyApplied indicates the platform rejected a duplicate.
	OutcomeAlreadyApplied Outcome = "already_applied"
	// OutcomeLimitExceeded indicates a per-vacancy or account limit.
	OutcomeLimitExceeded Outcome = "limit_exceeded"
	// OutcomeForbidden indicates an unclassified 403 response.
	OutcomeForbidden Outcome = "forbidden"
	// OutcomeDailyLimitExceeded indicates the account exhausted its daily
	// application quota. No further submissions will succeed today.
	OutcomeDailyLimitExceeded Outcome = "daily_limit_exceeded"
	// OutcomeBadRequest indicates an unclassified 400 response.
	OutcomeBadRequest Outcome = "bad_request"
	// OutcomeNetworkError indicates the request never produced a response.
	OutcomeNetworkError Outcome = "network_error"
)

// dailyLimitMarker is the description fragment the platform returns in a 400
// response once the account has exhausted its negotiations for the day.
const dailyLimitMarker = "Daily negotiations limit is exceeded"

// httpErrorOutcome covers 4xx/5xx statuses outside the classified set.
func httpErrorOutcome(code int) Outcome {
	return Outcome(fmt.Sprintf("http_error_%d", code))
}

// unexpectedCodeOutcome covers responses that are neither 201 nor an error.
func unexpectedCodeOutcome(code int) Outcome {
	return Outcome(fmt.Sprintf("unexpected_code_%d", code))
}

// Terminal reports whether the outcome must stop the submission loop.
func (o Outcome) Terminal() bool {
	return o == OutcomeDailyLimitExceeded
}

var outcomeMessages = map[Outcome]string{
	OutcomeSuccess:            "application submitted",
	OutcomeAlreadyApplied:     "already applied to this vacancy",
	OutcomeDailyLimitExceeded: "daily application limit on hh.ru exceeded",
	OutcomeLimitExceeded:      "application limit exceeded",
	OutcomeForbidden:          "access denied",
	OutcomeBadRequest:         "malformed request",
	OutcomeNetworkError:       "network error, will retry on the next run",
	"permission_denied":       "no permission to apply to this vacancy",
	"test_required":           "vacancy requires completing a test",
	"resume_problem":          "problem with the resume",
}

// Message returns the human-readable line printed after each attempt.
func (o Outcome) Message() string {
	if m, ok := outcomeMessages[o]; ok {
		return m
	}
	return fmt.Sprintf("error: %s", string(o))
}
