package hh

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcome_Terminal(t *testing.T) {
	assert.True(t, OutcomeDailyLimitExceeded.Terminal())
	assert.False(t, OutcomeLimitExceeded.Terminal())
	assert.False(t, OutcomeAlreadyApplied.Terminal())
	assert.False(t, OutcomeNetworkError.Terminal())
}

func TestOutcome_Message(t *testing.T) {
	assert.Equal(t, "already applied to this vacancy", OutcomeAlreadyApplied.Message())
	assert.Equal(t, "daily application limit on hh.ru exceeded", OutcomeDailyLimitExceeded.Message())

	// Unknown kinds fall back to a generic line carrying the raw value
	assert.Equal(t, "error: http_error_502", Outcome("http_error_502").Message())
}
