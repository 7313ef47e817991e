package signups

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountDrift_Problems(t *testing.T) {
	assert.Empty(t, CountDrift{Recorded: 3, Actual: 3, MaxVolunteers: 5}.Problems())

	assert.Equal(t, []string{"counter 4 does not match 3 signups"},
		CountDrift{Recorded: 4, Actual: 3, MaxVolunteers: 5}.Problems())

	assert.Equal(t, []string{"counter -1 does not match 0 signups", "counter is negative"},
		CountDrift{Recorded: -1, Actual: 0, MaxVolunteers: 5}.Problems())

	assert.Equal(t, []string{"counter 6 exceeds capacity 5"},
		CountDrift{Recorded: 6, Actual: 6, MaxVolunteers: 5}.Problems())
}
