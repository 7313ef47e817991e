package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad")))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("apply: %w", Conflict("Event is full"))))
	assert.Equal(t, KindNotFound, KindOf(NotFound("Event not found")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("no")))
	assert.Equal(t, KindUnauthenticated, KindOf(Unauthenticated("who")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestMessageOfHidesInternal(t *testing.T) {
	cause := errors.New("pq: connection refused on 10.0.0.3")
	err := Internal("apply to event", cause)

	assert.Equal(t, "internal server error", MessageOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Event is full", MessageOf(Conflict("Event is full")))
}

func TestSentinelMatching(t *testing.T) {
	full := Conflict("Event is full")
	dup := Conflict("Already applied")

	assert.ErrorIs(t, fmt.Errorf("wrap: %w", Conflict("Event is full")), full)
	assert.False(t, errors.Is(full, dup))
}
