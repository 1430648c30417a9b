package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindBadRequest, KindOf(BadRequest("bad input")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("missing")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("nope")))
	assert.Equal(t, KindInternal, KindOf(errors.New("driver exploded")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindOfWrappedChain(t *testing.T) {
	inner := NotFound("program not found")
	outer := fmt.Errorf("loading assignment: %w", inner)
	assert.Equal(t, KindNotFound, KindOf(outer))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "bad input", Message(BadRequest("bad input")))
	assert.Equal(t, "internal server error", Message(errors.New("connection refused")))
}

func TestWrap(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Wrap(KindBadRequest, "email already registered", cause)

	assert.Equal(t, KindBadRequest, KindOf(err))
	assert.Equal(t, "email already registered", Message(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "email already registered: duplicate key", err.Error())
}

func TestBadRequestf(t *testing.T) {
	err := BadRequestf("exercise %s not found", "abc123")
	assert.Equal(t, KindBadRequest, KindOf(err))
	assert.Equal(t, "exercise abc123 not found", Message(err))
}
