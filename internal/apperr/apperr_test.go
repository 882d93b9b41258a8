package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("resolve: %w", NotFound("no region for code %q", "XX"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, `no region for code "XX"`, MessageOf(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("bad month")
	err := Wrap(KindValidation, cause, "date_start must be YYYY-MM-DD")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "date_start must be YYYY-MM-DD: bad month", err.Error())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, "", MessageOf(errors.New("boom")))
}
