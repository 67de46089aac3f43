package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"classified", NotFound("missing"), KindNotFound},
		{"wrapped classified", fmt.Errorf("lookup: %w", DuplicateEntry("taken")), KindDuplicateEntry},
		{"bare kind", KindUnauthorized, KindUnauthorized},
		{"wrapped bare kind", fmt.Errorf("x: %w", KindBadRequest), KindBadRequest},
		{"plain", errors.New("boom"), KindInternal},
		{"wrap helper", Wrap(KindForbidden, errors.New("nope"), "forbidden"), KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorIsKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("user not found"))

	assert.True(t, errors.Is(err, KindNotFound))
	assert.False(t, errors.Is(err, KindBadRequest))
}

func TestPublicMessage_HidesInternalCause(t *testing.T) {
	assert.Equal(t, "internal server error", PublicMessage(errors.New("dial tcp 10.0.0.1: refused")))
	assert.Equal(t, "internal server error", PublicMessage(Wrap(KindInternal, errors.New("x"), "db exploded")))
	assert.Equal(t, "username is required", PublicMessage(BadRequest("username is required")))
	assert.Equal(t, "NOT_FOUND", PublicMessage(KindNotFound))
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, Wrap(KindInternal, nil, "ignored"))
}

func TestCodes(t *testing.T) {
	assert.Equal(t, "BAD_REQUEST", KindBadRequest.Code())
	assert.Equal(t, "UNAUTHORIZED", KindUnauthorized.Code())
	assert.Equal(t, "NOT_FOUND", KindNotFound.Code())
	assert.Equal(t, "DUPLICATE_ENTRY", KindDuplicateEntry.Code())
	assert.Equal(t, "INTERNAL", KindInternal.Code())
}
