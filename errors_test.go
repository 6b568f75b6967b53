package sdk

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorRendering(t *testing.T) {
	err := NotFoundf("widget %q", "web")
	assert.Equal(t, `Resource not found: widget "web"`, err.Error())

	assert.Equal(t, "Validation error: bad value", Validationf("bad value").Error())
	assert.Equal(t, "Unimplemented: import", Unimplementedf("import").Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrAlreadyExists, KindOf(AlreadyExistsf("widget")))
	assert.Equal(t, ErrInternal, KindOf(errors.New("plain error")))

	wrapped := fmt.Errorf("while syncing: %w", NotFoundf("widget"))
	assert.Equal(t, ErrNotFound, KindOf(wrapped))
}

func TestWrapErrorUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := WrapError(ErrTransport, cause, "connect to provider")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, ErrTransport, KindOf(err))
	assert.Contains(t, err.Error(), "Transport error")
}

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", Configurationf("missing region"))
	assert.True(t, errors.Is(err, NewError(ErrConfiguration, "")))
	assert.False(t, errors.Is(err, NewError(ErrNotFound, "")))
}
