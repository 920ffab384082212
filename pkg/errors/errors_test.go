package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatchesSentinelAndCause(t *testing.T) {
	cause := stderrors.New("dial tcp: timeout")
	err := External(cause, "vision page %d", 3)

	assert.True(t, Is(err, ErrExternalService))
	assert.True(t, Is(err, cause))
	assert.False(t, Is(err, ErrParameter))
	assert.Equal(t, "vision page 3: dial tcp: timeout", err.Error())

	wrapped := fmt.Errorf("process file: %w", err)
	assert.True(t, Is(wrapped, ErrExternalService))
}

func TestCustomizedErrorUnwrap(t *testing.T) {
	err := New("TaskLogic.Create", "error.invalidargument", Parameter("projectId is required")).Code(http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, err.GetCode())
	assert.True(t, Is(err, ErrParameter))

	traced := Trace("Handler.CreateTask", err)
	assert.Equal(t, http.StatusBadRequest, traced.GetCode())

	wrapped := Wrap(err, "Outer", "error.internal")
	assert.Equal(t, http.StatusBadRequest, wrapped.GetCode())
	assert.Equal(t, "error.internal", wrapped.Message())
}
