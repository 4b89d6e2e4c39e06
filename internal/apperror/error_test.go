package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCode(t *testing.T) {
	assert.Equal(t, Code(""), GetCode(nil))
	assert.Equal(t, CodeNotFound, GetCode(NotFound("department not found")))
	assert.Equal(t, CodeCycle, GetCode(fmt.Errorf("move: %w", Cycle("department cycle detected"))))
	assert.Equal(t, CodeStorageFailure, GetCode(errors.New("connection reset")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := StorageFailure(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storage failure: deadlock detected", err.Error())
	assert.True(t, Is(err, CodeStorageFailure))
	assert.False(t, Is(err, CodeDuplicateName))
}
