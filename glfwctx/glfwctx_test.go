package glfwctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminatedContext(t *testing.T) {
	c := &Context{}
	assert.ErrorIs(t, c.MakeCurrent(), ErrTerminated)
	assert.NoError(t, c.Terminate())
	assert.Nil(t, c.GL())
}
