package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerators(t *testing.T) {
	id := GenerateQuoteID()
	assert.True(t, strings.HasPrefix(id, "qt_"))
	assert.Len(t, id, 35)
	assert.NotEqual(t, id, GenerateQuoteID())
	assert.Len(t, GenerateUUID(), 36)
}

func TestResponses(t *testing.T) {
	ok := SuccessResponse("done", 1)
	assert.Equal(t, true, ok["success"])
	assert.Equal(t, 1, ok["data"])

	bad := ErrorResponse("failed", "")
	assert.Equal(t, false, bad["success"])
	_, has := bad["error"]
	assert.False(t, has)
	assert.Equal(t, "boom", ErrorResponse("failed", "boom")["error"])
}
