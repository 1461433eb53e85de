package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, "platerec 0.1.0 (built unknown, commit unknown)", String("platerec"))
}
