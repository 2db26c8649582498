package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "$27.99", Format(2799))
	assert.Equal(t, "$0.05", Format(5))
	assert.Equal(t, "$50.00", Format(5000))
	assert.Equal(t, "-$1.20", Format(-120))
}
