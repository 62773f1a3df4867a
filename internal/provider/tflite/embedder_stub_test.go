//go:build !tflite

package tflite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEmbedder_NotCompiled(t *testing.T) {
	e, err := NewEmbedder(Config{ModelPath: "mobile_facenet.tflite"})

	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrNotCompiled)
}
