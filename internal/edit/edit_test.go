package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {
	b := NewBuffer([]byte("0123456789"))
	b.Insert(8, ",7½,")
	b.Replace(9, 10, "the-end")
	b.Insert(10, "!")
	b.Insert(4, "3.14,")
	b.Insert(4, "π,")
	b.Insert(4, "3.15,")
	b.Replace(3, 4, "three,")
	want := "012three,3.14,π,3.15,4567,7½,8the-end!"

	s := b.String()
	assert.Equal(t, want, s)
	assert.Equal(t, 7, b.Len())

	// String should be idempotent.
	assert.Equal(t, want, b.String())
}

func TestBuffer_NoEdits(t *testing.T) {
	src := []byte("unchanged")
	b := NewBuffer(src)

	out, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, &src[0], &out[0], "expected the original slice back")
}

func TestBuffer_Delete(t *testing.T) {
	b := NewBuffer([]byte("import React from 'react';\nx();\n"))
	b.Delete(0, 27)
	b.Insert(0, "import { x } from 'react';\n")

	out, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "import { x } from 'react';\nx();\n", string(out))
}

func TestBuffer_Overlap(t *testing.T) {
	b := NewBuffer([]byte("React.useState"))
	b.Replace(0, 14, "useState")
	b.Replace(6, 14, "x")

	_, err := b.Bytes()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOverlap)
}

func TestBuffer_OutOfRange(t *testing.T) {
	b := NewBuffer([]byte("abc"))
	b.Replace(2, 9, "x")

	_, err := b.Bytes()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}
