// Package diff renders unified diffs of a file before and after a rewrite.
package diff

import (
	"bytes"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a unified diff turning old into new, with a leading
// "diff oldName newName" line. Identical inputs yield nil.
func Diff(oldName string, old []byte, newName string, new []byte) ([]byte, error) {
	if bytes.Equal(old, new) {
		return nil, nil
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(old),
		B:        splitLines(new),
		FromFile: oldName,
		ToFile:   newName,
		Context:  3,
	})
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	var b bytes.Buffer
	b.WriteString("diff " + oldName + " " + newName + "\n")
	b.WriteString(text)
	return b.Bytes(), nil
}

// splitLines splits text after each newline. Unlike difflib.SplitLines it
// adds no empty line after a final terminator, and a last line without one
// is marked the way diff(1) does.
func splitLines(text []byte) []string {
	if len(text) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(text), "\n")
	if last := lines[len(lines)-1]; last == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] = last + "\n\\ No newline at end of file\n"
	}
	return lines
}
