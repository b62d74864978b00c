package unqualify

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden tests: testdata/<language>/<level>/ holds src/ (input files),
// want/ (expected output for files that change) and golden.json (expected
// ledger entries).

type goldenFile struct {
	Files []goldenEntry `json:"files"`
}

type goldenEntry struct {
	File     string          `json:"file"`
	Status   string          `json:"status"`
	Values   []string        `json:"values,omitempty"`
	Types    []string        `json:"types,omitempty"`
	Rewrites []goldenRewrite `json:"rewrites,omitempty"`
}

type goldenRewrite struct {
	Member   string `json:"member"`
	Category string `json:"category"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
}

func TestGolden(t *testing.T) {
	langDirs, err := os.ReadDir("testdata")
	if err != nil {
		t.Skip("no testdata directory found")
	}

	for _, langDir := range langDirs {
		if !langDir.IsDir() {
			continue
		}
		lang := langDir.Name()
		langRoot := filepath.Join("testdata", lang)
		levels, err := os.ReadDir(langRoot)
		if err != nil {
			continue
		}

		for _, level := range levels {
			if !level.IsDir() {
				continue
			}
			testDir := filepath.Join(langRoot, level.Name())
			goldenPath := filepath.Join(testDir, "golden.json")
			if _, err := os.Stat(goldenPath); err != nil {
				continue
			}

			t.Run(lang+"/"+level.Name(), func(t *testing.T) {
				runGoldenTest(t, lang, testDir, goldenPath)
			})
		}
	}
}

func runGoldenTest(t *testing.T, lang, testDir, goldenPath string) {
	t.Helper()

	goldenData, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	var golden goldenFile
	require.NoError(t, json.Unmarshal(goldenData, &golden))

	// Work on a copy so write-back never touches testdata.
	srcDir := filepath.Join(testDir, "src")
	workDir := t.TempDir()
	entries, err := os.ReadDir(srcDir)
	require.NoError(t, err)
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(srcDir, e.Name()))
		require.NoError(t, err)
		path := filepath.Join(workDir, e.Name())
		require.NoError(t, os.WriteFile(path, data, 0o644))
		paths = append(paths, path)
	}

	engine, err := New(
		WithCache(filepath.Join(t.TempDir(), "golden.db")),
		WithLanguages(lang),
		WithWrite(true),
	)
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.TransformFiles(context.Background(), paths)
	require.NoError(t, err)

	// --- Verify output ---
	t.Run("output", func(t *testing.T) {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			got, err := os.ReadFile(filepath.Join(workDir, e.Name()))
			require.NoError(t, err)
			want, err := os.ReadFile(filepath.Join(testDir, "want", e.Name()))
			if os.IsNotExist(err) {
				want, err = os.ReadFile(filepath.Join(srcDir, e.Name()))
			}
			require.NoError(t, err)
			assert.Equal(t, string(want), string(got), e.Name())
		}
	})

	// --- Verify ledger ---
	t.Run("ledger", func(t *testing.T) {
		q, err := engine.Report()
		require.NoError(t, err)
		for _, exp := range golden.Files {
			verifyLedgerEntry(t, q, filepath.Join(workDir, exp.File), exp)
		}
	})
}

func verifyLedgerEntry(t *testing.T, q *ReportBuilder, path string, exp goldenEntry) {
	t.Helper()

	d, err := q.File(path)
	require.NoError(t, err)
	require.NotNil(t, d, "no ledger entry for %s", exp.File)
	assert.Equal(t, exp.Status, string(d.File.Status), exp.File)

	var values, types []string
	for _, m := range d.Members {
		if m.Kind == KindType {
			types = append(types, m.Name)
		} else {
			values = append(values, m.Name)
		}
	}
	assert.Equal(t, exp.Values, values, "%s values", exp.File)
	assert.Equal(t, exp.Types, types, "%s types", exp.File)

	var rewrites []goldenRewrite
	for _, r := range d.Rewrites {
		rewrites = append(rewrites, goldenRewrite{
			Member:   r.Member,
			Category: r.Category,
			Line:     r.Line,
			Col:      r.Col,
		})
	}
	assert.Equal(t, exp.Rewrites, rewrites, "%s rewrites", exp.File)
}
