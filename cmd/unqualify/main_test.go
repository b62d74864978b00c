package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/unqualify"
)

const hookSource = `import React from 'react';

export function useCounter() {
  const [n, setN] = React.useState(0);
  React.useEffect(() => {}, [n]);
  return n;
}
`

const hookWant = `import { useState, useEffect } from 'react';

export function useCounter() {
  const [n, setN] = useState(0);
  useEffect(() => {}, [n]);
  return n;
}
`

// execute runs the CLI with args and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	c := &cli{}
	cmd := c.rootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// project writes files into a new temp dir and returns the dir and a cache
// path outside it.
func project(t *testing.T, files map[string]string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir, filepath.Join(t.TempDir(), "ledger.db")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.EqualError(t, validateFormat("yaml"), `invalid format "yaml": must be json or text`)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList(" a, b,,c ,"))
	assert.Nil(t, splitList(""))
}

func TestJoinMembers(t *testing.T) {
	assert.Equal(t, "useState, type FC", joinMembers([]string{"useState"}, []string{"FC"}))
	assert.Equal(t, "", joinMembers(nil, nil))
}

func TestRun_DryRunText(t *testing.T) {
	dir, cache := project(t, map[string]string{"src/useCounter.ts": hookSource})

	out, _, err := execute(t, "", "run", "--cache", cache, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "useState, useEffect")
	assert.Contains(t, out, "1 files, 1 to rewrite, 0 failed")
	assert.Equal(t, hookSource, readFile(t, filepath.Join(dir, "src/useCounter.ts")))
}

func TestRun_Write(t *testing.T) {
	dir, cache := project(t, map[string]string{"useCounter.ts": hookSource})
	path := filepath.Join(dir, "useCounter.ts")

	out, _, err := execute(t, "", "run", "-w", "--cache", cache, path)
	require.NoError(t, err)
	assert.Contains(t, out, "written")
	assert.Equal(t, hookWant, readFile(t, path))
}

func TestRun_List(t *testing.T) {
	dir, cache := project(t, map[string]string{
		"a.ts": hookSource,
		"b.ts": "export const b = 1;\n",
	})

	out, _, err := execute(t, "", "run", "-l", "--cache", cache, dir)
	require.NoError(t, err)
	assert.Equal(t, displayPath(filepath.Join(dir, "a.ts"))+"\n", out)
}

func TestRun_Diff(t *testing.T) {
	dir, cache := project(t, map[string]string{"a.ts": hookSource})

	out, _, err := execute(t, "", "run", "-d", "--cache", cache, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "-import React from 'react';")
	assert.Contains(t, out, "+import { useState, useEffect } from 'react';")
	assert.Contains(t, out, "@@ ")
}

func TestRun_JSON(t *testing.T) {
	dir, cache := project(t, map[string]string{
		"a.ts":      hookSource,
		"broken.ts": "const = ;\n",
	})

	out, _, err := execute(t, "", "run", "--format", "json", "--cache", cache, dir)
	require.Error(t, err)

	var result struct {
		Command string          `json:"command"`
		Results []CLIFileResult `json:"results"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "run", result.Command)
	assert.Contains(t, result.Error, "syntax error")
	require.Len(t, result.Results, 2)

	assert.Equal(t, "pending", result.Results[0].Status)
	assert.Equal(t, []string{"useState", "useEffect"}, result.Results[0].Values)
	assert.Equal(t, 2, result.Results[0].Rewrites)
	assert.Equal(t, "failed", result.Results[1].Status)
	assert.Contains(t, result.Results[1].Error, "syntax error")
}

func TestRun_Stdin(t *testing.T) {
	out, _, err := execute(t, hookSource, "run", "--stdin-filename", "useCounter.ts")
	require.NoError(t, err)
	assert.Equal(t, hookWant, out)
}

func TestRun_StdinDiff(t *testing.T) {
	out, _, err := execute(t, hookSource, "run", "--stdin-filename", "useCounter.ts", "-d")
	require.NoError(t, err)
	assert.Contains(t, out, "--- a/useCounter.ts")
	assert.Contains(t, out, "+++ b/useCounter.ts")
}

func TestRun_StdinUnsupported(t *testing.T) {
	_, stderr, err := execute(t, "x", "run", "--stdin-filename", "notes.md")
	require.Error(t, err)
	assert.Contains(t, stderr, "Error:")
}

func TestRun_NamespaceFlags(t *testing.T) {
	src := "import * as Preact from 'preact/compat';\nPreact.useId();\n"
	out, _, err := execute(t, src, "run", "--stdin-filename", "a.js",
		"--namespace", "Preact", "--module", "preact/compat")
	require.NoError(t, err)
	assert.Equal(t, "import { useId } from 'preact/compat';\nuseId();\n", out)
}

func TestRun_ConfigFile(t *testing.T) {
	dir, _ := project(t, map[string]string{
		".unqualify.toml": "quote = \"double\"\nsemicolons = \"never\"\nexclude = [\"*.gen.ts\"]\n",
		"a.ts":            "React.useId();\n",
		"b.gen.ts":        "React.useId();\n",
	})

	out, _, err := execute(t, "", "run", "-w", "--config", filepath.Join(dir, ".unqualify.toml"), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 files, 1 rewritten")
	assert.Equal(t, "import { useId } from \"react\"\nuseId();\n", readFile(t, filepath.Join(dir, "a.ts")))
	assert.Equal(t, "React.useId();\n", readFile(t, filepath.Join(dir, "b.gen.ts")))

	// Relative cache paths resolve against the config file's directory.
	assert.FileExists(t, filepath.Join(dir, ".unqualify.db"))
}

func TestRun_MissingExplicitConfig(t *testing.T) {
	_, _, err := execute(t, "", "run", "--config", filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestRun_InvalidLanguage(t *testing.T) {
	dir, cache := project(t, map[string]string{"a.ts": hookSource})
	_, _, err := execute(t, "", "run", "--languages", "go", "--cache", cache, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown language "go"`)
}

func TestRun_InvalidFormat(t *testing.T) {
	_, _, err := execute(t, "", "run", "--format", "yaml")
	require.Error(t, err)
}

func TestTransformPaths_MissingPath(t *testing.T) {
	engine, err := unqualify.New()
	require.NoError(t, err)
	defer engine.Close()

	missing := filepath.Join(t.TempDir(), "gone.ts")
	results, err := transformPaths(context.Background(), engine, []string{missing})
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "path not found")
	assert.Empty(t, results)
}

func TestRun_Hook(t *testing.T) {
	dir, cache := project(t, map[string]string{
		"a.ts":       hookSource,
		"veto.risor": "len(value_members) == 0",
	})

	out, _, err := execute(t, "", "run", "-w", "--no-cache", "--cache", cache,
		"--hook", filepath.Join(dir, "veto.risor"), filepath.Join(dir, "a.ts"))
	require.NoError(t, err)
	assert.Contains(t, out, "vetoed")
	assert.Equal(t, hookSource, readFile(t, filepath.Join(dir, "a.ts")))
	assert.NoFileExists(t, cache)
}

func TestReport(t *testing.T) {
	dir, cache := project(t, map[string]string{
		"a.ts": hookSource,
		"b.ts": "React.useState(1);\n",
	})
	_, _, err := execute(t, "", "run", "-w", "--cache", cache, dir)
	require.NoError(t, err)

	out, _, err := execute(t, "", "report", "--format", "json", "--cache", cache)
	require.NoError(t, err)

	var result struct {
		Command string    `json:"command"`
		Results CLIReport `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	r := result.Results
	assert.Equal(t, 2, r.Files)
	assert.Equal(t, []CLIStatusCount{{Status: "written", Files: 2}}, r.Statuses)
	assert.Equal(t, 3, r.TotalRewrites)
	require.NotEmpty(t, r.Members)
	assert.Equal(t, CLIMemberUsage{Name: "useState", Kind: "value", Files: 2, Rewrites: 2}, r.Members[0])
	assert.NotEmpty(t, r.LastRun)

	text, _, err := execute(t, "", "report", "--cache", cache)
	require.NoError(t, err)
	assert.Contains(t, text, "Ledger Summary")
	assert.Contains(t, text, "written: 2")
	assert.Contains(t, text, "useEffect")
}

func TestReport_File(t *testing.T) {
	dir, cache := project(t, map[string]string{"a.ts": hookSource})
	_, _, err := execute(t, "", "run", "--cache", cache, dir)
	require.NoError(t, err)

	out, _, err := execute(t, "", "report", "--format", "json", "--cache", cache, "--file", filepath.Join(dir, "a.ts"))
	require.NoError(t, err)

	var result struct {
		Results CLIFileDetail `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "pending", result.Results.File.Status)
	assert.Equal(t, []string{"useState", "useEffect"}, result.Results.Values)
	assert.Empty(t, result.Results.Types)
	require.Len(t, result.Results.Rewrites, 2)
	assert.Equal(t, CLIRewrite{Member: "useState", Category: "value", Line: 4, Col: 21}, result.Results.Rewrites[0])

	_, _, err = execute(t, "", "report", "--cache", cache, "--file", filepath.Join(dir, "missing.ts"))
	require.Error(t, err)
}

func TestReport_Status(t *testing.T) {
	dir, cache := project(t, map[string]string{
		"a.ts":      hookSource,
		"broken.ts": "const = ;\n",
	})
	_, _, err := execute(t, "", "run", "--cache", cache, dir)
	require.Error(t, err)

	out, _, err := execute(t, "", "report", "--cache", cache, "--status", "failed")
	require.NoError(t, err)
	assert.Contains(t, out, "broken.ts")
	assert.NotContains(t, out, "a.ts")

	_, _, err = execute(t, "", "report", "--cache", cache, "--status", "bogus")
	require.Error(t, err)
}

func TestReport_NoCache(t *testing.T) {
	_, _, err := execute(t, "", "report", "--no-cache")
	assert.ErrorIs(t, err, unqualify.ErrNoCache)
}
