package runtime

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Language detection tests ---

func TestLanguageForFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"app.ts", TypeScript, true},
		{"app.mts", TypeScript, true},
		{"app.cts", TypeScript, true},
		{"app.tsx", TSX, true},
		{"app.js", JavaScript, true},
		{"app.jsx", JavaScript, true},
		{"app.mjs", JavaScript, true},
		{"app.cjs", JavaScript, true},
		{"app.d.ts", TypeScript, true},
		{"main.go", "", false},
		{"Makefile", "", false},
		{"path/to/App.TSX", TSX, true}, // case insensitive
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, ok := LanguageForFile(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParserForLanguage(t *testing.T) {
	t.Parallel()

	for _, lang := range []string{TypeScript, TSX, JavaScript} {
		t.Run(lang, func(t *testing.T) {
			t.Parallel()
			l, ok := ParserForLanguage(lang)
			assert.True(t, ok)
			assert.NotNil(t, l)
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		t.Parallel()
		_, ok := ParserForLanguage("cobol")
		assert.False(t, ok)
	})
}

func TestLanguages(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{JavaScript, TSX, TypeScript}, Languages())
}

// --- Parse tests ---

func TestParse_ReturnsUnit(t *testing.T) {
	t.Parallel()

	src := []byte("const a = React.useState(0);\n")
	u, err := Parse(context.Background(), JavaScript, src)
	require.NoError(t, err)
	defer u.Close()

	root := u.Root()
	assert.Equal(t, "program", root.Type())
	assert.Equal(t, string(src), u.Text(root))
	assert.Equal(t, JavaScript, u.Language)

	_, bad := u.SyntaxError()
	assert.False(t, bad)
}

func TestParse_TSXAcceptsMarkup(t *testing.T) {
	t.Parallel()

	src := []byte("const el = <React.Fragment>x</React.Fragment>;\n")

	u, err := Parse(context.Background(), TSX, src)
	require.NoError(t, err)
	defer u.Close()
	_, bad := u.SyntaxError()
	assert.False(t, bad)
}

func TestParse_SyntaxErrorPosition(t *testing.T) {
	t.Parallel()

	u, err := Parse(context.Background(), JavaScript, []byte("const ok = 1;\nconst = ;\n"))
	require.NoError(t, err)
	defer u.Close()

	pt, bad := u.SyntaxError()
	require.True(t, bad)
	assert.Equal(t, uint32(1), pt.Row)
}

func TestParse_UnsupportedLanguage(t *testing.T) {
	t.Parallel()

	_, err := Parse(context.Background(), "cobol", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

// --- Hook tests ---

func writeHook(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hook.risor")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestAllow_Truthy(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(writeHook(t, `language == "tsx" && len(value_members) > 0`))
	ok, err := rt.Allow(context.Background(), HookInput{
		Path:     "src/App.tsx",
		Language: TSX,
		Values:   []string{"useState"},
	})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_Veto(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(writeHook(t, `
vetoed := false
for _, name := range type_members {
    if name == "FC" {
        vetoed = true
    }
}
!vetoed
`))
	ok, err := rt.Allow(context.Background(), HookInput{
		Path:     "src/App.tsx",
		Language: TSX,
		Types:    []string{"ReactNode", "FC"},
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllow_RewriteCount(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(writeHook(t, `rewrite_count < 3`))
	ok, err := rt.Allow(context.Background(), HookInput{Path: "a.ts", Rewrites: 5})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = rt.Allow(context.Background(), HookInput{Path: "b.ts", Rewrites: 2})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_ScriptError(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(writeHook(t, `undefined_function()`))
	_, err := rt.Allow(context.Background(), HookInput{Path: "a.ts"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hook.risor")
}

func TestAllow_MissingScript(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(filepath.Join(t.TempDir(), "missing.risor"))
	_, err := rt.Allow(context.Background(), HookInput{Path: "a.ts"})
	require.Error(t, err)
}

func TestAllow_LogGoesToSlog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rt := NewRuntime(writeHook(t, `
log.Info('checking {file_path}')
true
`), WithRuntimeLogger(logger))

	ok, err := rt.Allow(context.Background(), HookInput{Path: "src/x.ts", Language: TypeScript})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, buf.String(), "checking src/x.ts")
	assert.Contains(t, buf.String(), "source=hook")
}

func TestRunSource_Globals(t *testing.T) {
	t.Parallel()

	rt := NewRuntime("")
	script := `
names := []
for _, n := range members {
    names.append(n)
}
assert(len(names) == 2, 'expected 2 members, got {len(names)}')
names[1]
`
	result, err := rt.RunSource(context.Background(), script, map[string]any{
		"members": stringList([]string{"useState", "useMemo"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "useMemo", result.Interface())
}

// --- fs.FS-based script loading tests ---

func TestLoadScript_FromFSFS(t *testing.T) {
	t.Parallel()

	content := `true`
	mapFS := fstest.MapFS{
		"hooks/only-tsx.risor": &fstest.MapFile{Data: []byte(content)},
	}

	rt := NewRuntime("hooks/only-tsx.risor", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("hooks/only-tsx.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FromFSFS_NotFound(t *testing.T) {
	t.Parallel()

	rt := NewRuntime("", WithRuntimeFS(fstest.MapFS{}))

	_, err := rt.LoadScript("nonexistent.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}

func TestLoadScript_FromFSFS_StripsLeadingSeparator(t *testing.T) {
	t.Parallel()

	content := `false`
	mapFS := fstest.MapFS{
		"hooks/deny.risor": &fstest.MapFile{Data: []byte(content)},
	}

	rt := NewRuntime("", WithRuntimeFS(mapFS))

	// Absolute-style path should be resolved within the FS.
	got, err := rt.LoadScript("/hooks/deny.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestScript_Cached(t *testing.T) {
	t.Parallel()

	path := writeHook(t, `true`)
	rt := NewRuntime(path)

	first, err := rt.Script()
	require.NoError(t, err)

	// Later edits to the file are not picked up by the same Runtime.
	require.NoError(t, os.WriteFile(path, []byte(`false`), 0644))
	second, err := rt.Script()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// --- Importer wiring tests ---

func TestImport_FSImporter(t *testing.T) {
	// Risor's FSImporter resolves "policy" by trying name + ".risor",
	// so the file must be at the flat path "policy.risor" in the FS.
	mapFS := fstest.MapFS{
		"policy.risor": &fstest.MapFile{Data: []byte(`
func allowed(lang) {
	return lang != "javascript"
}
`)},
		"hook.risor": &fstest.MapFile{Data: []byte(`
import policy

policy.allowed(language)
`)},
	}

	rt := NewRuntime("hook.risor", WithRuntimeFS(mapFS))

	ok, err := rt.Allow(context.Background(), HookInput{Path: "a.js", Language: JavaScript})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestImport_LocalImporter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "limits.risor"), []byte(`
max_rewrites := 10
`), 0644))
	hook := filepath.Join(dir, "hook.risor")
	require.NoError(t, os.WriteFile(hook, []byte(`
import limits

rewrite_count <= limits.max_rewrites
`), 0644))

	rt := NewRuntime(hook)
	ok, err := rt.Allow(context.Background(), HookInput{Path: "a.ts", Rewrites: 4})
	require.NoError(t, err)
	assert.True(t, ok)
}
