package runtime

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrUnsupportedLanguage is returned by Parse for a language name with no
// registered grammar.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Unit is one parsed source file: the tree-sitter tree together with the
// bytes it was parsed from. smacker/go-tree-sitter nodes do not carry their
// source, so every text lookup goes through the Unit.
type Unit struct {
	Language string
	Source   []byte

	tree *sitter.Tree
}

// Parse parses src with the grammar registered for lang. Each call uses its
// own parser, so Parse is safe to call from concurrent workers.
//
// A tree containing syntax errors is still returned; callers decide whether
// to reject it via SyntaxError.
func Parse(ctx context.Context, lang string, src []byte) (*Unit, error) {
	grammar, ok := ParserForLanguage(lang)
	if !ok {
		return nil, fmt.Errorf("parse: %w %q", ErrUnsupportedLanguage, lang)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: tree-sitter parse failed: %w", err)
	}
	return &Unit{Language: lang, Source: src, tree: tree}, nil
}

// Root returns the program node.
func (u *Unit) Root() *sitter.Node {
	return u.tree.RootNode()
}

// Text returns the source text spanned by n.
func (u *Unit) Text(n *sitter.Node) string {
	return n.Content(u.Source)
}

// Close releases the underlying tree.
func (u *Unit) Close() {
	u.tree.Close()
}

// SyntaxError locates the first ERROR or missing node in document order.
// It reports false when the tree parsed cleanly.
func (u *Unit) SyntaxError() (sitter.Point, bool) {
	root := u.Root()
	if !root.HasError() {
		return sitter.Point{}, false
	}
	if n := firstError(root); n != nil {
		return n.StartPoint(), true
	}
	return root.StartPoint(), true
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstError(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
