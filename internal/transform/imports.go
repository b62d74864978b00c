package transform

import (
	"bytes"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/unqualify/internal/edit"
	"github.com/jward/unqualify/internal/runtime"
)

// importDecl is a top-level import statement as far as the synthesizer
// cares: its source module and the three binding forms of its clause.
type importDecl struct {
	stmt        *sitter.Node
	clause      *sitter.Node // nil for side-effect imports
	defaultName *sitter.Node // import X from
	namespace   *sitter.Node // import * as X from
	named       *sitter.Node // import { a, b } from

	source    string
	quote     byte
	semicolon bool
}

// topLevelImports returns the program's import statements in order.
func topLevelImports(u *runtime.Unit) []importDecl {
	root := u.Root()
	var decls []importDecl
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != nodeImportStatement {
			continue
		}
		if d, ok := parseImport(u, stmt); ok {
			decls = append(decls, d)
		}
	}
	return decls
}

func parseImport(u *runtime.Unit, stmt *sitter.Node) (importDecl, bool) {
	d := importDecl{stmt: stmt}

	src := stmt.ChildByFieldName("source")
	for i := 0; src == nil && i < int(stmt.NamedChildCount()); i++ {
		if c := stmt.NamedChild(i); c.Type() == nodeString {
			src = c
		}
	}
	if src == nil {
		// import x = require('...') and friends.
		return d, false
	}
	lit := u.Text(src)
	if len(lit) < 2 {
		return d, false
	}
	d.quote = lit[0]
	d.source = lit[1 : len(lit)-1]
	d.semicolon = strings.HasSuffix(strings.TrimSpace(u.Text(stmt)), ";")

	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		if c := stmt.NamedChild(i); c.Type() == nodeImportClause {
			d.clause = c
			break
		}
	}
	if d.clause == nil {
		return d, true
	}
	for i := 0; i < int(d.clause.NamedChildCount()); i++ {
		c := d.clause.NamedChild(i)
		switch c.Type() {
		case nodeIdentifier:
			d.defaultName = c
		case nodeNamespaceImport:
			d.namespace = c
		case nodeNamedImports:
			d.named = c
		}
	}
	return d, true
}

// bindsNamespace reports whether d binds the whole module, as a default or
// namespace import, under exactly the local name ns.
func (d importDecl) bindsNamespace(u *runtime.Unit, ns string) bool {
	if d.defaultName != nil && u.Text(d.defaultName) == ns {
		return true
	}
	return d.namespace != nil && namespaceAlias(u, d.namespace) == ns
}

func namespaceAlias(u *runtime.Unit, n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == nodeIdentifier {
			return u.Text(c)
		}
	}
	return ""
}

// otherBindings returns the clause parts of d that do not bind ns, in
// source order (a default binding always comes first).
func (d importDecl) otherBindings(u *runtime.Unit, ns string) []string {
	var kept []string
	if d.defaultName != nil && u.Text(d.defaultName) != ns {
		kept = append(kept, u.Text(d.defaultName))
	}
	if d.namespace != nil && namespaceAlias(u, d.namespace) != ns {
		kept = append(kept, u.Text(d.namespace))
	}
	if d.named != nil {
		kept = append(kept, u.Text(d.named))
	}
	return kept
}

// removeNamespaceBinding queues the removal of d's namespace binding. A
// declaration that binds nothing else is deleted along with its line;
// otherwise only the binding leaves the clause.
func removeNamespaceBinding(u *runtime.Unit, d importDecl, ns string, buf *edit.Buffer) {
	if kept := d.otherBindings(u, ns); len(kept) > 0 {
		buf.Replace(int(d.clause.StartByte()), int(d.clause.EndByte()), strings.Join(kept, ", "))
		return
	}
	start, end := lineSpan(u.Source, int(d.stmt.StartByte()), int(d.stmt.EndByte()))
	buf.Delete(start, end)
}

// importStyle is how synthesized import statements are printed.
type importStyle struct {
	quote     byte
	semicolon bool
	newline   string
}

func (s importStyle) line(typeOnly bool, names []string, module string) string {
	var b strings.Builder
	b.WriteString("import ")
	if typeOnly {
		b.WriteString("type ")
	}
	fmt.Fprintf(&b, "{ %s } from %c%s%c", strings.Join(names, ", "), s.quote, module, s.quote)
	if s.semicolon {
		b.WriteByte(';')
	}
	b.WriteString(s.newline)
	return b.String()
}

// synthesize removes the whole-module imports bound to the namespace
// identifier and prepends one value import and one type-only import for the
// collected members. Each import is prepended in turn, value first, so a
// type import ends up above the value import.
//
// With keepNamespace set (the unit still uses the namespace identifier in
// shapes the rewriter leaves alone) the existing imports stay.
func (t *Transformer) synthesize(u *runtime.Unit, members MemberSet, keepNamespace bool, buf *edit.Buffer) (removed int, kept bool) {
	decls := topLevelImports(u)
	style, styled := t.style(u.Source), false

	for _, d := range decls {
		if d.source != t.cfg.Module || !d.bindsNamespace(u, t.cfg.Namespace) {
			continue
		}
		if !styled {
			style, styled = t.styleFrom(d, style), true
		}
		if keepNamespace {
			kept = true
			continue
		}
		removeNamespaceBinding(u, d, t.cfg.Namespace, buf)
		removed++
	}
	if !styled && len(decls) > 0 {
		style = t.styleFrom(decls[0], style)
	}

	var head []string
	if values := members.Values(); len(values) > 0 {
		head = prepend(head, style.line(false, values, t.cfg.Module))
	}
	if types := members.Types(); len(types) > 0 {
		head = prepend(head, style.line(true, types, t.cfg.Module))
	}
	if len(head) > 0 {
		pos, lead := programHead(u)
		if lead {
			head = prepend(head, style.newline)
		}
		buf.Insert(pos, strings.Join(head, ""))
	}
	return removed, kept
}

func prepend(list []string, s string) []string {
	return append([]string{s}, list...)
}

// style returns the configured import style; "auto" settings fall back to
// single quotes and semicolons until an existing import says otherwise.
func (t *Transformer) style(src []byte) importStyle {
	s := importStyle{quote: '\'', semicolon: true, newline: "\n"}
	if bytes.Contains(src, []byte("\r\n")) {
		s.newline = "\r\n"
	}
	if t.cfg.Quote == QuoteDouble {
		s.quote = '"'
	}
	if t.cfg.Semicolons == SemicolonsNever {
		s.semicolon = false
	}
	return s
}

// styleFrom adopts d's quote and semicolon style where the configuration
// leaves them on auto.
func (t *Transformer) styleFrom(d importDecl, s importStyle) importStyle {
	if t.cfg.Quote == QuoteAuto && (d.quote == '\'' || d.quote == '"') {
		s.quote = d.quote
	}
	if t.cfg.Semicolons == SemicolonsAuto {
		s.semicolon = d.semicolon
	}
	return s
}

// programHead returns the offset where synthesized imports go: after a
// hash-bang line, the directive prologue ('use client') and comment blocks
// set apart by a blank line, at the start of the line holding the first
// remaining statement. lead reports that the offset is the end of a file
// whose last line has no terminator.
func programHead(u *runtime.Unit) (pos int, lead bool) {
	root := u.Root()
	src := u.Source
	n := int(root.NamedChildCount())

	i := 0
	for i < n {
		c := root.NamedChild(i)
		if c.Type() == nodeHashBang || isDirective(c) {
			i++
			continue
		}
		if c.Type() != nodeComment {
			break
		}
		// A run of comments is a header only when a blank line closes it.
		j := i
		for j+1 < n && root.NamedChild(j+1).Type() == nodeComment {
			j++
		}
		if !blankLineAfter(src, int(root.NamedChild(j).EndByte())) {
			break
		}
		i = j + 1
	}
	if i < n {
		return lineStart(src, int(root.NamedChild(i).StartByte())), false
	}
	if i == 0 {
		return 0, false
	}
	// Only prologue and header comments: append below them.
	end := int(root.NamedChild(n - 1).EndByte())
	if nl := bytes.IndexByte(src[end:], '\n'); nl >= 0 {
		return end + nl + 1, false
	}
	return len(src), true
}

// isDirective reports whether n is a directive prologue entry such as
// 'use client';.
func isDirective(n *sitter.Node) bool {
	return n.Type() == nodeExpressionStatement &&
		n.NamedChildCount() == 1 &&
		n.NamedChild(0).Type() == nodeString
}

// blankLineAfter reports whether the line ending at or after pos is
// followed by an empty line.
func blankLineAfter(src []byte, pos int) bool {
	nl := bytes.IndexByte(src[pos:], '\n')
	if nl < 0 {
		return false
	}
	rest := src[pos+nl+1:]
	i := 0
	for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t' || rest[i] == '\r') {
		i++
	}
	return i < len(rest) && rest[i] == '\n'
}

// lineStart moves pos back to the start of its line when only indentation
// precedes it.
func lineStart(src []byte, pos int) int {
	i := pos
	for i > 0 && (src[i-1] == ' ' || src[i-1] == '\t') {
		i--
	}
	if i == 0 || src[i-1] == '\n' {
		return i
	}
	return pos
}

// lineSpan widens [start, end) to whole lines, including the terminator,
// when nothing but whitespace shares those lines with it. When code follows
// on the same line, the blanks up to that code go with the statement. When
// code precedes it, the terminator stays.
func lineSpan(src []byte, start, end int) (int, int) {
	e := end
	for e < len(src) && (src[e] == ' ' || src[e] == '\t') {
		e++
	}
	s := lineStart(src, start)
	if s == start && s > 0 && src[s-1] != '\n' {
		return start, e
	}
	switch {
	case e == len(src):
		return s, e
	case src[e] == '\n':
		return s, e + 1
	case src[e] == '\r' && e+1 < len(src) && src[e+1] == '\n':
		return s, e + 2
	}
	return start, e
}
