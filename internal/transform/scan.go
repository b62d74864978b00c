package transform

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Node types from the tree-sitter JavaScript, TypeScript and TSX grammars.
const (
	nodeIdentifier            = "identifier"
	nodeShorthandProperty     = "shorthand_property_identifier"
	nodePropertyIdentifier    = "property_identifier"
	nodeTypeIdentifier        = "type_identifier"
	nodeMemberExpression      = "member_expression"
	nodeNestedIdentifier      = "nested_identifier"
	nodeNestedTypeIdentifier  = "nested_type_identifier"
	nodeGenericType           = "generic_type"
	nodeTypeArguments         = "type_arguments"
	nodeExtendsTypeClause     = "extends_type_clause"
	nodeImplementsClause      = "implements_clause"
	nodeOptionalChain         = "optional_chain"
	nodeImportStatement       = "import_statement"
	nodeImportClause          = "import_clause"
	nodeNamespaceImport       = "namespace_import"
	nodeNamedImports          = "named_imports"
	nodeString                = "string"
	nodeComment               = "comment"
	nodeHashBang              = "hash_bang_line"
	nodeExpressionStatement   = "expression_statement"
	nodeJSXOpeningElement     = "jsx_opening_element"
	nodeJSXClosingElement     = "jsx_closing_element"
	nodeJSXSelfClosingElement = "jsx_self_closing_element"
)

// scanner recognizes qualified references to one namespace identifier.
// It only reads the tree.
type scanner struct {
	ns  string
	src []byte
}

// walk visits every qualified reference under n in document order.
// A matched node's children are not visited: they are the namespace
// identifier and the member name.
func (s scanner) walk(n *sitter.Node, visit func(Reference)) {
	if ref, ok := s.classify(n); ok {
		visit(ref)
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		s.walk(n.NamedChild(i), visit)
	}
}

// classify reports whether n is a qualified reference of an exact,
// supported shape. Anything else (React[x], React?.x, React.#x,
// React.a.b as a type, implements clauses) is not a reference.
func (s scanner) classify(n *sitter.Node) (Reference, bool) {
	switch n.Type() {
	case nodeMemberExpression, nodeNestedIdentifier:
		if inMarkupName(n) {
			return s.markupAccess(n)
		}
		if n.Type() == nodeMemberExpression {
			return s.valueAccess(n)
		}
	case nodeNestedTypeIdentifier:
		return s.typeReference(n)
	}
	return Reference{}, false
}

func (s scanner) valueAccess(n *sitter.Node) (Reference, bool) {
	if isOptionalChain(n) {
		return Reference{}, false
	}
	obj := n.ChildByFieldName("object")
	prop := n.ChildByFieldName("property")
	if !s.isNamespace(obj) || prop == nil || prop.Type() != nodePropertyIdentifier {
		return Reference{}, false
	}
	return newReference(ValueAccess, prop.Content(s.src), n), true
}

func (s scanner) markupAccess(n *sitter.Node) (Reference, bool) {
	obj, prop := memberParts(n, "object", "property")
	if !s.isNamespace(obj) || prop == nil {
		return Reference{}, false
	}
	switch prop.Type() {
	case nodePropertyIdentifier, nodeIdentifier:
	default:
		return Reference{}, false
	}
	return newReference(MarkupAccess, prop.Content(s.src), n), true
}

func (s scanner) typeReference(n *sitter.Node) (Reference, bool) {
	module, name := memberParts(n, "module", "name")
	if !s.isNamespace(module) || name == nil {
		return Reference{}, false
	}
	switch name.Type() {
	case nodeTypeIdentifier, nodeIdentifier, nodePropertyIdentifier:
		// interface extends entries alias a dotted identifier to a type
		// name without retyping its last part.
	default:
		return Reference{}, false
	}
	kind, ok := typeContext(n)
	if !ok {
		return Reference{}, false
	}
	return newReference(kind, name.Content(s.src), n), true
}

// typeContext classifies a qualified type by the construct that holds it.
// A generic_type wrapping the name is looked through, so
// `extends React.Component<S>` and `Array<React.Ref<T>>` classify the same
// as their bare forms.
func typeContext(n *sitter.Node) (Kind, bool) {
	p := n.Parent()
	if p != nil && p.Type() == nodeGenericType {
		p = p.Parent()
	}
	if p == nil {
		return TypeReference, true
	}
	switch p.Type() {
	case nodeExtendsTypeClause:
		return HeritageEntry, true
	case nodeImplementsClause:
		// Class implements clauses stay qualified; the residual mention
		// keeps the namespace import.
		return 0, false
	case nodeTypeArguments:
		return GenericArgument, true
	}
	return TypeReference, true
}

func (s scanner) isNamespace(n *sitter.Node) bool {
	return n != nil && n.Type() == nodeIdentifier && n.Content(s.src) == s.ns
}

// memberParts returns the two halves of a dotted name by field, falling back
// to the two named children for grammar versions that leave them unnamed.
func memberParts(n *sitter.Node, left, right string) (*sitter.Node, *sitter.Node) {
	l, r := n.ChildByFieldName(left), n.ChildByFieldName(right)
	if l != nil && r != nil {
		return l, r
	}
	if n.NamedChildCount() != 2 {
		return nil, nil
	}
	return n.NamedChild(0), n.NamedChild(1)
}

func isOptionalChain(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		switch n.Child(i).Type() {
		case nodeOptionalChain, "?.":
			return true
		}
	}
	return false
}

// inMarkupName reports whether n is, or is the object end of, the tag name
// of a markup element.
func inMarkupName(n *sitter.Node) bool {
	for {
		p := n.Parent()
		if p == nil {
			return false
		}
		switch p.Type() {
		case nodeMemberExpression, nodeNestedIdentifier:
			n = p
			continue
		case nodeJSXOpeningElement, nodeJSXClosingElement, nodeJSXSelfClosingElement:
			name := p.ChildByFieldName("name")
			if name == nil && p.NamedChildCount() > 0 {
				name = p.NamedChild(0)
			}
			return name != nil && sameNode(name, n)
		}
		return false
	}
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// residualUse finds a mention of the namespace identifier that no reference
// covers and that is not part of an import statement, e.g. React[key],
// React?.version, `implements React.X` or passing React itself as a value.
func (s scanner) residualUse(root *sitter.Node, refs []Reference) (sitter.Point, bool) {
	covered := make(map[[2]uint32]bool, len(refs))
	for _, ref := range refs {
		covered[[2]uint32{ref.node.StartByte(), ref.node.EndByte()}] = true
	}

	var (
		found bool
		at    sitter.Point
	)
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if found || n.Type() == nodeImportStatement || covered[[2]uint32{n.StartByte(), n.EndByte()}] {
			return
		}
		switch n.Type() {
		case nodeIdentifier, nodeShorthandProperty:
			if n.Content(s.src) == s.ns {
				found, at = true, n.StartPoint()
			}
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(root)
	return at, found
}
