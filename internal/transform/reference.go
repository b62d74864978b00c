package transform

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Kind is the syntactic category of a qualified reference. The set is
// closed: every handler switches over all five.
type Kind int

const (
	// ValueAccess is a member-access expression: React.useState(0).
	ValueAccess Kind = iota
	// TypeReference is a qualified type: let n: React.ReactNode.
	TypeReference
	// GenericArgument is a qualified type in a type-argument slot:
	// Array<React.ReactNode>.
	GenericArgument
	// MarkupAccess is a qualified markup tag: <React.Fragment>.
	MarkupAccess
	// HeritageEntry is a qualified interface extends entry:
	// interface P extends React.Component<S>.
	HeritageEntry
)

var kindNames = [...]string{
	ValueAccess:     "value",
	TypeReference:   "type",
	GenericArgument: "generic-argument",
	MarkupAccess:    "markup",
	HeritageEntry:   "heritage",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsType reports whether members reached through references of kind k are
// bound by the type-only import. Markup tags share the value namespace.
func (k Kind) IsType() bool {
	switch k {
	case TypeReference, GenericArgument, HeritageEntry:
		return true
	case ValueAccess, MarkupAccess:
		return false
	}
	panic(fmt.Sprintf("transform: unknown reference kind %d", int(k)))
}

// Reference is one occurrence of Namespace.Member in a unit.
type Reference struct {
	Kind   Kind
	Member string
	Line   int // 1-based
	Column int // 1-based, in bytes

	// node is the qualified name itself. For generic type references this
	// is the name child of the generic_type, so the type arguments that
	// follow it are outside the replaced span.
	node *sitter.Node
}

// span returns the byte range a rewrite of r replaces.
func (r Reference) span() (int, int) {
	return int(r.node.StartByte()), int(r.node.EndByte())
}

func newReference(kind Kind, member string, node *sitter.Node) Reference {
	pt := node.StartPoint()
	return Reference{
		Kind:   kind,
		Member: member,
		Line:   int(pt.Row) + 1,
		Column: int(pt.Column) + 1,
		node:   node,
	}
}

// Rewrite records one reference the rewriter replaced.
type Rewrite struct {
	Kind   Kind
	Member string
	Line   int
	Column int
}
