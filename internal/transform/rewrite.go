package transform

import (
	"fmt"

	"github.com/jward/unqualify/internal/edit"
	"github.com/jward/unqualify/internal/runtime"
)

// rewrite walks the unit a second time and queues, for every reference whose
// member was collected, a replacement of the qualified name by the bare
// member name.
func (t *Transformer) rewrite(u *runtime.Unit, members MemberSet, buf *edit.Buffer) []Rewrite {
	var done []Rewrite
	t.scanner(u).walk(u.Root(), func(ref Reference) {
		if !members.Has(ref.Kind, ref.Member) {
			return
		}
		start, end := replacedSpan(ref)
		buf.Replace(start, end, ref.Member)
		done = append(done, Rewrite{
			Kind:   ref.Kind,
			Member: ref.Member,
			Line:   ref.Line,
			Column: ref.Column,
		})
	})
	return done
}

// replacedSpan returns the bytes the bare member name replaces.
func replacedSpan(ref Reference) (int, int) {
	switch ref.Kind {
	case ValueAccess:
		// The member expression only; call arguments and explicit type
		// arguments (React.useState<number>(0)) are siblings and survive.
		return ref.span()
	case TypeReference, GenericArgument, HeritageEntry:
		// The qualified name only. A generic_type keeps its own
		// type_arguments: React.FC<Props> becomes FC<Props>.
		return ref.span()
	case MarkupAccess:
		// The tag name; attributes and children are untouched, and the
		// closing tag is a reference of its own.
		return ref.span()
	}
	panic(fmt.Sprintf("transform: unknown reference kind %d", int(ref.Kind)))
}
