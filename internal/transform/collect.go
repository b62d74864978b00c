package transform

import "github.com/jward/unqualify/internal/runtime"

// collect walks the unit once and gathers the distinct members reached
// through the namespace identifier, in first-seen order. Value accesses and
// markup tags feed the value set; type references, generic arguments and
// interface extends entries feed the type set. The tree is not modified.
func (t *Transformer) collect(u *runtime.Unit) (MemberSet, []Reference) {
	var (
		members MemberSet
		refs    []Reference
	)
	t.scanner(u).walk(u.Root(), func(ref Reference) {
		members.add(ref.Kind, ref.Member)
		refs = append(refs, ref)
	})
	return members, refs
}

func (t *Transformer) scanner(u *runtime.Unit) scanner {
	return scanner{ns: t.cfg.Namespace, src: u.Source}
}
