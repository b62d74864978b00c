package transform

// orderedSet is a set of names that remembers insertion order.
type orderedSet struct {
	names []string
	index map[string]struct{}
}

func (s *orderedSet) add(name string) {
	if _, ok := s.index[name]; ok {
		return
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	s.index[name] = struct{}{}
	s.names = append(s.names, name)
}

func (s orderedSet) has(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s orderedSet) list() []string {
	if len(s.names) == 0 {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// MemberSet holds the distinct member names reached through the namespace
// identifier in one unit, split into value members and type members.
// Membership is by name only: every React.useState in a unit maps to the
// same useState binding.
//
// A MemberSet is built once by the collector and read-only afterwards.
type MemberSet struct {
	values orderedSet
	types  orderedSet
}

func (m *MemberSet) add(kind Kind, name string) {
	if kind.IsType() {
		m.types.add(name)
		return
	}
	m.values.add(name)
}

// Values returns the value members in first-seen order.
func (m MemberSet) Values() []string { return m.values.list() }

// Types returns the type members in first-seen order.
func (m MemberSet) Types() []string { return m.types.list() }

// Has reports whether name is in the set consulted for references of kind.
func (m MemberSet) Has(kind Kind, name string) bool {
	if kind.IsType() {
		return m.types.has(name)
	}
	return m.values.has(name)
}

// Empty reports whether no members of either kind were collected.
func (m MemberSet) Empty() bool {
	return len(m.values.names) == 0 && len(m.types.names) == 0
}
