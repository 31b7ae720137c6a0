// Package rules models the allowed-direct-imports option: a table mapping a
// dotted module name to the members that may be imported from it directly.
package rules

import (
	"maps"
	"slices"
	"strings"
)

// Wildcard is the member token that matches every member of a module.
const Wildcard = "*"

// MemberSet is a set of member names of one module. It may contain [Wildcard].
type MemberSet map[string]struct{}

// Has reports whether name is in the set. It does not expand [Wildcard].
func (ms MemberSet) Has(name string) bool {
	_, ok := ms[name]

	return ok
}

// Matches reports whether name is in the set or the set holds [Wildcard].
func (ms MemberSet) Matches(name string) bool {
	return ms.Has(name) || ms.Has(Wildcard)
}

// Sorted returns the members in lexical order.
func (ms MemberSet) Sorted() []string {
	return slices.Sorted(maps.Keys(ms))
}

// RuleSet maps module names to their member sets. A RuleSet is immutable after
// [Parse] returns it and is safe for concurrent readers.
type RuleSet struct {
	modules map[string]MemberSet
}

// Empty returns a RuleSet without any module.
func Empty() *RuleSet {
	return &RuleSet{modules: map[string]MemberSet{}}
}

// Has reports whether module has an entry.
func (rs *RuleSet) Has(module string) bool {
	if rs == nil {
		return false
	}

	_, ok := rs.modules[module]

	return ok
}

// Members returns the member set of module. Absent modules yield an empty set.
func (rs *RuleSet) Members(module string) MemberSet {
	if rs == nil {
		return MemberSet{}
	}

	ms, ok := rs.modules[module]
	if !ok {
		return MemberSet{}
	}

	return ms
}

// Exempts reports whether member of module is listed, directly or through [Wildcard].
func (rs *RuleSet) Exempts(module, member string) bool {
	return rs.Members(module).Matches(member)
}

// Modules returns all module names in lexical order.
func (rs *RuleSet) Modules() []string {
	if rs == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(rs.modules))
}

// Len returns the number of modules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}

	return len(rs.modules)
}

// Equal reports whether both sets hold the same modules and members.
func (rs *RuleSet) Equal(other *RuleSet) bool {
	if rs.Len() != other.Len() {
		return false
	}

	for module, members := range rs.all() {
		if !other.Has(module) || !maps.Equal(members, other.Members(module)) {
			return false
		}
	}

	return true
}

// String renders the canonical option value: modules sorted, modules with more
// than one member brace-grouped. Parsing the result yields an equal RuleSet.
func (rs *RuleSet) String() string {
	var sb strings.Builder

	for i, module := range rs.Modules() {
		if i > 0 {
			sb.WriteByte(entrySeparator)
		}

		members := rs.modules[module].Sorted()

		sb.WriteString(module)

		if len(members) == 1 {
			sb.WriteByte('.')
			sb.WriteString(members[0])

			continue
		}

		sb.WriteString(groupOpen)
		sb.WriteString(strings.Join(members, string(entrySeparator)))
		sb.WriteString(groupClose)
	}

	return sb.String()
}

func (rs *RuleSet) all() map[string]MemberSet {
	if rs == nil {
		return nil
	}

	return rs.modules
}

func (rs *RuleSet) add(module string, members ...string) {
	ms, ok := rs.modules[module]
	if !ok {
		ms = make(MemberSet, len(members))
		rs.modules[module] = ms
	}

	for _, m := range members {
		ms[m] = struct{}{}
	}
}
