package interp

import "github.com/tracevm/tracevm/internal/value"

// InternTable assigns stable ids to strings, satisfying value.InternTable
// so Character coercions can round-trip through it. It lives on the
// Thread (spec.md section 9: "the string intern table... live[s] inside
// the Thread object").
type InternTable struct {
	ids     map[string]int32
	strings []string
}

// NewInternTable creates an InternTable. Id 0 is reserved for the empty
// string up front, matching spec.md section 3's "empty string is
// distinguished" (it is a normal, valid Character value, not NA).
func NewInternTable() *InternTable {
	t := &InternTable{ids: make(map[string]int32)}
	t.Intern("")
	return t
}

// Intern returns the id for s, assigning a new one if s has not been seen.
func (t *InternTable) Intern(s string) int32 {
	if id, ok := t.ids[s]; ok {
		return id
	}
	id := int32(len(t.strings))
	t.ids[s] = id
	t.strings = append(t.strings, s)
	return id
}

// String returns the string for id, or "" (plus false observable only via
// Lookup) if id is out of range.
func (t *InternTable) String(id int32) string {
	if id == value.CharacterNA || int(id) < 0 || int(id) >= len(t.strings) {
		return ""
	}
	return t.strings[id]
}

// Lookup returns the id for s and whether s has already been interned,
// without interning it as a side effect.
func (t *InternTable) Lookup(s string) (int32, bool) {
	id, ok := t.ids[s]
	return id, ok
}

var _ value.InternTable = (*InternTable)(nil)
