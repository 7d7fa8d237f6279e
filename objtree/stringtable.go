// Package objtree implements the DM type hierarchy, interned string table,
// and built-in proc/var catalog described in spec §3-§4.3.
package objtree

// StringTable is an ordered, content-interned list of strings: identical
// strings always yield identical ids, and ids are dense and 0-based, per
// spec §3.
type StringTable struct {
	strings []string
	index   map[string]int
}

// NewStringTable returns an empty StringTable.
func NewStringTable() *StringTable {
	return &StringTable{index: make(map[string]int)}
}

// Intern returns s's id, assigning a fresh one the first time s is seen.
func (t *StringTable) Intern(s string) int {
	if id, ok := t.index[s]; ok {
		return id
	}
	id := len(t.strings)
	t.strings = append(t.strings, s)
	t.index[s] = id
	return id
}

// Lookup returns the string stored at id.
func (t *StringTable) Lookup(id int) (string, bool) {
	if id < 0 || id >= len(t.strings) {
		return "", false
	}
	return t.strings[id], true
}

// Len returns the number of distinct interned strings.
func (t *StringTable) Len() int {
	return len(t.strings)
}

// All returns every interned string, in id order.
func (t *StringTable) All() []string {
	out := make([]string, len(t.strings))
	copy(out, t.strings)
	return out
}
