// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

// Package symtab indexes the symbols recovered from an object file, by
// starting address and by name, the way both the ELF symbol table and the
// DWARF top-level DIE pass need to look a symbol up.
package symtab

import "sort"

// Kind distinguishes a function symbol from a data symbol.
type Kind int

const (
	KindUnknown Kind = iota
	KindFunction
	KindData
)

// Scope distinguishes a symbol visible outside its compilation unit from one
// local to it.
type Scope int

const (
	ScopeUnknown Scope = iota
	ScopeGlobal
	ScopeStatic
)

// Symbol is a named, sized location in the object file. Symbols are shared by
// pointer: the same *Symbol may be reachable from both the ELF-derived and
// the DWARF-derived store, since DWARF frequently borrows an ELF symbol's
// address and size rather than owning its own.
type Symbol struct {
	Name    string
	Address uint64
	Size    uint64
	Kind    Kind
	Scope   Scope
}

// contains reports whether addr falls within the symbol's extent, using the
// zero-size "single point" rule documented on Table.Lookup.
func (s *Symbol) contains(addr uint64) bool {
	if s.Size > 0 {
		return addr < s.Address+s.Size
	}
	return addr == s.Address
}

// Table indexes a set of symbols by starting address and by name. The
// address index is kept sorted so Lookup and LookupRange run in O(log N).
type Table struct {
	byAddr []*Symbol // sorted by Address; rebuilt lazily after Insert
	byName map[string]*Symbol
	dirty  bool
}

// New creates an empty symbol table.
func New() *Table {
	return &Table{byName: make(map[string]*Symbol)}
}

// Insert adds sym to the table. On a duplicate starting address the latest
// insertion wins the address index; both symbols remain reachable by name
// unless they also share a name, in which case the name index keeps the
// latest one too. This matches the aliasing DWARF produces around a single
// ELF symbol.
func (t *Table) Insert(sym *Symbol) {
	t.byAddr = append(t.byAddr, sym)
	t.byName[sym.Name] = sym
	t.dirty = true
}

func (t *Table) ensureSorted() {
	if !t.dirty {
		return
	}
	// Stable so that among equal addresses the last-inserted symbol stays
	// last; Lookup then reports it, matching the documented "latest wins"
	// rule for duplicate starting addresses.
	sort.SliceStable(t.byAddr, func(i, j int) bool {
		return t.byAddr[i].Address < t.byAddr[j].Address
	})
	t.dirty = false
}

// Lookup returns the symbol with the largest starting address no greater
// than addr, provided addr falls within that symbol's extent: either
// size > 0 and addr < start+size, or size == 0 and addr == start.
func (t *Table) Lookup(addr uint64) (*Symbol, bool) {
	t.ensureSorted()

	i := sort.Search(len(t.byAddr), func(i int) bool {
		return t.byAddr[i].Address > addr
	})
	if i == 0 {
		return nil, false
	}
	sym := t.byAddr[i-1]
	if !sym.contains(addr) {
		return nil, false
	}
	return sym, true
}

// GetByName returns the symbol registered under name, if any.
func (t *Table) GetByName(name string) (*Symbol, bool) {
	sym, ok := t.byName[name]
	return sym, ok
}

// LookupRange returns the union of Lookup(lo) with every symbol whose
// starting address falls in [lo, hi).
func (t *Table) LookupRange(lo, hi uint64) []*Symbol {
	t.ensureSorted()

	var out []*Symbol
	seen := make(map[*Symbol]bool)

	if sym, ok := t.Lookup(lo); ok {
		out = append(out, sym)
		seen[sym] = true
	}

	start := sort.Search(len(t.byAddr), func(i int) bool {
		return t.byAddr[i].Address >= lo
	})
	for _, sym := range t.byAddr[start:] {
		if sym.Address >= hi {
			break
		}
		if !seen[sym] {
			out = append(out, sym)
			seen[sym] = true
		}
	}

	return out
}

// Len returns the number of entries in the address index, counting
// duplicate addresses once each.
func (t *Table) Len() int {
	return len(t.byAddr)
}
