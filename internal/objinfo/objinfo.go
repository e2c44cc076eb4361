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

// Package objinfo aggregates everything the ELF/DWARF ingester recovers
// about one object file into a single immutable, shared-ownership handle.
package objinfo

import (
	"sort"

	"github.com/jetsetilly/cmdap/internal/fileset"
	"github.com/jetsetilly/cmdap/internal/lineindex"
	"github.com/jetsetilly/cmdap/internal/symtab"
)

// Region is a named, sized range of memory recovered from an ELF section
// with a non-zero size.
type Region struct {
	Name  string
	Start uint64
	Size  uint64
	Align uint64
}

// Info is produced once, by the ingester, and from that point on is shared
// read-only between the main ingestion path and the disassembly worker. No
// field is ever mutated after construction; callers that need a mutable
// working copy of a symbol should make one rather than writing through this
// structure.
type Info struct {
	Files *fileset.Set

	ELFSymbols  *symtab.Table
	DWARFSymbols *symtab.Table
	Lines       *lineindex.Index

	Regions []Region

	// GlobalSymbols and StaticSymbols are sorted lexicographically by name
	// during Finalize, per spec.md §4.5 step 6.
	GlobalSymbols []*symtab.Symbol
	StaticSymbols map[string][]*symtab.Symbol // keyed by source file of the compilation unit

	RTTSymbolAddress uint64
	RTTFound         bool
}

// New creates an empty Info ready for the ingester to populate.
func New() *Info {
	return &Info{
		Files:         fileset.New(),
		ELFSymbols:    symtab.New(),
		DWARFSymbols:  symtab.New(),
		Lines:         lineindex.New(),
		StaticSymbols: make(map[string][]*symtab.Symbol),
	}
}

// Finalize sorts GlobalSymbols and every entry of StaticSymbols
// lexicographically by name. Call this once, after ingestion completes and
// before the Info is shared with any other goroutine.
func (info *Info) Finalize() {
	sort.Slice(info.GlobalSymbols, func(i, j int) bool {
		return info.GlobalSymbols[i].Name < info.GlobalSymbols[j].Name
	})
	for _, syms := range info.StaticSymbols {
		sort.Slice(syms, func(i, j int) bool {
			return syms[i].Name < syms[j].Name
		})
	}
}
