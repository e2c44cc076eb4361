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

// Package lineindex maps an instruction address to the source file and line
// numbers the DWARF line program associated with it.
package lineindex

// Entry is the value side of the index: a file id and every line number the
// line program recorded against one address.
type Entry struct {
	FileID uint32
	Lines  []int
}

// Index maps address to Entry.
type Index struct {
	entries map[uint64]*Entry
}

// New creates an empty index.
func New() *Index {
	return &Index{entries: make(map[uint64]*Entry)}
}

// AppendOrInsert records a statement-row observation. If addr has not been
// seen before, a new entry is created with fileID and line. If addr has been
// seen, line is appended to the existing entry's Lines (duplicates allowed)
// and fileID is discarded: the file id recorded on first sight is retained
// for the lifetime of the index. This is deliberate, observed behaviour
// rather than an accident of implementation; a later DWARF row naming the
// same address under a different file id is assumed to be the same logical
// line re-stated by the compiler, not a genuine move to another file.
func (idx *Index) AppendOrInsert(addr uint64, fileID uint32, line int) {
	if e, ok := idx.entries[addr]; ok {
		e.Lines = append(e.Lines, line)
		return
	}
	idx.entries[addr] = &Entry{FileID: fileID, Lines: []int{line}}
}

// Get returns the entry recorded at addr, if any.
func (idx *Index) Get(addr uint64) (*Entry, bool) {
	e, ok := idx.entries[addr]
	return e, ok
}

// Len returns the number of distinct addresses recorded.
func (idx *Index) Len() int {
	return len(idx.entries)
}
