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

// Package fileset interns canonical source file paths as small integer
// ids, the way the disassembly listing and the DWARF line program both
// want to refer to a file without repeating its full path.
package fileset

import "github.com/jetsetilly/cmdap/internal/canon"

// Unknown is the reserved id meaning "no file". It is never allocated by
// Intern.
const Unknown uint32 = 0

// Set is a bijection between canonical path and a dense, never-reused
// integer id starting at 1.
type Set struct {
	byPath map[string]uint32
	byID   []string // byID[0] is unused; ids start at 1
}

// New creates an empty file set.
func New() *Set {
	return &Set{
		byPath: make(map[string]uint32),
		byID:   []string{""},
	}
}

// Intern canonicalises path and returns its id, allocating a new one if
// this is the first time the canonical form has been seen.
func (s *Set) Intern(path string) uint32 {
	cp := canon.Path(path)

	if id, ok := s.byPath[cp]; ok {
		return id
	}

	id := uint32(len(s.byID))
	s.byID = append(s.byID, cp)
	s.byPath[cp] = id
	return id
}

// ByID returns the canonical path for id, and whether it was found.
func (s *Set) ByID(id uint32) (string, bool) {
	if id == Unknown || int(id) >= len(s.byID) {
		return "", false
	}
	return s.byID[id], true
}

// ByPath returns the id for the canonical form of path, and whether it was
// found. path is canonicalised before lookup so callers need not do so
// themselves.
func (s *Set) ByPath(path string) (uint32, bool) {
	id, ok := s.byPath[canon.Path(path)]
	return id, ok
}
