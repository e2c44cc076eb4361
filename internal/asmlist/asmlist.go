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

// Package asmlist parses the textual output of an external disassembler
// into an ordered listing and serves address-anchored windows over it, the
// way the debug-adapter protocol's disassembly request expects.
package asmlist

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jetsetilly/cmdap/logger"
)

// instrStride is the minimum instruction size assumed when synthesising
// padding entries at the edges of a window. Cortex-M's Thumb encoding is
// 2 bytes at minimum; a port to another ISA needs this parameterised.
const instrStride = 2

// invalidInstr is the marker text placed in a synthetic, padded entry.
const invalidInstr = "<invalid instr>"

// Line is one instruction in the listing. FileID, StartLine, EndLine,
// StartColumn and EndColumn are interior-mutable: they start out -1
// ("unavailable") and are written exactly once, by the disassembly worker's
// annotation pass, after which no field changes again.
type Line struct {
	Address          uint64
	Bytes            string
	Instruction      string
	RawLine          string
	FunctionID       int32
	OffsetInFunction uint32
	FileID           int32
	StartLine        int32
	StartColumn      int32
	EndLine          int32
	EndColumn        int32
}

// Block is a named function-like span of the listing.
type Block struct {
	ID      int32
	Name    string
	Start   uint64
	Lines   []*Line
}

// Listing is the parsed disassembler output: an ordered line list, an
// address index, and the blocks (functions) those lines belong to.
type Listing struct {
	Lines   []*Line
	addrMap map[uint64]int // address -> index into Lines
	Blocks  []*Block
}

var (
	headerRe = regexp.MustCompile(`^([0-9a-f]+):\t(.+):$`)
	instrRe  = regexp.MustCompile(`^([0-9a-f]+):\t([0-9a-f \t]*)\t(.+)$`)
)

// Parse reads a disassembler's textual output and builds a Listing.
// Unrecognized lines are ignored; malformed address ordering within a block
// flushes the current block and starts an anonymous one, logging a
// diagnostic, per spec.md §4.6.
func Parse(r io.Reader) (*Listing, error) {
	l := &Listing{addrMap: make(map[uint64]int)}

	var current *Block
	nextBlockID := int32(0)

	flush := func() {
		if current != nil && len(current.Lines) > 0 {
			l.Blocks = append(l.Blocks, current)
		} else if current != nil {
			// a dropped empty block gives its id back, so that a block's id
			// stays equal to its index in Blocks
			nextBlockID = current.ID
		}
		current = nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if m := headerRe.FindStringSubmatch(line); m != nil {
			addr, err := strconv.ParseUint(m[1], 16, 64)
			if err != nil {
				logger.Logf("asmlist", "malformed function header: %q", line)
				continue
			}
			flush()
			current = &Block{ID: nextBlockID, Name: m[2], Start: addr}
			nextBlockID++
			continue
		}

		if m := instrRe.FindStringSubmatch(line); m != nil {
			addr, err := strconv.ParseUint(m[1], 16, 64)
			if err != nil {
				logger.Logf("asmlist", "malformed instruction address: %q", line)
				continue
			}

			if current == nil || addr < current.Start {
				flush()
				logger.Logf("asmlist", "instruction address %x precedes block start, starting anonymous block", addr)
				current = &Block{ID: nextBlockID, Name: "", Start: addr}
				nextBlockID++
			}

			bytes := strings.Join(strings.Fields(m[2]), "")
			instr := strings.TrimSpace(m[3])

			asmLine := &Line{
				Address:          addr,
				Bytes:            bytes,
				Instruction:      instr,
				RawLine:          line,
				FunctionID:       current.ID,
				OffsetInFunction: uint32(addr - current.Start),
				FileID:           -1,
				StartLine:        -1,
				StartColumn:      -1,
				EndLine:          -1,
				EndColumn:        -1,
			}

			l.addrMap[addr] = len(l.Lines)
			l.Lines = append(l.Lines, asmLine)
			current.Lines = append(current.Lines, asmLine)
			continue
		}

		// anything else is ignored
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return l, nil
}

// sortedAddresses returns the listing's distinct addresses in ascending
// order. Lines are appended in the order the disassembler emits them, which
// is already ascending within a well-formed listing, but the window
// operator does not rely on that assumption.
func (l *Listing) sortedAddresses() []uint64 {
	addrs := make([]uint64, 0, len(l.addrMap))
	for a := range l.addrMap {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// AddrIndex returns the listing's address-to-line-index map. Callers must
// treat it as read-only.
func (l *Listing) AddrIndex() map[uint64]int {
	return l.addrMap
}

// BlockByID returns the block with the given id, or nil if out of range.
func (l *Listing) BlockByID(id int32) *Block {
	if id < 0 || int(id) >= len(l.Blocks) {
		return nil
	}
	return l.Blocks[id]
}

func synthetic(addr uint64) *Line {
	return &Line{
		Address:     addr,
		Bytes:       "",
		Instruction: invalidInstr,
		FunctionID:  -1,
		FileID:      -1,
		StartLine:   -1,
		StartColumn: -1,
		EndLine:     -1,
		EndColumn:   -1,
	}
}

func copyLine(l *Line) *Line {
	cp := *l
	return &cp
}

// GetWindow returns exactly (before+after+1 if before>0 else after) lines
// centred on the largest listing address no greater than targetAddr, in
// strictly increasing address order; when before and after are both 0 it
// returns the anchor alone. If targetAddr precedes every address
// in the listing, an empty slice is returned. Returned lines are
// independent copies so that padding never aliases a real entry.
//
// When before > 0 the anchor is the last entry of the backward-collected
// group, at index before, and the forward group starts strictly after it.
// When before == 0 the anchor itself heads the forward group (index 0) and
// counts toward the after total, per spec.md §8 scenario B: there is no
// separate backward group to have already placed it.
func (l *Listing) GetWindow(targetAddr uint64, before, after int) []*Line {
	addrs := l.sortedAddresses()

	anchorIdx := sort.Search(len(addrs), func(i int) bool { return addrs[i] > targetAddr }) - 1
	if anchorIdx < 0 {
		return nil
	}
	anchor := addrs[anchorIdx]

	if before == 0 && after == 0 {
		// neither before nor after requested: the documented edge case is
		// to emit a single entry for the anchor rather than nothing
		return []*Line{copyLine(l.Lines[l.addrMap[anchor]])}
	}

	if before == 0 {
		collected := make([]*Line, 0, after)
		for i := anchorIdx; i < len(addrs) && len(collected) < after; i++ {
			collected = append(collected, copyLine(l.Lines[l.addrMap[addrs[i]]]))
		}
		for len(collected) < after {
			last := anchor
			if len(collected) > 0 {
				last = collected[len(collected)-1].Address
			}
			collected = append(collected, synthetic(last+instrStride))
		}
		return collected
	}

	want := before + 1
	head := make([]*Line, 0, want)
	for i := anchorIdx; i >= 0 && len(head) < want; i-- {
		head = append(head, copyLine(l.Lines[l.addrMap[addrs[i]]]))
	}
	for len(head) < want {
		smallest := head[len(head)-1].Address
		head = append(head, synthetic(smallest-instrStride))
	}
	// head is in descending address order; reverse to ascending
	for i, j := 0, len(head)-1; i < j; i, j = i+1, j-1 {
		head[i], head[j] = head[j], head[i]
	}

	var tail []*Line
	if after > 0 {
		collected := make([]*Line, 0, after)
		for i := anchorIdx + 1; i < len(addrs) && len(collected) < after; i++ {
			collected = append(collected, copyLine(l.Lines[l.addrMap[addrs[i]]]))
		}
		for len(collected) < after {
			last := anchor
			if len(collected) > 0 {
				last = collected[len(collected)-1].Address
			}
			collected = append(collected, synthetic(last+instrStride))
		}
		tail = collected
	}

	return append(head, tail...)
}
