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

package asmlist_test

import (
	"strings"
	"testing"

	"github.com/jetsetilly/cmdap/internal/asmlist"
	"github.com/jetsetilly/cmdap/test"
)

const sample = `00001000:	<main>:
00001000:	00 b5  	push {lr}
00001002:	01 20  	movs r0, #1
00001004:	00 bd  	pop {pc}

00002000:	<other>:
00002000:	70 47  	bx lr
`

func TestParseBuildsBlocksAndLines(t *testing.T) {
	l, err := asmlist.Parse(strings.NewReader(sample))
	test.ExpectSuccess(t, err)

	test.Equate(t, len(l.Blocks), 2)
	test.Equate(t, l.Blocks[0].Name, "<main>")
	test.Equate(t, len(l.Blocks[0].Lines), 3)
	test.Equate(t, len(l.Lines), 4)
}

func TestParseComputesOffsetInFunction(t *testing.T) {
	l, _ := asmlist.Parse(strings.NewReader(sample))
	test.Equate(t, l.Lines[1].OffsetInFunction, uint32(2))
	test.Equate(t, l.Lines[1].FunctionID, int32(0))
}

func TestParseStripsByteWhitespace(t *testing.T) {
	l, _ := asmlist.Parse(strings.NewReader(sample))
	test.Equate(t, l.Lines[0].Bytes, "00b5")
	test.Equate(t, l.Lines[0].Instruction, "push {lr}")
}

func TestParseSourceInfoStartsUnavailable(t *testing.T) {
	l, _ := asmlist.Parse(strings.NewReader(sample))
	test.Equate(t, l.Lines[0].FileID, int32(-1))
	test.Equate(t, l.Lines[0].StartLine, int32(-1))
}

func TestGetWindowAnchorOnly(t *testing.T) {
	l, _ := asmlist.Parse(strings.NewReader(sample))
	win := l.GetWindow(0x1000, 0, 0)
	test.Equate(t, len(win), 1)
	test.Equate(t, win[0].Address, uint64(0x1000))
}

func TestGetWindowBeforeIncludesAnchorLast(t *testing.T) {
	l, _ := asmlist.Parse(strings.NewReader(sample))
	win := l.GetWindow(0x1004, 2, 0)
	test.Equate(t, len(win), 3)
	test.Equate(t, win[2].Address, uint64(0x1004))
	test.Equate(t, win[0].Address, uint64(0x1000))
}

func TestGetWindowPadsWhenInsufficientBefore(t *testing.T) {
	l, _ := asmlist.Parse(strings.NewReader(sample))
	win := l.GetWindow(0x1000, 2, 0)
	test.Equate(t, len(win), 3)
	test.Equate(t, win[0].Instruction, "<invalid instr>")
	test.Equate(t, win[0].Address, uint64(0x0ffc))
	test.Equate(t, win[2].Address, uint64(0x1000))
}

func TestGetWindowBeforeZeroIncludesAnchorFirst(t *testing.T) {
	l, _ := asmlist.Parse(strings.NewReader(sample))
	win := l.GetWindow(0x2000, 0, 3)
	test.Equate(t, len(win), 3)
	test.Equate(t, win[0].Address, uint64(0x2000))
	test.Equate(t, win[0].Instruction, "bx lr")
	test.Equate(t, win[1].Instruction, "<invalid instr>")
	test.Equate(t, win[1].Address, uint64(0x2002))
	test.Equate(t, win[2].Address, uint64(0x2004))
}

func TestGetWindowAcrossBlocks(t *testing.T) {
	l, _ := asmlist.Parse(strings.NewReader(sample))
	win := l.GetWindow(0x1004, 1, 2)
	test.Equate(t, len(win), 4)
	test.Equate(t, win[0].Address, uint64(0x1002))
	test.Equate(t, win[1].Address, uint64(0x1004))
	test.Equate(t, win[2].Address, uint64(0x2000))
	test.Equate(t, win[2].FunctionID, int32(1))
}

func TestGetWindowBeforeTargetEverything(t *testing.T) {
	l, _ := asmlist.Parse(strings.NewReader(sample))
	win := l.GetWindow(0x0010, 1, 1)
	test.Equate(t, len(win), 0)
}

func TestGetWindowReturnsIndependentCopies(t *testing.T) {
	l, _ := asmlist.Parse(strings.NewReader(sample))
	win := l.GetWindow(0x1000, 0, 0)
	win[0].Instruction = "mutated"
	test.ExpectInequality(t, l.Lines[0].Instruction, "mutated")
}

func TestBlockByIDOutOfRange(t *testing.T) {
	l, _ := asmlist.Parse(strings.NewReader(sample))
	test.ExpectSuccess(t, l.BlockByID(0) != nil)
	test.ExpectSuccess(t, l.BlockByID(5) == nil)
}
