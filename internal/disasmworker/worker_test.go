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

package disasmworker_test

import (
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/jetsetilly/cmdap/internal/disasmworker"
	"github.com/jetsetilly/cmdap/internal/frame"
	"github.com/jetsetilly/cmdap/internal/objinfo"
	"github.com/jetsetilly/cmdap/internal/wire"
	"github.com/jetsetilly/cmdap/test"
)

const sample = `00001000:	<main>:
00001000:	00 b5  	push {lr}
00001002:	01 20  	movs r0, #1
00001004:	00 bd  	pop {pc}
`

func newWorker(t *testing.T) (*disasmworker.Worker, *frame.Reader) {
	t.Helper()
	pr, pw := io.Pipe()
	w := disasmworker.New("session-1", frame.NewWriter(pw))
	test.ExpectSuccess(t, w.Start(strings.NewReader(sample)))
	return w, frame.NewReader(pr)
}

func TestStartTransitionsToAwaitingInfo(t *testing.T) {
	w, _ := newWorker(t)
	test.Equate(t, w.State(), disasmworker.StateAwaitingInfo)
}

func TestSubmitInfoEmitsDisassemblyReady(t *testing.T) {
	w, r := newWorker(t)

	info := objinfo.New()
	fileID := info.Files.Intern("/home/user/main.c")
	info.Lines.AppendOrInsert(0x1000, fileID, 10)

	w.SubmitInfo(info)

	body, err := r.ReadFrame()
	test.ExpectSuccess(t, err)

	var env struct {
		Method string `json:"method"`
		Args   struct {
			Type             string `json:"type"`
			InstructionCount int    `json:"instruction_count"`
		} `json:"args"`
	}
	test.ExpectSuccess(t, json.Unmarshal(body, &env))
	test.Equate(t, env.Args.Type, wire.EventDisassemblyReady)
	test.Equate(t, env.Args.InstructionCount, 3)
}

func TestServeAnswersDisasmRequest(t *testing.T) {
	w, r := newWorker(t)

	info := objinfo.New()
	fileID := info.Files.Intern("/home/user/main.c")
	info.Lines.AppendOrInsert(0x1000, fileID, 10)

	w.SubmitInfo(info)
	_, err := r.ReadFrame() // DisassemblyReady
	test.ExpectSuccess(t, err)

	w.Submit(disasmworker.Request{
		SessionID:        "session-1",
		Seq:              7,
		StartAddr:        0x1000,
		InstructionOffset: 0,
		InstructionCount: 2,
	})

	body, err := r.ReadFrame()
	test.ExpectSuccess(t, err)

	var resp wire.DisasmResponse
	test.ExpectSuccess(t, json.Unmarshal(body, &resp))
	test.Equate(t, resp.Seq, uint64(7))
	test.Equate(t, len(resp.Instructions), 2)
	test.Equate(t, resp.Instructions[0].StartLine, int32(10))
	test.Equate(t, resp.FileTable[fileID], "/home/user/main.c")
}

// TestServeEncodesUnprefixedHexAddresses reproduces spec.md §8 Scenario E:
// instructions[].a carries no "0x" prefix, unlike RTTFound.address and the
// globals/statics/symbolLookup NameAddr pairs.
func TestServeEncodesUnprefixedHexAddresses(t *testing.T) {
	w, r := newWorker(t)

	w.SubmitInfo(objinfo.New())
	_, err := r.ReadFrame() // DisassemblyReady
	test.ExpectSuccess(t, err)

	w.Submit(disasmworker.Request{
		SessionID:         "session-1",
		Seq:               1,
		StartAddr:         0x1002,
		InstructionOffset: -1,
		InstructionCount:  2,
	})

	body, err := r.ReadFrame()
	test.ExpectSuccess(t, err)

	var resp wire.DisasmResponse
	test.ExpectSuccess(t, json.Unmarshal(body, &resp))
	test.Equate(t, len(resp.Instructions), 2)
	test.Equate(t, resp.Instructions[0].Addr, "1000")
	test.Equate(t, resp.Instructions[1].Addr, "1002")
}
