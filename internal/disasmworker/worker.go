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

// Package disasmworker owns the assembly listing in the background: it
// parses the external disassembler's output, waits for the object info
// produced by ELF/DWARF ingestion, annotates the listing with source-line
// metadata exactly once, then services disassembly window requests one at a
// time in the order they arrive.
package disasmworker

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/jetsetilly/cmdap/internal/asmlist"
	"github.com/jetsetilly/cmdap/internal/frame"
	"github.com/jetsetilly/cmdap/internal/objinfo"
	"github.com/jetsetilly/cmdap/internal/wire"
	"github.com/jetsetilly/cmdap/logger"
)

// State is the worker's lifecycle stage.
type State int32

const (
	StateLoading State = iota
	StateAwaitingInfo
	StateAnnotating
	StateServing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "Loading"
	case StateAwaitingInfo:
		return "AwaitingInfo"
	case StateAnnotating:
		return "Annotating"
	case StateServing:
		return "Serving"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Request is a disassembly window request as converted from the wire
// protocol's DisassembleArguments, per spec.md §4.7 and §6.
type Request struct {
	SessionID        string
	Seq              uint64
	StartAddr        uint64
	InstructionOffset int32
	InstructionCount int32
}

// Worker parses an assembly listing in the background, then serves
// disassembly window requests against it once annotated with source-line
// information. The listing is owned exclusively by the worker's own
// goroutine from parse through the end of annotation; no lock is needed
// because the object-info handle arrives over a channel that is only ever
// sent to once.
type Worker struct {
	state   atomic.Int32
	listing *asmlist.Listing

	infoCh    chan *objinfo.Info
	requestCh chan Request

	out *frame.Writer

	sessionID string
}

// New creates a Worker with its channels wired up. Call Start to parse the
// listing and launch the background loop.
func New(sessionID string, out *frame.Writer) *Worker {
	w := &Worker{
		infoCh:    make(chan *objinfo.Info, 1),
		requestCh: make(chan Request, 256),
		out:       out,
		sessionID: sessionID,
	}
	w.state.Store(int32(StateLoading))
	return w
}

// State returns the worker's current lifecycle stage.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Start parses src in the calling goroutine (the listing must exist before
// anything can be served) then launches the background loop that awaits
// object info, annotates, and serves requests.
func (w *Worker) Start(src io.Reader) error {
	listing, err := asmlist.Parse(src)
	if err != nil {
		return fmt.Errorf("disasmworker: %w", err)
	}
	w.listing = listing
	w.state.Store(int32(StateAwaitingInfo))

	go w.run()

	return nil
}

// SubmitInfo delivers the shared object-info handle produced by ELF/DWARF
// ingestion. It must be called exactly once: the channel is closed after the
// first send, so a second call panics.
func (w *Worker) SubmitInfo(info *objinfo.Info) {
	w.infoCh <- info
	close(w.infoCh)
}

// Submit enqueues a disassembly request. Requests are serviced strictly in
// the order they are submitted.
func (w *Worker) Submit(req Request) {
	w.requestCh <- req
}

// Close stops accepting new requests. The background goroutine drains
// anything already queued before terminating.
func (w *Worker) Close() {
	close(w.requestCh)
}

func (w *Worker) run() {
	info, ok := <-w.infoCh
	if !ok {
		w.state.Store(int32(StateTerminated))
		return
	}

	w.state.Store(int32(StateAnnotating))
	w.annotate(info)

	w.state.Store(int32(StateServing))
	if err := w.out.WriteFrame(wire.NewEvent(wire.DisassemblyReady{
		Type:             wire.EventDisassemblyReady,
		SessionID:        w.sessionID,
		InstructionCount: len(w.listing.Lines),
	})); err != nil {
		logger.Logf("disasmworker", "writing DisassemblyReady: %v", err)
	}

	for req := range w.requestCh {
		w.serve(info, req)
	}

	w.state.Store(int32(StateTerminated))
}

// annotate performs the one-pass write of source-line metadata onto
// matching assembly lines, per spec.md §4.7. Lines with no corresponding
// address→line entry are left untouched (still "unavailable").
func (w *Worker) annotate(info *objinfo.Info) {
	for addr, idx := range w.listing.AddrIndex() {
		entry, ok := info.Lines.Get(addr)
		if !ok {
			continue
		}
		line := w.listing.Lines[idx]
		line.FileID = int32(entry.FileID)
		line.StartLine = int32(minInt(entry.Lines))
		line.EndLine = int32(maxInt(entry.Lines))
		line.StartColumn = -1
		line.EndColumn = -1
	}
}

func minInt(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxInt(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// serve answers one request: compute the window, build the file and
// function tables, encode, and write the framed response.
func (w *Worker) serve(info *objinfo.Info, req Request) {
	before := 0
	if req.InstructionOffset < 0 {
		before = int(-req.InstructionOffset)
	}
	after := int(req.InstructionCount) - before
	if before > 0 {
		// the anchor itself is returned as part of the before-group (it sits
		// at index `before`), so it already consumes one of the requested
		// instructionCount slots; asmlist.GetWindow's own before+after+1
		// contract must not be allowed to hand back one entry too many.
		after--
	}
	if after < 0 {
		after = 0
	}

	window := w.listing.GetWindow(req.StartAddr, before, after)

	fileTable := make(map[uint32]string)
	funcTable := make(map[uint32]string)
	instructions := make([]wire.SerInstruction, 0, len(window))

	for _, line := range window {
		if line.FileID >= 0 {
			id := uint32(line.FileID)
			if _, ok := fileTable[id]; !ok {
				if path, ok := info.Files.ByID(id); ok {
					fileTable[id] = path
				} else {
					fileTable[id] = fmt.Sprintf("file_%d", id)
				}
			}
		}
		if line.FunctionID >= 0 {
			id := uint32(line.FunctionID)
			if _, ok := funcTable[id]; !ok {
				if blk := w.listing.BlockByID(line.FunctionID); blk != nil {
					funcTable[id] = blk.Name
				} else {
					funcTable[id] = fmt.Sprintf("func_%d", id)
				}
			}
		}

		instructions = append(instructions, wire.SerInstruction{
			Addr:        fmt.Sprintf("%x", line.Address),
			Bytes:       line.Bytes,
			Instruction: line.Instruction,
			FunctionID:  line.FunctionID,
			Offset:      line.OffsetInFunction,
			FileID:      line.FileID,
			StartLine:   line.StartLine,
			EndLine:     line.EndLine,
		})
	}

	resp := wire.DisasmResponse{
		Req:          "disasm",
		Seq:          req.Seq,
		FileTable:    fileTable,
		FuncTable:    funcTable,
		Instructions: instructions,
	}

	if err := w.out.WriteFrame(resp); err != nil {
		logger.Logf("disasmworker", "writing disasm response: %v", err)
	}
}
