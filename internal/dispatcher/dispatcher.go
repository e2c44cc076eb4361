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

// Package dispatcher decodes incoming framed requests and routes them
// either to an in-process handler (globals, statics, symbolLookup) or to
// the disassembly worker's request channel, per spec.md §4.8.
package dispatcher

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jetsetilly/cmdap/internal/canon"
	"github.com/jetsetilly/cmdap/internal/disasmworker"
	"github.com/jetsetilly/cmdap/internal/frame"
	"github.com/jetsetilly/cmdap/internal/objinfo"
	"github.com/jetsetilly/cmdap/internal/symtab"
	"github.com/jetsetilly/cmdap/internal/wire"
	"github.com/jetsetilly/cmdap/logger"
)

// Dispatcher fans incoming request bodies out to their handlers. It is
// single-threaded: Dispatch is expected to be called from one reader loop
// on the main thread, matching the "main: blocking reads on the input
// channel" scheduling model of spec.md §5.
type Dispatcher struct {
	sessionID string
	info      *objinfo.Info
	worker    *disasmworker.Worker
	out       *frame.Writer
}

// New creates a Dispatcher that answers globals/statics/symbolLookup
// directly from info and forwards disasm/disassemble requests to worker.
func New(sessionID string, info *objinfo.Info, worker *disasmworker.Worker, out *frame.Writer) *Dispatcher {
	return &Dispatcher{sessionID: sessionID, info: info, worker: worker, out: out}
}

// Dispatch decodes one request body and routes it. Unknown req values are
// logged and produce no response, per spec.md §4.8. A malformed body is a
// DispatchSoft error: logged and dropped, never fatal to the dispatch loop.
func (d *Dispatcher) Dispatch(body []byte) {
	var req wire.Request
	if err := json.Unmarshal(body, &req); err != nil {
		logger.Logf("dispatcher", "malformed request: %v", err)
		return
	}

	switch req.Kind() {
	case "disasm", "disassemble":
		d.dispatchDisasm(body)
	case "globals":
		d.dispatchGlobals(req.Seq)
	case "statics":
		d.dispatchStatics(body)
	case "symbolLookup":
		d.dispatchSymbolLookup(body)
	default:
		logger.Logf("dispatcher", "unrecognised req %q", req.Kind())
	}
}

// parseHex parses a "0x"-prefixed or bare hexadecimal address string.
func parseHex(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return strconv.ParseUint(s, 16, 64)
}

func (d *Dispatcher) dispatchDisasm(body []byte) {
	var dreq wire.DisassembleRequest
	if err := json.Unmarshal(body, &dreq); err != nil {
		logger.Logf("dispatcher", "malformed disasm request: %v", err)
		return
	}

	base, err := parseHex(dreq.Arguments.MemoryReference)
	if err != nil {
		logger.Logf("dispatcher", "malformed memoryReference %q: %v", dreq.Arguments.MemoryReference, err)
		return
	}

	startAddr := base
	if dreq.Arguments.Offset != nil {
		startAddr = uint64(int64(base) + int64(*dreq.Arguments.Offset))
	}

	var instrOffset int32
	if dreq.Arguments.InstructionOffset != nil {
		instrOffset = *dreq.Arguments.InstructionOffset
	}

	d.worker.Submit(disasmworker.Request{
		SessionID:         d.sessionID,
		Seq:               dreq.Seq,
		StartAddr:         startAddr,
		InstructionOffset: instrOffset,
		InstructionCount:  dreq.Arguments.InstructionCount,
	})
}

func (d *Dispatcher) dispatchGlobals(seq uint64) {
	resp := wire.GlobalsResponse{
		Req:     "globals",
		Seq:     seq,
		Globals: nameAddrs(d.info.GlobalSymbols),
	}
	d.write(resp)
}

func (d *Dispatcher) dispatchStatics(body []byte) {
	var sreq wire.StaticsRequest
	if err := json.Unmarshal(body, &sreq); err != nil {
		logger.Logf("dispatcher", "malformed statics request: %v", err)
		return
	}

	cp := canon.Path(sreq.FileName)
	resp := wire.StaticsResponse{
		Req:     "statics",
		Seq:     sreq.Seq,
		Statics: nameAddrs(d.info.StaticSymbols[cp]),
	}
	d.write(resp)
}

func (d *Dispatcher) dispatchSymbolLookup(body []byte) {
	var lreq wire.SymbolLookupRequest
	if err := json.Unmarshal(body, &lreq); err != nil {
		logger.Logf("dispatcher", "malformed symbolLookup request: %v", err)
		return
	}

	var syms []*symtab.Symbol

	if lreq.Name != "" {
		if sym, ok := d.info.ELFSymbols.GetByName(lreq.Name); ok {
			syms = append(syms, sym)
		}
	} else if lreq.Address != "" {
		addr, err := parseHex(lreq.Address)
		if err != nil {
			logger.Logf("dispatcher", "malformed symbolLookup address %q: %v", lreq.Address, err)
			return
		}
		syms = d.info.ELFSymbols.LookupRange(addr, addr+1)
	}

	resp := wire.SymbolLookupResponse{
		Req:     "symbolLookup",
		Seq:     lreq.Seq,
		Symbols: nameAddrs(syms),
	}
	d.write(resp)
}

func nameAddrs(syms []*symtab.Symbol) []wire.NameAddr {
	out := make([]wire.NameAddr, 0, len(syms))
	for _, s := range syms {
		out = append(out, wire.NameAddr{s.Name, "0x" + strconv.FormatUint(s.Address, 16)})
	}
	return out
}

func (d *Dispatcher) write(v any) {
	if err := d.out.WriteFrame(v); err != nil {
		logger.Logf("dispatcher", "writing response: %v", err)
	}
}
