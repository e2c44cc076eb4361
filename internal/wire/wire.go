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

// Package wire defines the framed JSON messages exchanged between the
// debug-adapter helper and its client: request envelopes, response bodies,
// and the event notifications that accompany startup and disassembly.
package wire

// Request is the generic envelope every incoming message decodes into
// first; Req discriminates how the remaining fields (carried in the raw
// body) are interpreted. Command is accepted as a DAP-style alias for Req.
type Request struct {
	Req     string `json:"req"`
	Command string `json:"command,omitempty"`
	Seq     uint64 `json:"seq"`
}

// Kind returns Req, falling back to Command so DAP-style clients that only
// set "command" still route correctly.
func (r Request) Kind() string {
	if r.Req != "" {
		return r.Req
	}
	return r.Command
}

// DisassembleArguments carries the parameters of a disasm/disassemble
// request, matching the debug-adapter protocol's own DisassembleArguments
// shape closely enough to convert directly.
type DisassembleArguments struct {
	MemoryReference   string `json:"memoryReference"`
	Offset            *int32 `json:"offset,omitempty"`
	InstructionOffset *int32 `json:"instructionOffset,omitempty"`
	InstructionCount  int32  `json:"instructionCount"`
	ResolveSymbols    bool   `json:"resolveSymbols,omitempty"`
}

// DisassembleRequest is the full disasm/disassemble request body.
type DisassembleRequest struct {
	Req       string                `json:"req"`
	Seq       uint64                `json:"seq"`
	Arguments DisassembleArguments  `json:"arguments"`
}

// StaticsRequest is the full statics request body.
type StaticsRequest struct {
	Req      string `json:"req"`
	Seq      uint64 `json:"seq"`
	FileName string `json:"file_name"`
}

// SymbolLookupRequest is the full symbolLookup request body. Exactly one of
// Name or Address is expected to be set.
type SymbolLookupRequest struct {
	Req      string `json:"req"`
	Seq      uint64 `json:"seq"`
	Name     string `json:"name,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Address  string `json:"address,omitempty"`
}

// SerInstruction is one disassembled instruction, using the short field
// names the wire protocol specifies to keep responses compact.
type SerInstruction struct {
	Addr        string `json:"a"`
	Bytes       string `json:"b"`
	Instruction string `json:"i"`
	FunctionID  int32  `json:"f"`
	Offset      uint32 `json:"o"`
	FileID      int32  `json:"F"`
	StartLine   int32  `json:"sl"`
	EndLine     int32  `json:"el"`
}

// DisasmResponse answers a disasm/disassemble request.
type DisasmResponse struct {
	Req          string            `json:"req"`
	Seq          uint64            `json:"seq"`
	FileTable    map[uint32]string `json:"file_table"`
	FuncTable    map[uint32]string `json:"func_table"`
	Instructions []SerInstruction  `json:"instructions"`
}

// NameAddr is a (name, address) pair shared by the globals, statics and
// symbolLookup responses.
type NameAddr [2]string

// GlobalsResponse answers a globals request.
type GlobalsResponse struct {
	Req     string     `json:"req"`
	Seq     uint64     `json:"seq"`
	Globals []NameAddr `json:"globals"`
}

// StaticsResponse answers a statics request.
type StaticsResponse struct {
	Req     string     `json:"req"`
	Seq     uint64     `json:"seq"`
	Statics []NameAddr `json:"statics"`
}

// SymbolLookupResponse answers a symbolLookup request.
type SymbolLookupResponse struct {
	Req     string     `json:"req"`
	Seq     uint64     `json:"seq"`
	Symbols []NameAddr `json:"symbols"`
}

// Envelope wraps an Event for delivery as a notification: no Seq, no
// response expected.
type Envelope struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Args    any    `json:"args"`
}

// NewEvent wraps event in the HelperEvent notification envelope.
func NewEvent(event any) Envelope {
	return Envelope{JSONRPC: "2.0", Method: "HelperEvent", Args: event}
}

// SymbolTableReady is emitted once ELF/DWARF ingestion completes.
type SymbolTableReady struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Version   int    `json:"version"`
}

// DisassemblyReady is emitted once the worker finishes annotating its
// listing with source-line information.
type DisassemblyReady struct {
	Type             string `json:"type"`
	SessionID        string `json:"session_id"`
	InstructionCount int    `json:"instruction_count"`
}

// RTTFound is emitted once ingestion completes, if the ELF symbol pass
// located the RTT control block, and always before SymbolTableReady.
type RTTFound struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Address   string `json:"address"`
}

// Progress reports long-running operation status.
type Progress struct {
	Type       string  `json:"type"`
	SessionID  string  `json:"session_id"`
	Operation  string  `json:"operation"`
	Percentage *int    `json:"percentage,omitempty"`
	Message    *string `json:"message,omitempty"`
}

// Output carries arbitrary text destined for the client's output channel.
type Output struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Category  string `json:"category"`
	Message   string `json:"message"`
}

// Error reports a non-fatal condition to the client.
type Error struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Code      *int   `json:"code,omitempty"`
	Message   string `json:"message"`
	Details   *string `json:"details,omitempty"`
}

// Log mirrors a single logger entry to the client.
type Log struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

const (
	EventSymbolTableReady = "SymbolTableReady"
	EventDisassemblyReady = "DisassemblyReady"
	EventRTTFound         = "RTTFound"
	EventProgress         = "Progress"
	EventOutput           = "Output"
	EventError            = "Error"
	EventLog              = "Log"
)
