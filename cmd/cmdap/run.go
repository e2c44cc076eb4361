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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jetsetilly/cmdap/curated"
	"github.com/jetsetilly/cmdap/internal/disassembler"
	"github.com/jetsetilly/cmdap/internal/disasmworker"
	"github.com/jetsetilly/cmdap/internal/dispatcher"
	"github.com/jetsetilly/cmdap/internal/elfdwarf"
	"github.com/jetsetilly/cmdap/internal/frame"
	"github.com/jetsetilly/cmdap/internal/wire"
	"github.com/jetsetilly/cmdap/logger"
)

// verbosePermission allows logging only when --verbose is set, matching the teacher's
// AllowLogging permission-object pattern rather than a bare boolean.
type verbosePermission bool

func (v verbosePermission) AllowLogging() bool { return bool(v) }

// verboseLog is the perm-gated logger spawnAndParse reports subprocess
// failures through, matching the teacher's own instance-based
// "log.Log(perm, tag, detail)" call pattern rather than the package-level
// convenience functions, which carry no Permission parameter.
var verboseLog = logger.NewLogger(1000)

// run wires together the ELF/DWARF ingester, the disassembly worker, and
// the request dispatcher, then services framed requests from stdin until
// EOF. It implements the startup control flow of spec.md §2: ingestion and
// the worker's disassembler subprocess proceed concurrently; once ingestion
// finishes, RTTFound (if applicable) then SymbolTableReady are emitted and
// the object info handle is handed to the worker; the worker emits
// DisassemblyReady once annotation completes and begins serving.
func run(ctx context.Context, elfPath, objdumpOverride string, verbose bool) error {
	sessionID := newSessionID()
	out := frame.NewWriter(os.Stdout)
	perm := verbosePermission(verbose)

	worker := disasmworker.New(sessionID, out)
	go spawnAndParse(ctx, worker, perm, objdumpOverride, elfPath)

	result, err := elfdwarf.Open(elfPath)
	if err != nil {
		return curated.Errorf("cmdap: %v", err)
	}
	result.Info.Finalize()

	if result.RTTFound {
		if werr := out.WriteFrame(wire.NewEvent(wire.RTTFound{
			Type:      wire.EventRTTFound,
			SessionID: sessionID,
			Address:   fmt.Sprintf("0x%x", result.RTTSymbolAddress),
		})); werr != nil {
			logger.Logf("cmdap", "writing RTTFound: %v", werr)
		}
	}

	if werr := out.WriteFrame(wire.NewEvent(wire.SymbolTableReady{
		Type:      wire.EventSymbolTableReady,
		SessionID: sessionID,
		Version:   1,
	})); werr != nil {
		logger.Logf("cmdap", "writing SymbolTableReady: %v", werr)
	}

	// SymbolTableReady is emitted as soon as object-info is finalized,
	// regardless of whether the worker has consumed it yet (spec.md §5).
	worker.SubmitInfo(result.Info)

	d := dispatcher.New(sessionID, result.Info, worker, out)

	in := frame.NewReader(os.Stdin)
	for {
		body, rerr := in.ReadFrame()
		if rerr != nil {
			if rerr != io.EOF {
				logger.Logf("cmdap", "reading request: %v", rerr)
			}
			break
		}
		d.Dispatch(body)
	}

	worker.Close()
	return nil
}

// spawnAndParse locates and runs the disassembler subprocess, handing its
// stdout to the worker for parsing. Any failure here — the executable
// can't be found, can't be started, or exits with an error — is
// worker-local per spec.md §5's cancellation policy ("subprocess failure at
// the disassembler aborts only the worker"): it is logged and the worker is
// still started against an empty listing so SubmitInfo has somewhere to
// land and symbol queries keep working.
func spawnAndParse(ctx context.Context, worker *disasmworker.Worker, perm verbosePermission, objdumpOverride, elfPath string) {
	exe, err := disassembler.Find(objdumpOverride, elfPath)
	if err != nil {
		verboseLog.Log(perm, "cmdap", err)
		startEmpty(worker)
		return
	}

	proc, err := disassembler.Run(ctx, exe, elfPath)
	if err != nil {
		verboseLog.Log(perm, "cmdap", err)
		startEmpty(worker)
		return
	}

	if serr := worker.Start(proc.Output); serr != nil {
		verboseLog.Log(perm, "cmdap", serr)
		_ = proc.Wait()
		startEmpty(worker)
		return
	}

	if werr := proc.Wait(); werr != nil {
		verboseLog.Log(perm, "cmdap", werr)
	}
}

// startEmpty starts the worker against an empty listing so that SubmitInfo
// still has a worker goroutine to hand the object info to; every
// disassembly request is answered with an empty instruction list, since no
// listed address can anchor a window.
func startEmpty(worker *disasmworker.Worker) {
	if err := worker.Start(strings.NewReader("")); err != nil {
		logger.Logf("cmdap", "starting empty listing: %v", err)
	}
}
