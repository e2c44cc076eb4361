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

// Package disassembler locates and invokes the external disassembler
// subprocess the disassembly worker parses. Only the textual output
// contract (asmlist.Parse's grammar) is part of the core specification;
// the search order and process-spawning glue here are a thin, replaceable
// adapter, following the multi-directory search the teacher's
// coprocessor/objdump and coprocessor/developer/mapfile packages use to
// locate an armcode.obj/armcode.map alongside a cartridge binary.
package disassembler

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"path/filepath"

	"github.com/jetsetilly/cmdap/curated"
)

// defaultExecutable is tried when no --objdump override is supplied. Real
// Cortex-M toolchains ship this under an arm-none-eabi- prefix; callers
// targeting a different toolchain pass their own path.
const defaultExecutable = "arm-none-eabi-objdump"

// searchDirs returns the directories searched, in order, for a relative
// disassembler executable name that isn't found on PATH:
// the current working directory, the ELF's own directory, and that
// directory's main/ and main/bin/ subdirectories. This mirrors
// coprocessor/objdump.findObjDump's search order for armcode.obj.
func searchDirs(elfPath string) []string {
	dir := filepath.Dir(elfPath)
	return []string{
		".",
		dir,
		filepath.Join(dir, "main"),
		filepath.Join(dir, "main", "bin"),
	}
}

// Find resolves the disassembler executable to invoke: override if
// non-empty, else defaultExecutable. That name is looked up on PATH (or as a
// literal path) and, failing that, unless it is absolute, in each of
// searchDirs(elfPath).
func Find(override, elfPath string) (string, error) {
	candidate := override
	if candidate == "" {
		candidate = defaultExecutable
	}

	if p, err := exec.LookPath(candidate); err == nil {
		return p, nil
	}

	if filepath.IsAbs(candidate) {
		return "", curated.Errorf("disassembler: %q not found", candidate)
	}

	for _, dir := range searchDirs(elfPath) {
		p := filepath.Join(dir, candidate)
		if abs, err := exec.LookPath(p); err == nil {
			return abs, nil
		}
	}

	return "", curated.Errorf("disassembler: could not locate %q", candidate)
}

// Command is the argument shape objdump-family disassemblers accept to
// produce the "address:\tbytes\tmnemonic" / "address:\t<name>:" textual
// form asmlist.Parse expects: disassemble with source interleaving
// suppressed and symbolic function headers kept.
var Command = []string{"-d", "--no-show-raw-insn=false"}

// Process is a started disassembler subprocess: Output streams its stdout
// (feed this directly to asmlist.Parse) and Wait releases the process,
// returning any stderr text alongside a non-nil error on failure. The
// worker that spawned it owns both calls; per spec.md §7, a disassembler
// failure is worker-local and must not affect symbol-query service on the
// main path.
type Process struct {
	cmd    *exec.Cmd
	Output io.Reader
	stderr *bytes.Buffer
}

// Wait blocks until the subprocess exits, returning its stderr text as a
// diagnostic if it failed.
func (p *Process) Wait() error {
	if err := p.cmd.Wait(); err != nil {
		return curated.Errorf("disassembler: %v: %s", err, p.stderr.String())
	}
	return nil
}

// Run starts the disassembler against elfPath. The caller must read
// Output to completion before calling Wait, the same ordering os/exec
// requires of any piped Cmd.
func Run(ctx context.Context, executable, elfPath string) (*Process, error) {
	args := append(append([]string{}, Command...), elfPath)
	cmd := exec.CommandContext(ctx, executable, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, curated.Errorf("disassembler: %v", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, curated.Errorf("disassembler: %v", err)
	}

	return &Process{cmd: cmd, Output: stdout, stderr: &stderr}, nil
}
