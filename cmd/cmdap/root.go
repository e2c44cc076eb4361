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
	"crypto/rand"
	"encoding/hex"

	"github.com/spf13/cobra"

	"github.com/jetsetilly/cmdap/logger"
)

var (
	flagObjdump string
	flagVerbose bool
)

// rootCmd is the entire CLI surface: one positional ELF path argument plus
// the --objdump override and --verbose logging switches named in
// SPEC_FULL.md §4. Argument parsing beyond this is out of scope.
var rootCmd = &cobra.Command{
	Use:   "cmdap <elf-path>",
	Short: "Cortex-M debug-adapter helper process",
	Args:  cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), args[0], flagObjdump, flagVerbose)
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagObjdump, "objdump", "", "path to the disassembler executable (default: arm-none-eabi-objdump, searched per the usual convention)")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log disassembler subprocess failures to the in-process log; no log entry is sent to the client")
}

// Execute runs the root command and translates the result to a process exit
// status: 0 on clean shutdown (a closed input channel), non-zero on
// StartupFatal.
func Execute() int {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Logf("cmdap", "%v", err)
		return 1
	}
	return 0
}

// newSessionID generates a short random session identifier. A session ID is
// not meaningful across process restarts, so a failure of the entropy
// source is not worth treating as StartupFatal: fall back to a fixed
// placeholder rather than aborting the whole helper over it.
func newSessionID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "session"
	}
	return hex.EncodeToString(buf[:])
}
