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

package objinfo_test

import (
	"testing"

	"github.com/jetsetilly/cmdap/internal/objinfo"
	"github.com/jetsetilly/cmdap/internal/symtab"
	"github.com/jetsetilly/cmdap/test"
)

func TestFinalizeSortsGlobals(t *testing.T) {
	info := objinfo.New()
	info.GlobalSymbols = []*symtab.Symbol{
		{Name: "zeta"},
		{Name: "alpha"},
		{Name: "mid"},
	}
	info.Finalize()

	got := []string{info.GlobalSymbols[0].Name, info.GlobalSymbols[1].Name, info.GlobalSymbols[2].Name}
	test.Equate(t, got, []string{"alpha", "mid", "zeta"})
}

func TestFinalizeSortsStaticsPerFile(t *testing.T) {
	info := objinfo.New()
	info.StaticSymbols["main.c"] = []*symtab.Symbol{
		{Name: "b_counter"},
		{Name: "a_counter"},
	}
	info.Finalize()

	got := []string{info.StaticSymbols["main.c"][0].Name, info.StaticSymbols["main.c"][1].Name}
	test.Equate(t, got, []string{"a_counter", "b_counter"})
}

func TestNewInitialisesSubsystems(t *testing.T) {
	info := objinfo.New()
	test.ExpectSuccess(t, info.Files != nil)
	test.ExpectSuccess(t, info.ELFSymbols != nil)
	test.ExpectSuccess(t, info.DWARFSymbols != nil)
	test.ExpectSuccess(t, info.Lines != nil)
	test.ExpectSuccess(t, info.StaticSymbols != nil)
	test.ExpectFailure(t, info.RTTFound)
}
