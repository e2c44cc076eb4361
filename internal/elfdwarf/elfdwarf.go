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

// Package elfdwarf loads an ELF object file and its DWARF debug data,
// producing an immutable objinfo.Info. Opening and parsing the object file
// is fatal to startup if it fails; everything past that point is treated as
// best-effort, following the degrade-gracefully policy for DWARF absence and
// per-DIE extraction errors.
package elfdwarf

import (
	"bytes"
	"debug/dwarf"
	"debug/elf"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/ianlancetaylor/demangle"

	"github.com/jetsetilly/cmdap/curated"
	"github.com/jetsetilly/cmdap/internal/canon"
	"github.com/jetsetilly/cmdap/internal/objinfo"
	"github.com/jetsetilly/cmdap/internal/symtab"
	"github.com/jetsetilly/cmdap/logger"
)

// rttNames are the two symbol spellings real SEGGER RTT distributions emit,
// depending on the linker script used.
var rttNames = map[string]bool{
	"_SEGGER_RTT": true,
	"SEGGER_RTT":  true,
}

// Result is what Open returns: the populated object info plus whatever the
// RTT detection step found, so the caller can emit an RTTFound event without
// reaching back into Info's internals.
type Result struct {
	Info             *objinfo.Info
	RTTSymbolAddress uint64
	RTTFound         bool
}

// Open memory-maps path, parses its ELF headers and symbol table, then
// attempts to load DWARF debug information. A failure to open or parse the
// ELF itself is fatal and returned as a curated error; DWARF absence is not
// an error at all, and per-unit or per-DIE problems are logged and skipped.
func Open(path string) (*Result, error) {
	f, err := openMapped(path)
	if err != nil {
		return nil, curated.Errorf("elfdwarf: %v", err)
	}
	defer f.Close()

	ef, err := elf.NewFile(f.reader())
	if err != nil {
		return nil, curated.Errorf("elfdwarf: not a valid ELF file: %v", err)
	}
	defer ef.Close()

	info := objinfo.New()

	loadSections(info, ef)

	result := &Result{Info: info}
	loadELFSymbols(info, ef, result)

	dwrf, err := ef.DWARF()
	if err != nil {
		logger.Logf("elfdwarf", "no usable DWARF data: %v", err)
		info.Finalize()
		return result, nil
	}

	loadDWARF(info, dwrf)
	info.Finalize()

	return result, nil
}

// mappedFile owns the memory mapping for the lifetime of Open.
type mappedFile struct {
	m mmap.MMap
}

func openMapped(path string) (*mappedFile, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	m, err := mmap.Map(fh, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return &mappedFile{m: m}, nil
}

func (f *mappedFile) reader() *bytes.Reader {
	return bytes.NewReader(f.m)
}

func (f *mappedFile) Close() error {
	return f.m.Unmap()
}

// loadSections appends a memory region for every section with a non-zero
// size, per spec.md §4.5 step 2.
func loadSections(info *objinfo.Info, ef *elf.File) {
	for _, s := range ef.Sections {
		if s.Size == 0 {
			continue
		}
		info.Regions = append(info.Regions, objinfo.Region{
			Name:  s.Name,
			Start: s.Addr,
			Size:  s.Size,
			Align: s.Addralign,
		})
	}
}

// loadELFSymbols fills the ELF symbol store and detects the RTT control
// block symbol, per spec.md §4.5 step 3.
func loadELFSymbols(info *objinfo.Info, ef *elf.File, result *Result) {
	syms, err := ef.Symbols()
	if err != nil {
		logger.Logf("elfdwarf", "no ELF symbol table: %v", err)
		return
	}

	for _, s := range syms {
		var kind symtab.Kind
		switch elf.ST_TYPE(s.Info) {
		case elf.STT_FUNC:
			kind = symtab.KindFunction
		case elf.STT_OBJECT:
			kind = symtab.KindData
		default:
			continue
		}

		scope := symtab.ScopeUnknown
		switch elf.ST_BIND(s.Info) {
		case elf.STB_GLOBAL, elf.STB_WEAK:
			scope = symtab.ScopeGlobal
		case elf.STB_LOCAL:
			scope = symtab.ScopeStatic
		}

		name := demangle.Filter(s.Name)

		sym := &symtab.Symbol{
			Name:    name,
			Address: s.Value,
			Size:    s.Size,
			Kind:    kind,
			Scope:   scope,
		}
		info.ELFSymbols.Insert(sym)

		if kind == symtab.KindData && rttNames[name] {
			result.RTTSymbolAddress = s.Value
			result.RTTFound = true
			info.RTTSymbolAddress = s.Value
			info.RTTFound = true
		}
	}
}

// fileCache resolves a compilation unit's *dwarf.LineFile (stable for the
// lifetime of one LineReader) to a global file id, interning the path only
// once per file seen in this unit.
type fileCache struct {
	info *objinfo.Info
	ids  map[*dwarf.LineFile]uint32
}

func newFileCache(info *objinfo.Info) *fileCache {
	return &fileCache{info: info, ids: make(map[*dwarf.LineFile]uint32)}
}

func (c *fileCache) resolve(lf *dwarf.LineFile) uint32 {
	if lf == nil {
		return 0
	}
	if id, ok := c.ids[lf]; ok {
		return id
	}

	id := c.info.Files.Intern(lf.Name)
	c.ids[lf] = id
	return id
}

// loadDWARF performs the per-compilation-unit pass described in spec.md
// §4.5 step 5: line programs and top-level DIEs. The final sort is left to
// the caller's Finalize.
func loadDWARF(info *objinfo.Info, dwrf *dwarf.Data) {
	r := dwrf.Reader()

	for {
		entry, err := r.Next()
		if err != nil {
			logger.Logf("elfdwarf", "dwarf: %v", err)
			return
		}
		if entry == nil {
			return
		}
		if entry.Tag != dwarf.TagCompileUnit {
			r.SkipChildren()
			continue
		}

		unit := entry
		sourceFile, _ := unit.Val(dwarf.AttrName).(string)
		sourceFile = canon.Path(sourceFile)

		loadLineProgram(info, dwrf, unit)
		if unit.Children {
			loadTopLevelDIEs(info, dwrf, r, sourceFile)
		}
	}
}

func loadLineProgram(info *objinfo.Info, dwrf *dwarf.Data, unit *dwarf.Entry) {
	lr, err := dwrf.LineReader(unit)
	if err != nil {
		logger.Logf("elfdwarf", "line reader: %v", err)
		return
	}
	if lr == nil {
		return
	}

	cache := newFileCache(info)

	var le dwarf.LineEntry
	for {
		if err := lr.Next(&le); err != nil {
			return
		}
		if le.Line <= 0 || le.EndSequence {
			continue
		}

		fileID := cache.resolve(le.File)
		info.Lines.AppendOrInsert(le.Address, fileID, le.Line)
	}
}

// loadTopLevelDIEs scans only the first-level children of the compilation
// unit, per spec.md §4.5 step 5. r is already positioned just past the
// CompileUnit entry.
func loadTopLevelDIEs(info *objinfo.Info, dwrf *dwarf.Data, r *dwarf.Reader, sourceFile string) {
	for {
		entry, err := r.Next()
		if err != nil {
			logger.Logf("elfdwarf", "dwarf: %v", err)
			return
		}
		if entry == nil {
			return
		}
		if entry.Tag == 0 {
			// end of this compile unit's children
			return
		}

		switch entry.Tag {
		case dwarf.TagSubprogram:
			loadSubprogram(info, entry)
		case dwarf.TagVariable:
			loadVariable(info, entry, sourceFile)
		}

		r.SkipChildren()
	}
}

func linkageOrName(entry *dwarf.Entry) string {
	if v, ok := entry.Val(dwarf.AttrLinkageName).(string); ok && v != "" {
		return v
	}
	// MIPS alias for linkage name, used by some toolchains instead of the
	// standard attribute.
	const attrMIPSLinkageName dwarf.Attr = 0x2007
	if v, ok := entry.Val(attrMIPSLinkageName).(string); ok && v != "" {
		return v
	}
	if v, ok := entry.Val(dwarf.AttrName).(string); ok {
		return v
	}
	return ""
}

func loadSubprogram(info *objinfo.Info, entry *dwarf.Entry) {
	name := linkageOrName(entry)
	if name == "" {
		return
	}
	name = demangle.Filter(name)

	low, ok := lowPC(entry)
	if !ok {
		return
	}
	high, ok := highPC(entry, low)
	if !ok {
		return
	}

	if existing, ok := info.ELFSymbols.Lookup(low); ok && existing.Address == low {
		info.DWARFSymbols.Insert(existing)
		return
	}

	if high <= low {
		return
	}

	info.DWARFSymbols.Insert(&symtab.Symbol{
		Name:    name,
		Address: low,
		Size:    high - low,
		Kind:    symtab.KindFunction,
	})
}

func loadVariable(info *objinfo.Info, entry *dwarf.Entry, sourceFile string) {
	name := linkageOrName(entry)
	if name == "" {
		return
	}
	name = demangle.Filter(name)

	elfSym, ok := info.ELFSymbols.GetByName(name)
	if !ok || elfSym.Kind != symtab.KindData {
		// optimized out, stripped, or simply not a data object; skip
		// silently per spec.md §4.5 step 5.
		return
	}

	info.DWARFSymbols.Insert(elfSym)

	switch elfSym.Scope {
	case symtab.ScopeGlobal:
		info.GlobalSymbols = append(info.GlobalSymbols, elfSym)
	case symtab.ScopeStatic:
		info.StaticSymbols[sourceFile] = append(info.StaticSymbols[sourceFile], elfSym)
	default:
		logger.Logf("elfdwarf", "variable %q has neither global nor static scope", name)
	}
}

func lowPC(entry *dwarf.Entry) (uint64, bool) {
	v, ok := entry.Val(dwarf.AttrLowpc).(uint64)
	return v, ok
}

// highPC resolves DW_AT_high_pc, which DWARF-2 encodes as an absolute
// address and DWARF-4 as a size relative to low_pc.
func highPC(entry *dwarf.Entry, low uint64) (uint64, bool) {
	fld := entry.AttrField(dwarf.AttrHighpc)
	if fld == nil {
		return 0, false
	}

	switch fld.Class {
	case dwarf.ClassAddress:
		return fld.Val.(uint64), true
	case dwarf.ClassConstant:
		return low + uint64(fld.Val.(int64)), true
	default:
		return 0, false
	}
}
