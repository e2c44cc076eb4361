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

// Package canon normalises source file paths, gathered from DWARF line
// tables and debug-adapter requests alike, into a single comparable form.
// A URI, a WSL mount, a UNC share and a drive-letter path that all name the
// same file must canonicalise to the same string.
package canon

import (
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var wslMount = regexp.MustCompile(`^/mnt/([a-zA-Z])(/.*)?$`)

// Path canonicalises raw into its comparable form. The function is total:
// it never fails, and on an unresolvable absolute form it falls back to the
// best-effort slash-normalised result. It is idempotent: Path(Path(x)) ==
// Path(x) for all x.
func Path(raw string) string {
	p := stripURI(raw)
	p = translateWSLMount(p)

	// Both a UNC prefix ("//server/share") and a drive letter ("C:") are
	// meaningless to filepath.Clean on a non-Windows build, and in the UNC
	// case Clean actively destroys the doubled leading slash we need to
	// keep. Peel either prefix off, clean the remainder as an ordinary
	// absolute path, then glue the prefix back on.
	drive := ""
	isUNC := strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "///")
	if isUNC {
		p = p[1:]
	} else if isDriveLetterPath(p) {
		drive = strings.ToUpper(p[:1]) + ":"
		p = p[2:]
		if p == "" {
			p = "/"
		}
	}

	p = makeAbsolute(p)
	p = filepath.ToSlash(filepath.Clean(filepath.FromSlash(p)))

	switch {
	case isUNC:
		p = fixUNCCase("/" + p)
	case drive != "":
		p = drive + p
	}

	return p
}

// stripURI removes a leading "file://" scheme and percent-decodes the
// remainder. Paths that aren't URIs pass through unchanged.
func stripURI(raw string) string {
	if !strings.HasPrefix(raw, "file://") {
		return raw
	}

	rest := strings.TrimPrefix(raw, "file://")
	if decoded, err := url.PathUnescape(rest); err == nil {
		rest = decoded
	}

	// file:///C:/foo on Windows decodes to /C:/foo; drop the leading slash
	// in front of the drive letter
	if len(rest) >= 3 && rest[0] == '/' && rest[2] == ':' {
		rest = rest[1:]
	}

	return rest
}

// translateWSLMount rewrites a WSL-style "/mnt/<letter>/..." path into the
// Windows-native "<LETTER>:/..." form. On every platform this is a pure
// string rewrite; there is no requirement that the mount actually exist.
func translateWSLMount(p string) string {
	m := wslMount.FindStringSubmatch(p)
	if m == nil {
		return p
	}

	drive := strings.ToUpper(m[1])
	rest := m[2]
	if rest == "" {
		rest = "/"
	}
	return drive + ":" + rest
}

// makeAbsolute resolves p against the current working directory if it is
// not already absolute. Drive-letter paths (C:/foo) are treated as
// absolute regardless of host OS so that the WSL-mount translation above
// composes correctly on non-Windows builds.
func makeAbsolute(p string) string {
	if isDriveLetterPath(p) || filepath.IsAbs(p) {
		return p
	}

	wd, err := os.Getwd()
	if err != nil {
		return p
	}
	return filepath.Join(wd, p)
}

func isDriveLetterPath(p string) bool {
	return len(p) >= 2 && isASCIILetter(p[0]) && p[1] == ':'
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// fixUNCCase uppercases the first two components of a UNC path
// ("//SERVER/SHARE/..."), which Windows treats case-insensitively but which
// must compare equal regardless of how a caller typed them.
func fixUNCCase(p string) string {
	if !strings.HasPrefix(p, "//") {
		return p
	}

	parts := strings.SplitN(p[2:], "/", 3)
	for i := 0; i < len(parts) && i < 2; i++ {
		parts[i] = strings.ToUpper(parts[i])
	}
	return "//" + strings.Join(parts, "/")
}
