package common

import (
	"path/filepath"
	"strings"
	"unicode"
)

// UnknownStr is the display name used for unrecognised enum values.
const UnknownStr = "unknown"

// DefaultPkgName is used when no usable package name can be derived.
const DefaultPkgName = "schemas"

// PkgName derives a Go package name from the last element of an output directory.
// Characters that are not valid in a package name are dropped and the result is
// lower-cased. Returns DefaultPkgName if nothing usable remains.
func PkgName(dir string) string {
	if dir == "" {
		return DefaultPkgName
	}

	base := strings.ToLower(filepath.Base(filepath.Clean(dir)))

	var b strings.Builder

	for _, r := range base {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			b.WriteRune(r)
		}
	}

	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return DefaultPkgName
	}

	return name
}
