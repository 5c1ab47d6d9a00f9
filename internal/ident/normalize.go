package ident

import (
	"strings"
	"unicode"
)

//go:generate go tool stringer -type=Kind -linecomment -output=kind_string.go

// Kind selects the normalization rules.
type Kind int

const (
	EnumMember Kind = iota // enum-member
	Property               // property
	TypeName               // type-name
)

// Prefixes and fallbacks applied by Normalize.
const (
	EnumDigitPrefix     = "N"
	PropertyDigitPrefix = "prop_"
	TypeDigitPrefix     = "Event"

	EnumFallback     = "UNKNOWN"
	PropertyFallback = "unknown"
	TypeFallback     = "Unknown"
)

// Identifier is a raw name together with its normalized form.
type Identifier struct {
	Raw  string
	Kind Kind
	Name string
}

// New normalizes raw and returns the pair.
func New(raw string, kind Kind) Identifier {
	return Identifier{Raw: raw, Kind: kind, Name: Normalize(raw, kind)}
}

// Normalize converts raw into an identifier of the given kind.
//
// Examples:
//   - Normalize("m_vec + m_cell", EnumMember) -> "m_vec_plus_m_cell"
//   - Normalize("123abc", Property) -> "prop_123abc"
//   - Normalize("player_death", TypeName) -> "PlayerDeath"
func Normalize(raw string, kind Kind) string {
	switch kind {
	case EnumMember:
		return enumMember(raw)
	case Property:
		return property(raw)
	default:
		return typeName(raw)
	}
}

var enumReplacer = strings.NewReplacer(
	".", "_",
	"[", "_",
	"]", "_",
	" ", "_",
	"-", "_",
	"+", "plus",
)

func enumMember(raw string) string {
	s := collapse(replaceInvalid(enumReplacer.Replace(raw)))
	if s == "" {
		return EnumFallback
	}

	if startsWithDigit(s) {
		return EnumDigitPrefix + s
	}

	return s
}

func property(raw string) string {
	s := collapse(replaceInvalid(raw))
	if s == "" {
		return PropertyFallback
	}

	if startsWithDigit(s) {
		return PropertyDigitPrefix + s
	}

	return s
}

// typeName splits on runs of non-alphanumeric characters and capitalises each
// segment, lower-casing the rest of it.
func typeName(raw string) string {
	var b strings.Builder

	for _, part := range strings.Split(collapse(replaceInvalid(raw)), "_") {
		if part == "" {
			continue
		}

		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}

	s := b.String()
	if s == "" {
		return TypeFallback
	}

	if startsWithDigit(s) {
		return TypeDigitPrefix + s
	}

	return s
}

// Exported upper-cases the first letter of a normalized identifier.
func Exported(name string) string {
	if name == "" {
		return name
	}

	return strings.ToUpper(name[:1]) + name[1:]
}

// GoName joins the '_'-separated segments of a normalized identifier into an
// exported mixed-caps name. Case inside each segment is kept.
//
//   - GoName("user_name") -> "UserName"
//   - GoName("m_iHealth") -> "MIHealth"
//   - GoName("prop_123abc") -> "Prop123abc"
func GoName(name string) string {
	var b strings.Builder

	for _, part := range strings.Split(name, "_") {
		b.WriteString(Exported(part))
	}

	s := b.String()
	if s == "" || startsWithDigit(s) {
		return Exported(name)
	}

	return s
}

// replaceInvalid maps every character outside [A-Za-z0-9_] to '_'.
func replaceInvalid(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if isIdentRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}

	return b.String()
}

// collapse squeezes runs of '_' and trims them from both ends.
func collapse(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	prevUnderscore := false

	for _, r := range s {
		if r == '_' {
			if prevUnderscore {
				continue
			}

			prevUnderscore = true
		} else {
			prevUnderscore = false
		}

		b.WriteRune(r)
	}

	return strings.Trim(b.String(), "_")
}

func isIdentRune(r rune) bool {
	return r < unicode.MaxASCII && (r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// Valid reports whether s matches [A-Za-z_][A-Za-z0-9_]*.
func Valid(s string) bool {
	if s == "" || startsWithDigit(s) {
		return false
	}

	for _, r := range s {
		if !isIdentRune(r) {
			return false
		}
	}

	return true
}
