package snapshot

import (
	"fmt"
	"strings"

	"schemadrift/internal/common"
)

//go:generate go tool stringer -type=Kind -linecomment -output=kind_string.go

// Kind is the primitive kind of a field. String returns the persisted name.
type Kind int

const (
	KindUnknown Kind = iota // unknown
	KindInteger             // integer
	KindFloat               // float
	KindBoolean             // boolean
	KindText                // text
	KindBinary              // binary
)

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= KindUnknown && k <= KindBinary
}

// IsNumeric reports whether values of the kind carry numeric statistics.
func (k Kind) IsNumeric() bool {
	return k == KindInteger || k == KindFloat
}

// ParseKind parses a persisted kind name. Unrecognised names yield KindUnknown
// and an error.
func ParseKind(s string) (Kind, error) {
	for k := KindUnknown; k <= KindBinary; k++ {
		if strings.EqualFold(k.String(), s) {
			return k, nil
		}
	}

	return KindUnknown, fmt.Errorf("unknown kind %q", s)
}

// MarshalText implements encoding.TextMarshaler. Out-of-range kinds persist
// as unknown.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return []byte(common.UnknownStr), nil
	}

	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}
