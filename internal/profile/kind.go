package profile

import (
	"encoding/json"
	"strings"

	"schemadrift/internal/snapshot"
)

var (
	integerNames = []string{"integer", "bigint", "smallint", "tinyint", "mediumint", "long", "short", "serial"}
	floatNames   = []string{"double", "real", "numeric", "decimal", "number"}
	booleanNames = []string{"bool", "boolean"}
	textNames    = []string{"text", "string", "str", "varchar", "nvarchar", "char", "nchar", "clob", "utf8", "object", "category"}
	binaryNames  = []string{"blob", "bytes", "binary", "varbinary", "bytea", "[]byte"}
)

// KindFromDeclared maps a source's declared column type to a Kind. Unrecognised
// labels map to KindUnknown.
func KindFromDeclared(declared string) snapshot.Kind {
	t := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch {
	case t == "":
		return snapshot.KindUnknown
	case strings.HasPrefix(t, "int") || strings.HasPrefix(t, "uint") || oneOf(t, integerNames):
		return snapshot.KindInteger
	case strings.HasPrefix(t, "float") || oneOf(t, floatNames):
		return snapshot.KindFloat
	case oneOf(t, booleanNames):
		return snapshot.KindBoolean
	case oneOf(t, textNames) || strings.HasPrefix(t, "varchar"):
		return snapshot.KindText
	case oneOf(t, binaryNames):
		return snapshot.KindBinary
	default:
		return snapshot.KindUnknown
	}
}

// KindOfValue infers a Kind from a Go value.
func KindOfValue(v any) snapshot.Kind {
	switch x := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return snapshot.KindInteger
	case float32, float64:
		return snapshot.KindFloat
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return snapshot.KindInteger
		}

		return snapshot.KindFloat
	case bool:
		return snapshot.KindBoolean
	case string:
		return snapshot.KindText
	case []byte:
		return snapshot.KindBinary
	default:
		return snapshot.KindUnknown
	}
}

// inferKind uses the declared type and falls back to the first non-null value.
func inferKind(declared string, values []any) snapshot.Kind {
	if k := KindFromDeclared(declared); k != snapshot.KindUnknown || declared != "" {
		return k
	}

	for _, v := range values {
		if v != nil {
			return KindOfValue(v)
		}
	}

	return snapshot.KindUnknown
}

func oneOf(s string, names []string) bool {
	for _, n := range names {
		if s == n {
			return true
		}
	}

	return false
}
