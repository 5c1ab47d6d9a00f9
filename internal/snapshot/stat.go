package snapshot

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Sentinels used for non-finite statistics.
const (
	NaNSentinel    = ""
	PosInfSentinel = "inf"
	NegInfSentinel = "-inf"
)

// Stat is a statistic value that survives text encodings even when it is not finite.
type Stat float64

// Float returns the value as a float64.
func (s Stat) Float() float64 {
	return float64(s)
}

// sentinel returns the text form of a non-finite value.
func (s Stat) sentinel() (string, bool) {
	f := float64(s)

	switch {
	case math.IsNaN(f):
		return NaNSentinel, true
	case math.IsInf(f, 1):
		return PosInfSentinel, true
	case math.IsInf(f, -1):
		return NegInfSentinel, true
	default:
		return "", false
	}
}

func parseSentinel(s string) (Stat, error) {
	switch s {
	case NaNSentinel:
		return Stat(math.NaN()), nil
	case PosInfSentinel:
		return Stat(math.Inf(1)), nil
	case NegInfSentinel:
		return Stat(math.Inf(-1)), nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid statistic %q", s)
	}

	return Stat(f), nil
}

// MarshalJSON implements json.Marshaler.
func (s Stat) MarshalJSON() ([]byte, error) {
	if text, ok := s.sentinel(); ok {
		return json.Marshal(text)
	}

	return json.Marshal(float64(s))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Stat) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		v, err := parseSentinel(text)
		if err != nil {
			return err
		}

		*s = v

		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid statistic: %w", err)
	}

	*s = Stat(f)

	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Stat) MarshalYAML() (any, error) {
	if text, ok := s.sentinel(); ok {
		return text, nil
	}

	return float64(s), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Stat) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: statistic must be a scalar", node.Line)
	}

	if node.Tag == "!!str" {
		v, err := parseSentinel(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}

		*s = v

		return nil
	}

	var f float64
	if err := node.Decode(&f); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}

	*s = Stat(f)

	return nil
}

// SanitizeValue converts a sample cell into something every encoder accepts.
// Non-finite floats become their sentinels and byte slices are summarised.
func SanitizeValue(v any) any {
	switch x := v.(type) {
	case float64:
		if text, ok := Stat(x).sentinel(); ok {
			return text
		}
	case float32:
		if text, ok := Stat(x).sentinel(); ok {
			return text
		}
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(x))
	}

	return v
}
