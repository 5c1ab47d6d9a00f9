package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"schemadrift/internal/storage"
)

// Format is a persisted document format.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// FormatFromPath picks the format from a file extension. Anything other than
// .json is YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}

	return FormatYAML
}

// Marshal serializes a snapshot.
func Marshal(s *Snapshot, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal snapshot JSON: %w", err)
		}

		return append(data, '\n'), nil
	default:
		var buf bytes.Buffer

		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)

		if err := enc.Encode(s); err != nil {
			return nil, fmt.Errorf("failed to marshal snapshot YAML: %w", err)
		}

		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal snapshot YAML: %w", err)
		}

		return buf.Bytes(), nil
	}
}

// Parse deserializes a snapshot.
func Parse(data []byte, format Format) (*Snapshot, error) {
	var s Snapshot

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot YAML: %w", err)
		}
	}

	return &s, nil
}

// Save writes a snapshot to location; the format follows the extension.
func Save(ctx context.Context, store *storage.Store, s *Snapshot, location string) error {
	data, err := Marshal(s, FormatFromPath(location))
	if err != nil {
		return err
	}

	return store.Write(ctx, location, data)
}

// Load reads a snapshot from location; the format follows the extension.
func Load(ctx context.Context, store *storage.Store, location string) (*Snapshot, error) {
	data, err := store.Read(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return Parse(data, FormatFromPath(location))
}
