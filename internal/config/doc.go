// Package config loads schemadrift settings from defaults, an optional YAML
// file and SCHEMADRIFT_* environment variables, and converts them into the
// per-component configurations.
package config
