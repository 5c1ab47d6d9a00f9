// Package main provides the CLI entrypoint for schemadrift.
//
// schemadrift samples a tabular data source and:
//   - Records a schema snapshot of every category, header key and field
//   - Generates Go enums, typed record containers and JSON Schemas from it
//   - Validates a later source against the snapshot and generated artifacts
package main

import (
	"errors"
	"fmt"
	"os"

	"schemadrift/cmd/schemadrift/commands"
)

// version is set at build time.
var version = "dev"

func main() {
	err := commands.NewRootCommand(version).Execute()
	if err == nil {
		return
	}

	if !errors.Is(err, commands.ErrChecksFailed) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	os.Exit(1)
}
