package gen

import (
	"context"
	"strings"

	"schemadrift/internal/storage"
)

// writeDebugUnformatted writes unformatted code to a sidecar file next to the
// intended output. This is best-effort and should never make generation fail
// harder.
func writeDebugUnformatted(ctx context.Context, store *storage.Store, outDir, filename string, content []byte) error {
	if outDir == "" || filename == "" {
		return nil
	}

	// Keep it a .go file so editors can syntax highlight, but avoid colliding
	// with real output.
	debugName := strings.TrimSuffix(filename, ".go") + ".unformatted.go"

	return store.Write(ctx, storage.Join(outDir, debugName), content)
}
