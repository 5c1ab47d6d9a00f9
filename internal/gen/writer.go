package gen

import (
	"context"
	"fmt"

	"schemadrift/internal/storage"
)

// WriteFiles writes all generated files to the output directory, creating it
// when needed. The directory may be a local path or any URL the store accepts.
func WriteFiles(ctx context.Context, store *storage.Store, files []GeneratedFile, outputDir string) error {
	for _, file := range files {
		if err := store.Write(ctx, storage.Join(outputDir, file.Filename), file.Content); err != nil {
			return fmt.Errorf("writing file %s: %w", file.Filename, err)
		}
	}

	return nil
}
