package ports

import "context"

// Extractor produces the extraction artifact for one translation unit.
type Extractor interface {
	// Extract runs extraction for file, relative to directory, and
	// returns the artifact path.
	Extract(ctx context.Context, directory, file string) (string, error)
}

// Importer hands one extraction artifact to the conversion tool.
type Importer interface {
	Import(ctx context.Context, artifact string) error
}
