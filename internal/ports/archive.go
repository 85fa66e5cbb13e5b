package ports

import "context"

// Unarchiver expands an archive file into a directory.
type Unarchiver interface {
	// Unpack extracts archivePath into destDir, which must already exist.
	Unpack(ctx context.Context, archivePath, destDir string) error
}
