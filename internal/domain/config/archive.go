package config

import "path/filepath"

// ArchiveSpec describes one remote source archive and where it lands.
type ArchiveSpec struct {
	// Name is a short label used in logs, e.g. "cfe".
	Name string
	URL  string
	// SignatureURL is the detached signature; empty skips verification.
	SignatureURL string
	// Archive is the local cache path of the downloaded file.
	Archive string
	// UnpackDir is the name of the root directory inside the archive.
	UnpackDir string
	// Target is the canonical directory the root is renamed to.
	Target string
}

// SignaturePath is where the detached signature is cached.
func (a ArchiveSpec) SignaturePath() string {
	return a.Archive + ".sig"
}

// Signed reports whether the archive must be signature-checked.
func (a ArchiveSpec) Signed() bool {
	return a.SignatureURL != ""
}

// FileName is the base name of the cached archive.
func (a ArchiveSpec) FileName() string {
	return filepath.Base(a.Archive)
}
