// Package archive unpacks the source tarballs the toolchain is built from.
package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
	"golang.org/x/sys/unix"

	"github.com/felixgeelhaar/astforge/internal/ports"
)

// ErrUnsupportedFormat is returned for archives that are not tar based.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// TarUnarchiver extracts .tar, .tar.gz/.tgz and .tar.xz archives.
type TarUnarchiver struct{}

// NewTarUnarchiver creates a new TarUnarchiver.
func NewTarUnarchiver() *TarUnarchiver {
	return &TarUnarchiver{}
}

// Unpack extracts archivePath into destDir.
// Entries that would land outside destDir are rejected.
func (u *TarUnarchiver) Unpack(ctx context.Context, archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	r, err := decompressor(archivePath, f)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(destDir)
	if err != nil {
		return err
	}

	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", filepath.Base(archivePath), err)
		}
		if err := extractEntry(tr, hdr, root); err != nil {
			return fmt.Errorf("extracting %s from %s: %w", hdr.Name, filepath.Base(archivePath), err)
		}
	}
}

func decompressor(name string, r io.Reader) (io.Reader, error) {
	switch {
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		return xz.NewReader(r)
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return gzip.NewReader(r)
	case strings.HasSuffix(name, ".tar"):
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(name))
	}
}

func extractEntry(tr *tar.Reader, hdr *tar.Header, root string) error {
	target, err := securePath(root, hdr.Name)
	if err != nil {
		return err
	}
	if err := noSymlinkParents(root, target); err != nil {
		return err
	}
	mode := os.FileMode(hdr.Mode).Perm()

	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, mode|0o700)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|unix.O_NOFOLLOW, mode)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, tr); err != nil {
			_ = out.Close()
			return err
		}
		return out.Close()
	case tar.TypeSymlink:
		if err := secureLink(root, target, hdr.Linkname); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.Symlink(hdr.Linkname, target); err != nil && !os.IsExist(err) {
			return err
		}
		return nil
	case tar.TypeLink:
		source, err := securePath(root, hdr.Linkname)
		if err != nil {
			return err
		}
		if err := noSymlinkParents(root, source); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return os.Link(source, target)
	default:
		// pax headers and device nodes carry nothing we need
		return nil
	}
}

func securePath(root, name string) (string, error) {
	target := filepath.Join(root, name)
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("entry escapes destination: %s", name)
	}
	return target, nil
}

// secureLink rejects symlinks whose target resolves outside root.
func secureLink(root, target, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("symlink escapes destination: %s -> %s", target, linkname)
	}
	resolved := filepath.Join(filepath.Dir(target), linkname)
	if resolved != root && !strings.HasPrefix(resolved, root+string(os.PathSeparator)) {
		return fmt.Errorf("symlink escapes destination: %s -> %s", target, linkname)
	}
	return nil
}

// noSymlinkParents rejects paths below root that pass through a symlink
// already extracted, so no entry is written through one.
func noSymlinkParents(root, target string) error {
	rel, err := filepath.Rel(root, filepath.Dir(target))
	if err != nil || rel == "." {
		return err
	}
	dir := root
	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		dir = filepath.Join(dir, part)
		info, err := os.Lstat(dir)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("entry passes through symlink: %s", dir)
		}
	}
	return nil
}

// Ensure TarUnarchiver implements ports.Unarchiver.
var _ ports.Unarchiver = (*TarUnarchiver)(nil)
