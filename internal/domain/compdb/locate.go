package compdb

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/astforge/internal/ports"
)

// ObjectSuffix is the suffix of compiled objects.
const ObjectSuffix = ".o"

var outputFlag = regexp.MustCompile(`\s-o\s+(\S+\.o)(\s|$)`)

// ObjectPath returns where the entry's compiled object is expected: the
// first "-o <path>.o" of its command line, or else the source path with
// its suffix replaced by ".o". Relative paths resolve against the entry's
// directory.
func ObjectPath(e Entry) string {
	if m := outputFlag.FindStringSubmatch(e.CommandLine()); m != nil {
		if filepath.IsAbs(m[1]) {
			return filepath.Clean(m[1])
		}
		return filepath.Join(e.Directory, m[1])
	}
	src := e.SourcePath()
	return strings.TrimSuffix(src, filepath.Ext(src)) + ObjectSuffix
}

// Locate returns the entry's object path when that file exists. Entries
// without an object on disk are not an error.
func Locate(fsys ports.FileSystem, e Entry) (string, bool) {
	path := ObjectPath(e)
	if !fsys.IsFile(path) {
		return "", false
	}
	return path, true
}
