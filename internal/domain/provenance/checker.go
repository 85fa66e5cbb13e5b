// Package provenance confirms that the objects of a compilation database
// were built by clang before extraction runs against them.
package provenance

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/felixgeelhaar/astforge/internal/adapters/logging"
	"github.com/felixgeelhaar/astforge/internal/domain/compdb"
	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// Marker must appear in an object's .comment section.
const Marker = "clang"

// DefaultCacheSize bounds the per-object verdict memo.
const DefaultCacheSize = 4096

// Checker inspects the .comment section of compiled objects with readelf.
type Checker struct {
	runner  ports.CommandRunner
	fs      ports.FileSystem
	readelf string
	marker  string
	verdict *lru.Cache[string, bool]
}

// Option configures a Checker.
type Option func(*Checker)

// WithReadelf sets the readelf executable.
func WithReadelf(path string) Option {
	return func(c *Checker) {
		c.readelf = path
	}
}

// WithMarker replaces the expected compiler marker.
func WithMarker(marker string) Option {
	return func(c *Checker) {
		c.marker = marker
	}
}

// NewChecker creates a Checker.
func NewChecker(runner ports.CommandRunner, fs ports.FileSystem, opts ...Option) (*Checker, error) {
	cache, err := lru.New[string, bool](DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create provenance cache: %w", err)
	}
	c := &Checker{
		runner:  runner,
		fs:      fs,
		readelf: "readelf",
		marker:  Marker,
		verdict: cache,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Report summarises a provenance check.
type Report struct {
	// Checked lists the objects that were inspected, in entry order.
	Checked []string
	// Missing counts entries without an object on disk.
	Missing int
}

// Check inspects the object of every C source entry. Entries whose
// object cannot be located are skipped. Any object without the marker
// fails the whole check, naming every such object.
func (c *Checker) Check(ctx context.Context, entries []compdb.Entry) (*Report, error) {
	logger := logging.FromContext(ctx)

	sources, err := compdb.SourceEntries(entries)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var offenders []string
	for _, entry := range sources {
		obj, ok := compdb.Locate(c.fs, entry)
		if !ok {
			logger.Debug(ctx, "didn't find output filename", ports.F("entry", entry.String()))
			report.Missing++
			continue
		}
		logger.Debug(ctx, "found output filename", ports.F("object", obj))

		clang, err := c.builtByCompiler(ctx, obj)
		if err != nil {
			return report, err
		}
		report.Checked = append(report.Checked, obj)
		if !clang {
			offenders = append(offenders, obj)
		}
	}

	if len(offenders) > 0 {
		return report, failure.Provenance("some ELF objects were not compiled with %s:\n%s",
			c.marker, strings.Join(offenders, "\n"))
	}
	return report, nil
}

func (c *Checker) builtByCompiler(ctx context.Context, obj string) (bool, error) {
	if ok, cached := c.verdict.Get(obj); cached {
		return ok, nil
	}

	cmd := ports.NewCommand(c.readelf, "-p", ".comment", obj)
	result, err := c.runner.Run(ctx, cmd)
	if err := failure.FromCommand(cmd, result, err); err != nil {
		return false, err
	}

	ok := strings.Contains(result.Stdout, c.marker)
	c.verdict.Add(obj, ok)
	return ok, nil
}
