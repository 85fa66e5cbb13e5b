// Package config holds the immutable run configuration: where sources are
// cached, which archives make up the toolchain, and how it is built.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Defaults used when no file or environment override is present.
const (
	DefaultLLVMVersion    = "4.0.1"
	DefaultLLVMMirror     = "http://releases.llvm.org"
	DefaultKeyServer      = "pgpkeys.mit.edu"
	DefaultPublicKey      = "8F0871F202119294"
	DefaultSignerIdentity = "Tom Stellard <tom@stellard.net>"
	DefaultGenerator      = "Ninja"
	DefaultPluginName     = "ast-extractor"
	DefaultTinyCBORVer    = "0.4.1"
	DefaultBearVer        = "2.3.6"
	DefaultLogFileName    = "astforge.log"
)

// LLVMConfig describes the LLVM/clang sources and build tree.
type LLVMConfig struct {
	Version string
	// Archives in unpack order: llvm, cfe, clang-tools-extra.
	Archives []ArchiveSpec
	SrcDir   string
	BuildDir string
	// Generator is the CMake generator; the build-state marker format
	// depends on it being Ninja.
	Generator      string
	KeyServer      string
	PublicKey      string
	SignerIdentity string
}

// ExtraToolsDir is clang-tools-extra inside the LLVM source tree.
func (l LLVMConfig) ExtraToolsDir() string {
	return filepath.Join(l.SrcDir, "tools", "clang", "tools", "extra")
}

// BinDir holds binaries produced by the build.
func (l LLVMConfig) BinDir() string {
	return filepath.Join(l.BuildDir, "bin")
}

// BuildFile is the generated build description holding the configuration marker.
func (l LLVMConfig) BuildFile() string {
	return filepath.Join(l.BuildDir, "build.ninja")
}

// DependencyConfig is a third-party library built and installed into Prefix.
type DependencyConfig struct {
	Archive ArchiveSpec
	Prefix  string
}

// SourceDir is where the dependency is unpacked.
func (d DependencyConfig) SourceDir() string {
	return d.Archive.Target
}

// Config is the run configuration. It is built once by Load or Defaults
// and shared read-only between components.
type Config struct {
	Root    string
	DepsDir string

	LLVM     LLVMConfig
	TinyCBOR DependencyConfig
	Bear     DependencyConfig

	// PluginName is the clang tool target built inside clang-tools-extra.
	PluginName string
	// PluginSource is this project's plugin source tree.
	PluginSource string
	// Importer is the downstream conversion tool.
	Importer string

	Flavor   Flavor
	LogFile  string
	LogLevel string
}

// ExtractorPath is the extraction tool produced by the build.
func (c *Config) ExtractorPath() string {
	return filepath.Join(c.LLVM.BinDir(), c.PluginName)
}

// PluginLink is the symlink inside clang-tools-extra pointing at PluginSource.
func (c *Config) PluginLink() string {
	return filepath.Join(c.LLVM.ExtraToolsDir(), c.PluginName)
}

// BearBinary is the installed bear executable.
func (c *Config) BearBinary() string {
	return filepath.Join(c.Bear.Prefix, "bin", "bear")
}

// TinyCBORCompileDB is the compilation database bear records for tinycbor.
func (c *Config) TinyCBORCompileDB() string {
	return filepath.Join(c.TinyCBOR.SourceDir(), "compile_commands.json")
}

// Defaults returns the configuration for a project rooted at root.
func Defaults(root string) *Config {
	return build(root, overrides{})
}

type overrides struct {
	LLVMVersion    string
	Mirror         string
	KeyServer      string
	PublicKey      string
	SignerIdentity string
	Importer       string
	LogFile        string
	LogLevel       string
}

func build(root string, o overrides) *Config {
	root = filepath.Clean(root)
	deps := filepath.Join(root, "dependencies")
	version := firstNonEmpty(o.LLVMVersion, DefaultLLVMVersion)
	mirror := strings.TrimRight(firstNonEmpty(o.Mirror, DefaultLLVMMirror), "/")
	src := filepath.Join(root, "llvm.src")

	llvmArchive := func(name, component, target string) ArchiveSpec {
		file := fmt.Sprintf("%s-%s.src.tar.xz", component, version)
		url := fmt.Sprintf("%s/%s/%s", mirror, version, file)
		return ArchiveSpec{
			Name:         name,
			URL:          url,
			SignatureURL: url + ".sig",
			Archive:      filepath.Join(deps, file),
			UnpackDir:    strings.TrimSuffix(file, ".tar.xz"),
			Target:       target,
		}
	}

	cfg := &Config{
		Root:    root,
		DepsDir: deps,
		LLVM: LLVMConfig{
			Version: version,
			Archives: []ArchiveSpec{
				llvmArchive("llvm", "llvm", src),
				llvmArchive("cfe", "cfe", filepath.Join(src, "tools", "clang")),
				llvmArchive("clang-tools-extra", "clang-tools-extra", filepath.Join(src, "tools", "clang", "tools", "extra")),
			},
			SrcDir:         src,
			BuildDir:       filepath.Join(root, "llvm.build"),
			Generator:      DefaultGenerator,
			KeyServer:      firstNonEmpty(o.KeyServer, DefaultKeyServer),
			PublicKey:      firstNonEmpty(o.PublicKey, DefaultPublicKey),
			SignerIdentity: firstNonEmpty(o.SignerIdentity, DefaultSignerIdentity),
		},
		TinyCBOR: githubDependency(deps, "tinycbor", "01org/tinycbor", "v"+DefaultTinyCBORVer, DefaultTinyCBORVer),
		Bear:     githubDependency(deps, "Bear", "rizsotto/Bear", DefaultBearVer, DefaultBearVer),

		PluginName:   DefaultPluginName,
		PluginSource: filepath.Join(root, DefaultPluginName),
		Importer:     firstNonEmpty(o.Importer, filepath.Join(root, "ast-importer", "target", "debug", "ast-importer")),
		Flavor:       FlavorRelease,
		LogFile:      firstNonEmpty(o.LogFile, filepath.Join(root, DefaultLogFileName)),
		LogLevel:     o.LogLevel,
	}
	return cfg
}

// githubDependency describes a codeload tarball. The archive unpacks to
// "<name>-<version>" and installs into "<deps>/<name>".
func githubDependency(deps, name, repo, tag, version string) DependencyConfig {
	dir := name + "-" + version
	return DependencyConfig{
		Archive: ArchiveSpec{
			Name:      name,
			URL:       fmt.Sprintf("https://codeload.github.com/%s/tar.gz/%s", repo, tag),
			Archive:   filepath.Join(deps, dir+".tar.gz"),
			UnpackDir: dir,
			Target:    filepath.Join(deps, dir),
		},
		Prefix: filepath.Join(deps, name),
	}
}

// WithFlavor returns a copy of the configuration requesting flavor.
func (c *Config) WithFlavor(flavor Flavor) *Config {
	cp := *c
	cp.LLVM.Archives = append([]ArchiveSpec(nil), c.LLVM.Archives...)
	cp.Flavor = flavor
	return &cp
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
