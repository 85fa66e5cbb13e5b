package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load.
const (
	EnvRoot        = "ASTFORGE_ROOT"
	EnvLLVMVersion = "ASTFORGE_LLVM_VERSION"
	EnvKeyServer   = "ASTFORGE_KEYSERVER"
	EnvImporter    = "ASTFORGE_IMPORTER"
)

// Default config file names searched in the project root.
var defaultFiles = []string{"astforge.yaml", "astforge.yml", "astforge.toml"}

// File is the on-disk configuration. Every field is optional.
type File struct {
	LLVMVersion    string `yaml:"llvm_version" toml:"llvm_version"`
	Mirror         string `yaml:"mirror" toml:"mirror"`
	KeyServer      string `yaml:"keyserver" toml:"keyserver"`
	PublicKey      string `yaml:"public_key" toml:"public_key"`
	SignerIdentity string `yaml:"signer_identity" toml:"signer_identity"`
	Importer       string `yaml:"importer" toml:"importer"`
	Flavor         string `yaml:"flavor" toml:"flavor"`
	LogFile        string `yaml:"log_file" toml:"log_file"`
	LogLevel       string `yaml:"log_level" toml:"log_level"`
}

// LoadOptions selects the project root and optional overrides.
type LoadOptions struct {
	// Root is the project root; empty falls back to $ASTFORGE_ROOT, then
	// the working directory.
	Root string
	// File is an explicit config file; empty searches the root.
	File string
	// LogFile overrides the run log location.
	LogFile string
}

// Load builds the configuration: defaults, then the config file, then
// environment (including a .env file in the root).
func Load(opts LoadOptions) (*Config, error) {
	root, err := resolveRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	file, err := readFile(root, opts.File)
	if err != nil {
		return nil, err
	}

	o := overrides{
		LLVMVersion:    firstNonEmpty(os.Getenv(EnvLLVMVersion), file.LLVMVersion),
		Mirror:         file.Mirror,
		KeyServer:      firstNonEmpty(os.Getenv(EnvKeyServer), file.KeyServer),
		PublicKey:      file.PublicKey,
		SignerIdentity: file.SignerIdentity,
		Importer:       firstNonEmpty(os.Getenv(EnvImporter), absIn(root, file.Importer)),
		LogFile:        firstNonEmpty(opts.LogFile, absIn(root, file.LogFile)),
		LogLevel:       file.LogLevel,
	}
	cfg := build(root, o)

	if file.Flavor != "" {
		flavor, err := ParseFlavor(file.Flavor)
		if err != nil {
			return nil, err
		}
		cfg.Flavor = flavor
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values a config file or environment can get wrong.
func (c *Config) Validate() error {
	if !semver.IsValid("v" + c.LLVM.Version) {
		return fmt.Errorf("invalid LLVM version %q", c.LLVM.Version)
	}
	if c.LLVM.PublicKey == "" {
		return errors.New("public key id must not be empty")
	}
	if c.LLVM.SignerIdentity == "" {
		return errors.New("signer identity must not be empty")
	}
	if c.Flavor != FlavorDebug && c.Flavor != FlavorRelease {
		return fmt.Errorf("invalid build flavor %q", c.Flavor)
	}
	return nil
}

func resolveRoot(root string) (string, error) {
	if root == "" {
		root = os.Getenv(EnvRoot)
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = wd
	}
	return filepath.Abs(root)
}

func readFile(root, explicit string) (File, error) {
	var f File

	path := explicit
	if path == "" {
		for _, name := range defaultFiles {
			candidate := filepath.Join(root, name)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		return f, fmt.Errorf("unsupported config format: %s", filepath.Base(path))
	}
	if err != nil {
		return f, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return f, nil
}

func absIn(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
