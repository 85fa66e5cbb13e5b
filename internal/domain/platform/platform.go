// Package platform provides host detection used to decide which optional
// toolchain pieces can be built.
package platform

import (
	"os"
	"runtime"
	"strings"
	"sync"

	"gopkg.in/ini.v1"
)

// OS represents the operating system type.
type OS string

const (
	// OSDarwin is macOS.
	OSDarwin OS = "darwin"
	// OSLinux is Linux (native or containerised).
	OSLinux OS = "linux"
	// OSUnknown is any other OS.
	OSUnknown OS = "unknown"
)

// Environment represents the execution environment.
type Environment string

const (
	// EnvNative is a native OS environment.
	EnvNative Environment = "native"
	// EnvDocker is running inside a container.
	EnvDocker Environment = "docker"
)

// DefaultOSReleasePath is the freedesktop os-release file.
const DefaultOSReleasePath = "/etc/os-release"

// Platform contains detected platform information.
type Platform struct {
	os          OS
	arch        string
	environment Environment
	distro      string
	distroLike  []string
	version     string
}

var (
	detected     *Platform
	detectOnce   sync.Once
	testPlatform *Platform // For testing
)

// Detect returns the current platform information.
// Results are cached after the first call.
func Detect() *Platform {
	if testPlatform != nil {
		return testPlatform
	}

	detectOnce.Do(func() {
		detected = detect(runtime.GOOS, DefaultOSReleasePath)
	})
	return detected
}

// SetTestPlatform sets a mock platform for testing.
// Pass nil to reset to actual detection.
func SetTestPlatform(p *Platform) {
	testPlatform = p
}

func detect(goos, osRelease string) *Platform {
	p := &Platform{
		arch:        runtime.GOARCH,
		environment: EnvNative,
	}

	switch goos {
	case "darwin":
		p.os = OSDarwin
	case "linux":
		p.os = OSLinux
		p.readOSRelease(osRelease)
		if isDocker() {
			p.environment = EnvDocker
		}
	default:
		p.os = OSUnknown
	}

	return p
}

// readOSRelease fills the distro fields from an os-release file. A missing
// or unreadable file leaves them empty.
func (p *Platform) readOSRelease(path string) {
	cfg, err := ini.Load(path)
	if err != nil {
		return
	}

	section := cfg.Section("")
	p.distro = strings.ToLower(section.Key("ID").String())
	p.version = section.Key("VERSION_ID").String()
	if like := section.Key("ID_LIKE").String(); like != "" {
		p.distroLike = strings.Fields(strings.ToLower(like))
	}
}

// isDocker checks if running inside a container.
func isDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	data, err := os.ReadFile("/proc/1/cgroup")
	if err != nil {
		return false
	}

	return strings.Contains(string(data), "docker") ||
		strings.Contains(string(data), "containerd")
}

// OS returns the operating system.
func (p *Platform) OS() OS {
	return p.os
}

// Arch returns the architecture.
func (p *Platform) Arch() string {
	return p.arch
}

// Environment returns the execution environment.
func (p *Platform) Environment() Environment {
	return p.environment
}

// Distro returns the os-release ID, e.g. "ubuntu" (empty if unknown).
func (p *Platform) Distro() string {
	return p.distro
}

// DistroVersion returns the os-release VERSION_ID.
func (p *Platform) DistroVersion() string {
	return p.version
}

// IsMacOS returns true if running on macOS.
func (p *Platform) IsMacOS() bool {
	return p.os == OSDarwin
}

// IsLinux returns true if running on Linux.
func (p *Platform) IsLinux() bool {
	return p.os == OSLinux
}

// IsDebianFamily reports whether the distro is Debian or derived from it.
func (p *Platform) IsDebianFamily() bool {
	if p.distro == "debian" || p.distro == "ubuntu" {
		return true
	}
	for _, like := range p.distroLike {
		if like == "debian" || like == "ubuntu" {
			return true
		}
	}
	return false
}

// SupportsBear reports whether bear is built to record compilation
// databases on this host.
func (p *Platform) SupportsBear() bool {
	return p.IsLinux() && p.IsDebianFamily()
}

// String returns a human-readable description.
func (p *Platform) String() string {
	parts := []string{string(p.os), p.arch}

	if p.environment != EnvNative {
		parts = append(parts, string(p.environment))
	}

	if p.distro != "" {
		parts = append(parts, p.distro+p.versionSuffix())
	}

	return strings.Join(parts, "/")
}

func (p *Platform) versionSuffix() string {
	if p.version == "" {
		return ""
	}
	return "-" + p.version
}

// New creates a Platform with specified values (for testing).
func New(os OS, arch string, env Environment) *Platform {
	return &Platform{
		os:          os,
		arch:        arch,
		environment: env,
	}
}

// NewLinux creates a Linux Platform for a given distro (for testing).
func NewLinux(distro, version string, like ...string) *Platform {
	return &Platform{
		os:          OSLinux,
		arch:        "amd64",
		environment: EnvNative,
		distro:      distro,
		version:     version,
		distroLike:  like,
	}
}
