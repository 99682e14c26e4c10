// Package platform detects the host OS, distinguishing native Windows,
// macOS, Linux, and WSL1/WSL2, so the Sync Engine and WSL Bridge can
// branch on symlink-vs-junction behavior and WSL availability.
package platform

import (
	"os"
	"runtime"
	"strings"
)

// OS identifies the detected host operating system.
type OS string

const (
	Windows OS = "windows"
	MacOS   OS = "macos"
	Linux   OS = "linux"
	WSL1    OS = "wsl1"
	WSL2    OS = "wsl2"
	Unknown OS = "unknown"
)

var (
	detected OS
	done     bool
)

// Detect returns the current host OS, caching the result for the process
// lifetime.
func Detect() OS {
	if done {
		return detected
	}
	detected = detect()
	done = true
	return detected
}

func detect() OS {
	switch runtime.GOOS {
	case "windows":
		return Windows
	case "darwin":
		return MacOS
	case "linux":
		return detectLinuxOrWSL()
	default:
		return Unknown
	}
}

func detectLinuxOrWSL() OS {
	if os.Getenv("WSL_DISTRO_NAME") != "" {
		return detectWSLVersion()
	}
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return Linux
	}
	if v := string(data); strings.Contains(v, "microsoft") || strings.Contains(v, "Microsoft") {
		return detectWSLVersion()
	}
	return Linux
}

func detectWSLVersion() OS {
	if data, err := os.ReadFile("/proc/version"); err == nil {
		v := string(data)
		if strings.Contains(v, "microsoft-standard") {
			return WSL2
		}
		if strings.Contains(v, "Microsoft") {
			return WSL1
		}
	}
	if _, err := os.Stat("/run/WSL"); err == nil {
		return WSL2
	}
	if _, err := os.Stat("/dev/vsock"); err == nil {
		return WSL2
	}
	return WSL1
}

// IsWindows reports whether the engine should apply Windows-specific
// behavior: cmd /c command wrapping, directory junction fallback, and
// WSL Bridge availability all gate on this, not on runtime.GOOS directly,
// so tests can stub it via WithOverride.
func IsWindows() bool { return Detect() == Windows }

// IsWSL reports whether the process is running inside any WSL distro.
func IsWSL() bool {
	d := Detect()
	return d == WSL1 || d == WSL2
}

// String returns a human-readable OS name.
func (o OS) String() string {
	switch o {
	case Windows:
		return "Windows"
	case MacOS:
		return "macOS"
	case Linux:
		return "Linux"
	case WSL1:
		return "WSL1"
	case WSL2:
		return "WSL2"
	default:
		return "Unknown"
	}
}

// WithOverride forces Detect to return o until reset is called; for tests
// that need to exercise Windows-only or WSL-only code paths on any host.
func WithOverride(o OS) (reset func()) {
	prevDetected, prevDone := detected, done
	detected, done = o, true
	return func() {
		detected, done = prevDetected, prevDone
	}
}
