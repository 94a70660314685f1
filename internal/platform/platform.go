// Package platform maps an OS/architecture pair onto the identifiers the
// browser release infrastructure uses for it: the snapshot storage folder
// prefix and the version-history query argument.
package platform

import (
	"fmt"
	"runtime"
)

// OS is a supported operating system family.
type OS string

const (
	Windows OS = "windows"
	Linux   OS = "linux"
	Mac     OS = "macos"
)

// Arch is a supported CPU architecture.
type Arch string

const (
	X86 Arch = "x86"
	X64 Arch = "x86_64"
)

// Platform is an (OS, Arch) pair.
type Platform struct {
	OS   OS
	Arch Arch
}

// ParseOS accepts the values the --os flag takes. "darwin" is allowed as an
// alias so runtime.GOOS can be passed through unmodified.
func ParseOS(s string) (OS, error) {
	switch s {
	case "windows":
		return Windows, nil
	case "linux":
		return Linux, nil
	case "macos", "darwin":
		return Mac, nil
	}
	return "", fmt.Errorf("unsupported OS: %s", s)
}

// HostOS returns the OS of the running process.
func HostOS() (OS, error) {
	return ParseOS(runtime.GOOS)
}

// StoragePrefix returns the top-level folder name used by the snapshot
// bucket for this platform. Mac snapshots are only published for one
// architecture, so both arches share a folder.
func (p Platform) StoragePrefix() string {
	switch p.OS {
	case Windows:
		if p.Arch == X64 {
			return "Win_x64"
		}
		return "Win"
	case Linux:
		if p.Arch == X64 {
			return "Linux_x64"
		}
		return "Linux"
	default:
		return "Mac"
	}
}

// HistoryOS returns the value of the "os" query argument understood by the
// version-history endpoint.
func (p Platform) HistoryOS() string {
	switch p.OS {
	case Windows:
		if p.Arch == X64 {
			return "win64"
		}
		return "win"
	case Linux:
		return "linux"
	default:
		return "mac"
	}
}

// Equivalent reports whether two platforms resolve to the same storage
// prefix and history argument, i.e. whether retrying a download with the
// other one could possibly find anything new.
func (p Platform) Equivalent(o Platform) bool {
	return p.StoragePrefix() == o.StoragePrefix() && p.HistoryOS() == o.HistoryOS()
}

func (p Platform) String() string {
	return fmt.Sprintf("%s/%s", p.OS, p.Arch)
}
