package system

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/target"
	"github.com/open-edge-platform/os-package-search/internal/utils/logger"
)

var (
	OsReleaseFile = "/etc/os-release"

	// replaced in tests
	hostGOOS   = runtime.GOOS
	hostGOARCH = runtime.GOARCH
)

// machine names as printed by uname -m
var unameArch = map[string]string{
	"amd64":   "x86_64",
	"arm64":   "aarch64",
	"386":     "i686",
	"arm":     "armv7l",
	"ppc64le": "ppc64le",
	"s390x":   "s390x",
}

// conda subdir name per GOOS, then per GOARCH
var condaSubdirs = map[string]map[string]string{
	"linux": {
		"amd64":   "linux-64",
		"arm64":   "linux-aarch64",
		"386":     "linux-32",
		"arm":     "linux-armv7l",
		"ppc64le": "linux-ppc64le",
		"s390x":   "linux-s390x",
	},
	"darwin": {
		"amd64": "osx-64",
		"arm64": "osx-arm64",
	},
	"windows": {
		"amd64": "win-64",
		"386":   "win-32",
		"arm64": "win-arm64",
	},
}

// HostArch returns the host machine architecture in uname -m spelling.
func HostArch() string {
	if a, ok := unameArch[hostGOARCH]; ok {
		return a
	}
	return hostGOARCH
}

// HostPlatform returns the conda subdir of the host, or "" when the
// combination has no conda name.
func HostPlatform() string {
	return condaSubdirs[hostGOOS][hostGOARCH]
}

// DetectHostTarget describes the running machine.
func DetectHostTarget() target.Descriptor {
	d := target.Descriptor{Platform: HostPlatform(), Arch: HostArch()}
	logger.Logger().Debugf("detected host target %s", d)
	return d
}

// GetHostOsInfo reads name, version and id from the os-release file and
// adds the host architecture.
func GetHostOsInfo() (map[string]string, error) {
	var hostOsInfo = map[string]string{
		"name":    "",
		"version": "",
		"id":      "",
		"arch":    HostArch(),
	}

	file, err := os.Open(OsReleaseFile)
	if err != nil {
		return hostOsInfo, fmt.Errorf("failed to read %s: %w", OsReleaseFile, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		val = strings.Trim(strings.TrimSpace(val), "\"'")
		switch key {
		case "NAME":
			hostOsInfo["name"] = val
		case "VERSION_ID":
			hostOsInfo["version"] = val
		case "ID":
			hostOsInfo["id"] = val
		}
	}
	if err := scanner.Err(); err != nil {
		return hostOsInfo, fmt.Errorf("failed to read %s: %w", OsReleaseFile, err)
	}

	logger.Logger().Debugf("detected OS info: %s %s %s", hostOsInfo["name"], hostOsInfo["version"], hostOsInfo["arch"])
	return hostOsInfo, nil
}
