package version

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Version is the service current released version.
// This value can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/sprintlens/sprintlens/internal/version.Version=v1.2.0"
var Version = "1.0.0"

// DevVersion is the service current development version.
var DevVersion = Version + "-dev"

// GitCommit is the git commit hash at build time, set via ldflags.
var GitCommit = "unknown"

// BuildTime is the build timestamp in RFC3339 format, set via ldflags.
var BuildTime = "unknown"

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}

// IsVersionGreaterOrEqualThan returns true if version is greater than or equal to target.
func IsVersionGreaterOrEqualThan(version, target string) bool {
	return semver.Compare(fmt.Sprintf("v%s", version), fmt.Sprintf("v%s", target)) > -1
}
