// Package version carries the build version and semantic version checks.
package version

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Current is the build version, set with
// -ldflags "-X github.com/hatch-crm/hatch/internal/shared/version.Current=v1.2.3".
var Current = "dev"

// RuleFileSchema is the rule seed format this build reads. Files declaring a
// different major version are refused.
const RuleFileSchema = "v1.0.0"

// Normalize ensures version string has "v" prefix for semver compatibility.
// Examples: "1.2.3" -> "v1.2.3", "v1.2.3" -> "v1.2.3"
func Normalize(version string) string {
	if version == "" {
		return ""
	}
	version = strings.TrimSpace(version)
	if !strings.HasPrefix(version, "v") {
		return "v" + version
	}
	return version
}

// CheckCompatible reports whether declared can be read by a reader of
// supported: same major version, minor not newer. An empty declared version
// is accepted as the oldest schema.
func CheckCompatible(declared, supported string) error {
	if strings.TrimSpace(declared) == "" {
		return nil
	}
	d := Normalize(declared)
	s := Normalize(supported)
	if !semver.IsValid(d) {
		return fmt.Errorf("version %q is not a semantic version", declared)
	}
	if semver.Major(d) != semver.Major(s) {
		return fmt.Errorf("version %s is not supported, this build reads %s.x", d, semver.Major(s))
	}
	if semver.Compare(semver.MajorMinor(d), semver.MajorMinor(s)) > 0 {
		return fmt.Errorf("version %s is newer than supported %s", d, s)
	}
	return nil
}
