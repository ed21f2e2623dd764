package version

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver"
)

// ErrVersionMissing - version line not found in tool output
var ErrVersionMissing = errors.New("version line is missing")

// GetVersion - parse version
func GetVersion(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimSpace(version))
}

// ParseToolVersion - finds "<tool> version: X.Y.Z" in the output of
// `etcdctl version` and similar commands. Output example:
//
//	etcdctl version: 3.5.9
//	API version: 3.5
func ParseToolVersion(tool, output string) (*semver.Version, error) {
	prefix := strings.ToLower(tool) + " version:"

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(strings.ToLower(line), prefix) {
			continue
		}
		return GetVersion(line[len(prefix):])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return nil, fmt.Errorf("%w: %s", ErrVersionMissing, tool)
}

// Satisfies - checks version against constraint, e.g. ">= 3.4.0"
func Satisfies(v *semver.Version, constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("failed to parse constraint %q: %s", constraint, err)
	}
	return c.Check(v), nil
}
