package policy

import (
	"github.com/ryanuber/go-glob"
)

// MatchAll - default filter pattern
const MatchAll = "*"

// GlobFilter - selects etcd keys by glob pattern. '*' matches any run of
// characters, separators included, so /registry/secrets/* selects every
// secret in every namespace.
type GlobFilter struct {
	pattern string
}

// NewGlobFilter - empty pattern matches everything
func NewGlobFilter(pattern string) *GlobFilter {
	if pattern == "" {
		pattern = MatchAll
	}
	return &GlobFilter{pattern: pattern}
}

// Match - checks whether key should be included
func (f *GlobFilter) Match(key string) bool {
	return glob.Glob(f.pattern, key)
}

// Filter - returns keys matching the pattern, order is preserved
func (f *GlobFilter) Filter(keys []string) []string {
	filtered := []string{}

	for _, key := range keys {
		if f.Match(key) {
			filtered = append(filtered, key)
		}
	}

	return filtered
}

// Pattern - glob pattern keys are matched against
func (f *GlobFilter) Pattern() string { return f.pattern }
