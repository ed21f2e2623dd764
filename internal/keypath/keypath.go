// Package keypath maps etcd keys to files under a dump directory and back.
//
// A key such as /registry/pods/default/foo is stored at
// <root>/registry/pods/default/foo.yaml. The mapping is invertible for every
// key made of non-empty segments other than "." and "..", which is why such
// keys are refused instead of being normalised.
//
// A key whose segment ends in .yaml can collide with a sibling key:
// /registry/a is the file <root>/registry/a.yaml while /registry/a.yaml/x
// needs a directory of that same name. Only one of the two can exist on disk.
package keypath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/keel-hq/etcdtree/constants"
)

// KeySeparator - etcd key segment separator
const KeySeparator = "/"

var (
	// ErrUnsafeKey - key cannot be mapped to a path without losing information
	// or escaping the root directory
	ErrUnsafeKey = errors.New("unsafe key")
	// ErrAnchorNotFound - path has no anchor segment, no key can be derived from it
	ErrAnchorNotFound = errors.New("anchor segment not found in path")
	// ErrOutsideRoot - path is not located under the given root
	ErrOutsideRoot = errors.New("path is outside of root")
)

// Segments - splits key into path segments, leading separator is dropped
func Segments(key string) ([]string, error) {
	if strings.IndexByte(key, 0) >= 0 {
		return nil, fmt.Errorf("%w: %q contains NUL byte", ErrUnsafeKey, key)
	}

	trimmed := strings.TrimPrefix(key, KeySeparator)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %q has no segments", ErrUnsafeKey, key)
	}

	segments := strings.Split(trimmed, KeySeparator)
	for _, s := range segments {
		switch {
		case s == "", s == ".", s == "..":
			return nil, fmt.Errorf("%w: %q has segment %q", ErrUnsafeKey, key, s)
		case strings.ContainsRune(s, filepath.Separator):
			return nil, fmt.Errorf("%w: %q segment %q contains path separator", ErrUnsafeKey, key, s)
		}
	}
	return segments, nil
}

// PathOf - returns file path for the given key under root
func PathOf(root, key string) (string, error) {
	segments, err := Segments(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, filepath.Join(segments...)) + constants.FileSuffix, nil
}

// KeyOf - resolves the key a file under root was dumped from. Segments are
// searched from root onwards and the key starts at the first segment equal to
// anchor. Only the final suffix is stripped, so foo.bar.yaml maps to foo.bar.
func KeyOf(path, root, anchor string) (string, error) {
	if anchor == "" {
		return "", fmt.Errorf("%w: empty anchor", ErrAnchorNotFound)
	}

	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s not under %s", ErrOutsideRoot, path, root)
	}

	rel = strings.TrimSuffix(rel, constants.FileSuffix)

	segments := strings.Split(rel, "/")
	for i, s := range segments {
		if s == anchor {
			return KeySeparator + strings.Join(segments[i:], KeySeparator), nil
		}
	}

	return "", fmt.Errorf("%w: %s (anchor %q)", ErrAnchorNotFound, path, anchor)
}
