package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver"

	"github.com/keel-hq/etcdtree/types"
)

// Store - operations etcdtree needs from etcd. Keys and values are passed
// through untouched, binary values included.
type Store interface {
	// Dump - reads every key under prefix in a single request and calls fn
	// for each record as it is read. An error returned by fn stops the dump
	// and is returned as is.
	Dump(ctx context.Context, prefix string, fn func(*types.Record) error) error
	// Put - creates or overwrites key
	Put(ctx context.Context, key string, value io.Reader) error
	// Delete - removes key, deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
	// Version - version of the store client tooling
	Version(ctx context.Context) (*semver.Version, error)
}

// errors
var (
	ErrEmptyResponse = errors.New("empty response")
)

// RemoteError - command failed on the remote side, Stderr is kept verbatim
type RemoteError struct {
	Op     string
	Err    error
	Stderr string
}

func (e *RemoteError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Err, msg)
}

func (e *RemoteError) Unwrap() error { return e.Err }
