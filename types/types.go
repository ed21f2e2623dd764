// Package types holds the types shared across etcdtree packages
package types

import (
	"fmt"
	"strings"
)

// Record - single key/value pair read from etcd while streaming a dump.
// Key and Value are raw bytes exactly as stored, neither is assumed to be
// valid UTF-8.
type Record struct {
	Key   []byte
	Value []byte

	ModRevision int64
}

// String - key as text, used for logging and filtering
func (r *Record) String() string {
	return string(r.Key)
}

// Outcome - result of a single putyaml invocation
type Outcome int

// available outcomes
const (
	OutcomeUnknown Outcome = iota
	OutcomeWritten
	OutcomeDeleted
	OutcomeSkippedWrite
	OutcomeSkippedDelete
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWritten:
		return "written"
	case OutcomeDeleted:
		return "deleted"
	case OutcomeSkippedWrite:
		return "skipped write"
	case OutcomeSkippedDelete:
		return "skipped delete"
	default:
		return "unknown"
	}
}

// Skipped - true when the operator declined the operation
func (o Outcome) Skipped() bool {
	return o == OutcomeSkippedWrite || o == OutcomeSkippedDelete
}

// CodecType - object codec implementation
type CodecType int

// available codec types
const (
	CodecTypeUnknown CodecType = iota
	CodecTypeExec
	CodecTypeBuiltin
)

// ParseCodecType - "builtin" selects the in-process codec, anything else is
// treated as the name or path of an external codec binary
func ParseCodecType(codec string) (CodecType, error) {
	switch strings.ToLower(strings.TrimSpace(codec)) {
	case "":
		return CodecTypeUnknown, fmt.Errorf("codec not specified")
	case "builtin":
		return CodecTypeBuiltin, nil
	default:
		return CodecTypeExec, nil
	}
}

func (t CodecType) String() string {
	switch t {
	case CodecTypeExec:
		return "exec"
	case CodecTypeBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// VersionInfo describes version and runtime info.
type VersionInfo struct {
	Name       string `json:"name"`
	BuildDate  string `json:"buildDate"`
	Revision   string `json:"revision"`
	Version    string `json:"version"`
	APIVersion string `json:"apiVersion"`
	GoVersion  string `json:"goVersion"`
	OS         string `json:"os"`
	Arch       string `json:"arch"`
}
