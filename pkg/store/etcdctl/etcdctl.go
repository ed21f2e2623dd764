package etcdctl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver"

	"github.com/keel-hq/etcdtree/internal/k8s"
	"github.com/keel-hq/etcdtree/pkg/store"
	"github.com/keel-hq/etcdtree/types"
	"github.com/keel-hq/etcdtree/util/version"

	log "github.com/sirupsen/logrus"
)

const binary = "etcdctl"

// Opts - where etcdctl runs and how it authenticates
type Opts struct {
	Implementer k8s.Implementer
	Locator     *k8s.PodLocator
	Container   string

	Endpoint string
	CACert   string
	Cert     string
	Key      string
}

// EtcdctlStore - store.Store backed by etcdctl running inside the etcd pod
type EtcdctlStore struct {
	opts Opts

	// resolved on first use, once per invocation
	pod string
}

// New - creates etcdctl backed store
func New(opts Opts) *EtcdctlStore {
	return &EtcdctlStore{opts: opts}
}

// Pod - name of the pod commands run in, locating it on first call
func (s *EtcdctlStore) Pod(ctx context.Context) (string, error) {
	if s.pod != "" {
		return s.pod, nil
	}

	p, err := s.opts.Locator.Locate(ctx)
	if err != nil {
		return "", err
	}
	s.pod = p.Name

	log.WithFields(log.Fields{
		"namespace": p.Namespace,
		"pod":       p.Name,
	}).Debug("etcdctl: using etcd pod")

	return s.pod, nil
}

// Dump - etcdctl get <prefix> --prefix --write-out=json, streamed
func (s *EtcdctlStore) Dump(ctx context.Context, prefix string, fn func(*types.Record) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pr, pw := io.Pipe()

	done := make(chan error, 1)
	go func() {
		err := s.run(ctx, "get", []string{prefix, "--prefix", "--write-out=json"}, nil, pw)
		pw.CloseWithError(err)
		done <- err
	}()

	var fnErr error
	decodeErr := DecodeRecords(pr, func(r *types.Record) error {
		if err := fn(r); err != nil {
			fnErr = err
			return err
		}
		return nil
	})
	if decodeErr == nil {
		// trailing newline etc.
		io.Copy(io.Discard, pr)
	}
	// unblocks the remote stream when decoding stopped early, a stream
	// waiting on flow control only returns once its context is done
	pr.Close()
	if decodeErr != nil {
		cancel()
	}
	execErr := <-done

	switch {
	case fnErr != nil:
		return fnErr
	case execErr != nil && (decodeErr == nil || errors.Is(decodeErr, execErr)):
		return execErr
	case decodeErr != nil:
		return fmt.Errorf("etcdctl get: failed to decode response: %w", decodeErr)
	}
	return nil
}

// Put - etcdctl put <key>, value is read from stdin
func (s *EtcdctlStore) Put(ctx context.Context, key string, value io.Reader) error {
	out := &bytes.Buffer{}
	err := s.run(ctx, "put", []string{key}, value, out)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"key":    key,
		"output": strings.TrimSpace(out.String()),
	}).Debug("etcdctl: put")
	return nil
}

// Delete - etcdctl del <key>
func (s *EtcdctlStore) Delete(ctx context.Context, key string) error {
	out := &bytes.Buffer{}
	err := s.run(ctx, "del", []string{key}, nil, out)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"key":     key,
		"deleted": strings.TrimSpace(out.String()),
	}).Debug("etcdctl: del")
	return nil
}

// Version - etcdctl version
func (s *EtcdctlStore) Version(ctx context.Context) (*semver.Version, error) {
	out := &bytes.Buffer{}
	err := s.run(ctx, "version", nil, nil, out)
	if err != nil {
		return nil, err
	}
	return version.ParseToolVersion(binary, out.String())
}

// Command - full etcdctl command line for op
func (s *EtcdctlStore) Command(op string, args ...string) []string {
	cmd := []string{binary}
	if s.opts.Endpoint != "" {
		cmd = append(cmd, "--endpoints="+s.opts.Endpoint)
	}
	if s.opts.CACert != "" {
		cmd = append(cmd, "--cacert="+s.opts.CACert)
	}
	if s.opts.Cert != "" {
		cmd = append(cmd, "--cert="+s.opts.Cert)
	}
	if s.opts.Key != "" {
		cmd = append(cmd, "--key="+s.opts.Key)
	}
	cmd = append(cmd, op)
	return append(cmd, args...)
}

func (s *EtcdctlStore) run(ctx context.Context, op string, args []string, stdin io.Reader, stdout io.Writer) error {
	pod, err := s.Pod(ctx)
	if err != nil {
		return err
	}

	stderr := &bytes.Buffer{}
	err = s.opts.Implementer.Exec(ctx, &k8s.ExecRequest{
		Namespace: s.opts.Locator.Namespace,
		Pod:       pod,
		Container: s.opts.Container,
		Command:   s.Command(op, args...),
		Stdin:     stdin,
		Stdout:    stdout,
		Stderr:    stderr,
	})
	if err != nil {
		return &store.RemoteError{
			Op:     binary + " " + op,
			Err:    err,
			Stderr: stderr.String(),
		}
	}
	return nil
}
