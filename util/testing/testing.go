package testing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver"
	v1 "k8s.io/api/core/v1"

	"github.com/keel-hq/etcdtree/internal/k8s"
	"github.com/keel-hq/etcdtree/types"
)

// FakeK8sImplementer - records exec requests and answers them with ExecFn or
// the canned Stdout/Stderr/Error
type FakeK8sImplementer struct {
	PodList *v1.PodList
	Version string

	// ExecFn overrides canned output when set
	ExecFn func(ctx context.Context, req *k8s.ExecRequest) error

	Stdout []byte
	Stderr []byte

	// error to return
	Error error

	mu       sync.Mutex
	Executed []*k8s.ExecRequest
	// stdin consumed by each executed request, same index as Executed
	Stdin [][]byte
}

func (i *FakeK8sImplementer) Pods(ctx context.Context, namespace, selector string) (*v1.PodList, error) {
	if i.PodList == nil {
		return &v1.PodList{}, nil
	}
	return i.PodList, nil
}

func (i *FakeK8sImplementer) ServerVersion() (string, error) {
	if i.Error != nil {
		return "", i.Error
	}
	return i.Version, nil
}

func (i *FakeK8sImplementer) Exec(ctx context.Context, req *k8s.ExecRequest) error {
	var stdin []byte
	if req.Stdin != nil {
		var err error
		stdin, err = io.ReadAll(req.Stdin)
		if err != nil {
			return err
		}
	}

	i.mu.Lock()
	i.Executed = append(i.Executed, req)
	i.Stdin = append(i.Stdin, stdin)
	i.mu.Unlock()

	if i.ExecFn != nil {
		return i.ExecFn(ctx, req)
	}

	if req.Stdout != nil && len(i.Stdout) > 0 {
		if _, err := req.Stdout.Write(i.Stdout); err != nil {
			return err
		}
	}
	if req.Stderr != nil && len(i.Stderr) > 0 {
		req.Stderr.Write(i.Stderr)
	}
	return i.Error
}

// LastCommand - command of the most recent exec request, joined with spaces
func (i *FakeK8sImplementer) LastCommand() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.Executed) == 0 {
		return ""
	}
	return strings.Join(i.Executed[len(i.Executed)-1].Command, " ")
}

// RunningPod - pod list with a single running pod
func RunningPod(namespace, name string, labels map[string]string) *v1.PodList {
	p := v1.Pod{}
	p.Name = name
	p.Namespace = namespace
	p.Labels = labels
	p.Status.Phase = v1.PodRunning
	return &v1.PodList{Items: []v1.Pod{p}}
}

// FakeStore - in memory store.Store
type FakeStore struct {
	Data map[string][]byte

	EtcdctlVersion string

	// returned from Dump before any record is produced
	DumpError error
	// returned from Put/Delete
	Error error

	Puts    []string
	Deletes []string
	Dumps   int
}

// NewFakeStore - store with the given contents
func NewFakeStore(data map[string][]byte) *FakeStore {
	if data == nil {
		data = make(map[string][]byte)
	}
	return &FakeStore{Data: data, EtcdctlVersion: "3.5.9"}
}

func (s *FakeStore) Dump(ctx context.Context, prefix string, fn func(*types.Record) error) error {
	s.Dumps++
	if s.DumpError != nil {
		return s.DumpError
	}

	keys := []string{}
	for k := range s.Data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		err := fn(&types.Record{
			Key:   []byte(k),
			Value: append([]byte{}, s.Data[k]...),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *FakeStore) Put(ctx context.Context, key string, value io.Reader) error {
	s.Puts = append(s.Puts, key)
	if s.Error != nil {
		return s.Error
	}
	b, err := io.ReadAll(value)
	if err != nil {
		return err
	}
	s.Data[key] = b
	return nil
}

func (s *FakeStore) Delete(ctx context.Context, key string) error {
	s.Deletes = append(s.Deletes, key)
	if s.Error != nil {
		return s.Error
	}
	delete(s.Data, key)
	return nil
}

func (s *FakeStore) Version(ctx context.Context) (*semver.Version, error) {
	if s.Error != nil {
		return nil, s.Error
	}
	return semver.NewVersion(s.EtcdctlVersion)
}

// FakeCodec - prefixes decoded values with "yaml:" and encoded values with
// "bin:". Values listed in FailOn fail, values listed in EmptyOn produce no
// output.
type FakeCodec struct {
	FailOn  map[string]bool
	EmptyOn map[string]bool

	Decoded int
	Encoded int
}

func (c *FakeCodec) Name() string { return "fake" }

func (c *FakeCodec) Decode(ctx context.Context, r io.Reader) ([]byte, error) {
	c.Decoded++
	return c.transform("yaml:", r)
}

func (c *FakeCodec) Encode(ctx context.Context, r io.Reader) ([]byte, error) {
	c.Encoded++
	return c.transform("bin:", r)
}

func (c *FakeCodec) transform(prefix string, r io.Reader) ([]byte, error) {
	in, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if c.FailOn[string(in)] {
		return nil, fmt.Errorf("fake codec: cannot translate %q", in)
	}
	if c.EmptyOn[string(in)] {
		return nil, fmt.Errorf("fake codec: empty output")
	}
	return append([]byte(prefix), bytes.TrimSpace(in)...), nil
}

// FakeApprover - answers every prompt with Answer and remembers prompts
type FakeApprover struct {
	Answer  bool
	Error   error
	Prompts []string
}

func (a *FakeApprover) Approve(prompt string) (bool, error) {
	a.Prompts = append(a.Prompts, prompt)
	if a.Error != nil {
		return false, a.Error
	}
	return a.Answer, nil
}
