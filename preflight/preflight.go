package preflight

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/keel-hq/etcdtree/internal/k8s"
	"github.com/keel-hq/etcdtree/pkg/store"
	"github.com/keel-hq/etcdtree/util/version"

	log "github.com/sirupsen/logrus"
)

// ErrSkipped - check was not run because a capability it depends on is missing
var ErrSkipped = errors.New("skipped, depends on a missing capability")

// Check - single required capability
type Check interface {
	Name() string
	Check(ctx context.Context) error
}

// Missing - capability that failed its check
type Missing struct {
	Name string
	Err  error
}

// MissingError - every capability that is not available
type MissingError struct {
	Missing []Missing
}

func (e *MissingError) Error() string {
	lines := []string{fmt.Sprintf("%d required capabilities are missing:", len(e.Missing))}
	for _, m := range e.Missing {
		lines = append(lines, fmt.Sprintf("  %s: %s", m.Name, m.Err))
	}
	return strings.Join(lines, "\n")
}

// Names - names of missing capabilities
func (e *MissingError) Names() []string {
	names := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		names = append(names, m.Name)
	}
	return names
}

// Run - runs every check in order. Once a check fails, checks after it that
// implement Dependent and depend on it are reported as skipped.
func Run(ctx context.Context, checks ...Check) error {
	failed := map[string]bool{}
	missing := []Missing{}

	for _, c := range checks {
		if d, ok := c.(Dependent); ok {
			if dep := firstFailed(failed, d.DependsOn()); dep != "" {
				failed[c.Name()] = true
				missing = append(missing, Missing{Name: c.Name(), Err: fmt.Errorf("%w (%s)", ErrSkipped, dep)})
				continue
			}
		}

		if err := c.Check(ctx); err != nil {
			failed[c.Name()] = true
			missing = append(missing, Missing{Name: c.Name(), Err: err})
			continue
		}
		log.WithField("check", c.Name()).Debug("preflight: ok")
	}

	if len(missing) > 0 {
		return &MissingError{Missing: missing}
	}
	return nil
}

func firstFailed(failed map[string]bool, deps []string) string {
	for _, d := range deps {
		if failed[d] {
			return d
		}
	}
	return ""
}

// Dependent - check that only makes sense when other checks passed
type Dependent interface {
	DependsOn() []string
}

// check names
const (
	NameCluster = "kubernetes cluster"
	NameEtcdPod = "etcd pod"
	NameEtcdctl = "etcdctl"
	NameCodec   = "codec"
)

// ClusterCheck - API server reachable with the configured credentials.
// Implementer is nil when the client could not be created, InitErr says why.
type ClusterCheck struct {
	Implementer k8s.Implementer
	InitErr     error
}

func (c *ClusterCheck) Name() string { return NameCluster }

func (c *ClusterCheck) Check(ctx context.Context) error {
	if c.InitErr != nil {
		return c.InitErr
	}
	if c.Implementer == nil {
		return fmt.Errorf("kubernetes client is not configured")
	}
	v, err := c.Implementer.ServerVersion()
	if err != nil {
		return fmt.Errorf("API server unreachable: %w", err)
	}
	log.WithField("server_version", v).Debug("preflight: connected to cluster")
	return nil
}

// PodCheck - etcd pod can be found
type PodCheck struct {
	Locator *k8s.PodLocator
}

func (c *PodCheck) Name() string        { return NameEtcdPod }
func (c *PodCheck) DependsOn() []string { return []string{NameCluster} }

func (c *PodCheck) Check(ctx context.Context) error {
	_, err := c.Locator.Locate(ctx)
	return err
}

// EtcdctlCheck - etcdctl runs inside the etcd pod and is new enough
type EtcdctlCheck struct {
	Store      store.Store
	Constraint string
}

func (c *EtcdctlCheck) Name() string        { return NameEtcdctl }
func (c *EtcdctlCheck) DependsOn() []string { return []string{NameCluster, NameEtcdPod} }

func (c *EtcdctlCheck) Check(ctx context.Context) error {
	v, err := c.Store.Version(ctx)
	if err != nil {
		return err
	}
	ok, err := version.Satisfies(v, c.Constraint)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("etcdctl %s does not satisfy %s", v, c.Constraint)
	}
	return nil
}

// BinaryCheck - external binary available in PATH
type BinaryCheck struct {
	Binary string
	// LookPath defaults to exec.LookPath
	LookPath func(file string) (string, error)
}

func (c *BinaryCheck) Name() string { return NameCodec }

func (c *BinaryCheck) Check(ctx context.Context) error {
	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(c.Binary)
	if err != nil {
		return fmt.Errorf("%s not found: %w", c.Binary, err)
	}
	log.WithField("path", path).Debug("preflight: codec binary found")
	return nil
}
