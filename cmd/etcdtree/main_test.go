package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keel-hq/etcdtree/internal/config"
	"github.com/keel-hq/etcdtree/internal/keypath"
)

// logged - entries of the standard logger with the given message
func logged(hook *test.Hook, msg string) []string {
	found := []string{}
	for _, e := range hook.AllEntries() {
		if e.Message == msg {
			found = append(found, e.Message)
		}
	}
	return found
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestFlagsApply(t *testing.T) {
	f := &flags{
		inCluster:   boolPtr(false),
		kubeconfig:  strPtr("/etc/kubernetes/admin.conf"),
		namespace:   strPtr(""),
		selector:    strPtr("tier=control-plane,component=etcd"),
		container:   strPtr(""),
		codec:       strPtr("builtin"),
		out:         strPtr("/srv/dump"),
		prefix:      strPtr(""),
		metricsFile: strPtr(""),
	}

	cfg := config.Defaults()
	f.apply(cfg)

	assert.Equal(t, "/etc/kubernetes/admin.conf", cfg.Kubernetes.Kubeconfig)
	assert.Equal(t, "kube-system", cfg.Etcd.Namespace)
	assert.Equal(t, "tier=control-plane,component=etcd", cfg.Etcd.Selector)
	assert.Equal(t, "etcd", cfg.Etcd.Container)
	assert.Equal(t, "builtin", cfg.Codec)
	assert.Equal(t, "/srv/dump", cfg.Dump.OutputDir)
	assert.Equal(t, "/registry", cfg.Dump.Prefix)
	assert.False(t, cfg.Kubernetes.InCluster)
}

func TestRunWithoutCommand(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	kubeconfig := filepath.Join(t.TempDir(), "missing-kubeconfig")
	assert.Equal(t, 1, run([]string{"--codec=builtin", "--kubeconfig=" + kubeconfig}))
	assert.Len(t, logged(hook, "main: prerequisites are missing"), 1)
}

func TestRunPutyamlOutsideAnchor(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	dir := t.TempDir()
	kubeconfig := filepath.Join(dir, "missing-kubeconfig")
	file := filepath.Join(dir, "x", "foo.yaml")
	assert.Equal(t, 1, run([]string{"--codec=builtin", "--kubeconfig=" + kubeconfig, "putyaml", file}))

	assert.Empty(t, logged(hook, "main: prerequisites are missing"))
	require.Len(t, logged(hook, "main: putyaml failed"), 1)
	for _, e := range hook.AllEntries() {
		if e.Message == "main: putyaml failed" {
			err, ok := e.Data["error"].(error)
			require.True(t, ok)
			assert.True(t, errors.Is(err, keypath.ErrAnchorNotFound))
		}
	}
}

func TestRunUnknownCommand(t *testing.T) {
	kubeconfig := filepath.Join(t.TempDir(), "missing-kubeconfig")
	assert.Equal(t, 1, run([]string{"--codec=builtin", "--kubeconfig=" + kubeconfig, "restore"}))
}

func TestRunMissingPrerequisites(t *testing.T) {
	kubeconfig := filepath.Join(t.TempDir(), "missing-kubeconfig")
	assert.Equal(t, 1, run([]string{"--codec=builtin", "--kubeconfig=" + kubeconfig, "dump"}))
}
