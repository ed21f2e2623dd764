package main

import (
	"github.com/keel-hq/etcdtree/constants"
	"github.com/keel-hq/etcdtree/internal/config"
	"github.com/keel-hq/etcdtree/internal/k8s"
	"github.com/keel-hq/etcdtree/pkg/store"
	"github.com/keel-hq/etcdtree/pkg/store/etcdctl"
	"github.com/keel-hq/etcdtree/preflight"
	"github.com/keel-hq/etcdtree/types"
	"github.com/keel-hq/etcdtree/util/codecs"

	log "github.com/sirupsen/logrus"
)

type environment struct {
	store  store.Store
	codec  codecs.Codec
	checks []preflight.Check
}

// setup - wires collaborators from config. Failures are not fatal here,
// they surface through the preflight checks so every missing capability is
// reported at once.
func setup(cfg *config.Config) *environment {
	env := &environment{}

	implementer, err := k8s.NewKubernetesImplementer(&k8s.Opts{
		InCluster:  cfg.Kubernetes.InCluster,
		ConfigPath: config.ExpandHome(cfg.Kubernetes.Kubeconfig),
		Master:     cfg.Kubernetes.Master,
	})
	clusterCheck := &preflight.ClusterCheck{InitErr: err}
	if err == nil {
		clusterCheck.Implementer = implementer
	}
	env.checks = append(env.checks, clusterCheck)

	if err == nil {
		locator := &k8s.PodLocator{
			Implementer: implementer,
			Namespace:   cfg.Etcd.Namespace,
			Selector:    cfg.Etcd.Selector,
		}
		env.store = etcdctl.New(etcdctl.Opts{
			Implementer: implementer,
			Locator:     locator,
			Container:   cfg.Etcd.Container,
			Endpoint:    cfg.Etcd.Endpoint,
			CACert:      cfg.Etcd.CACert,
			Cert:        cfg.Etcd.Cert,
			Key:         cfg.Etcd.Key,
		})
		env.checks = append(env.checks,
			&preflight.PodCheck{Locator: locator},
			&preflight.EtcdctlCheck{Store: env.store, Constraint: constants.MinEtcdctlVersion},
		)
	}

	switch cfg.CodecType() {
	case types.CodecTypeBuiltin:
		env.codec = codecs.NewKubeCodec()
	default:
		env.codec = codecs.NewExecCodec(cfg.Codec)
		env.checks = append(env.checks, &preflight.BinaryCheck{Binary: cfg.Codec})
	}

	log.WithFields(log.Fields{
		"codec":     env.codec.Name(),
		"namespace": cfg.Etcd.Namespace,
		"selector":  cfg.Etcd.Selector,
	}).Debug("main: collaborators configured")

	return env
}
