package k8s

import (
	"context"
	"fmt"
	"io"

	v1 "k8s.io/api/core/v1"
	meta_v1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/remotecommand"

	log "github.com/sirupsen/logrus"
)

// Implementer - thin wrapper around the k8s APIs etcdtree needs to reach
// the etcd pod
type Implementer interface {
	Pods(ctx context.Context, namespace, selector string) (*v1.PodList, error)
	Exec(ctx context.Context, req *ExecRequest) error
	ServerVersion() (string, error)
}

// ExecRequest - command to run inside a pod container. Nil streams are not
// attached.
type ExecRequest struct {
	Namespace string
	Pod       string
	Container string
	Command   []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// KubernetesImplementer - default kubernetes client implementer
type KubernetesImplementer struct {
	cfg    *rest.Config
	client kubernetes.Interface
}

// Opts - implementer options, outside of the cluster kubeconfig is used
type Opts struct {
	// if set - kube config options will be ignored
	InCluster  bool
	ConfigPath string
	Master     string
}

// NewKubernetesImplementer - create new k8s implementer
func NewKubernetesImplementer(opts *Opts) (*KubernetesImplementer, error) {
	cfg := &rest.Config{}

	if opts.InCluster {
		var err error
		cfg, err = rest.InClusterConfig()
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("k8s: failed to get kubernetes config")
			return nil, err
		}
		log.Debug("k8s: using in-cluster configuration")
	} else if opts.ConfigPath != "" || opts.Master != "" {
		var err error
		cfg, err = clientcmd.BuildConfigFromFlags(opts.Master, opts.ConfigPath)
		if err != nil {
			log.WithFields(log.Fields{
				"error":  err,
				"config": opts.ConfigPath,
			}).Error("k8s: failed to get cmd kubernetes config")
			return nil, err
		}
	} else {
		return nil, fmt.Errorf("kubernetes config is missing")
	}

	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Error("k8s: failed to create kubernetes client")
		return nil, err
	}

	return NewImplementerForClient(client, cfg), nil
}

// NewImplementerForClient - wraps an existing client, cfg is only needed for Exec
func NewImplementerForClient(client kubernetes.Interface, cfg *rest.Config) *KubernetesImplementer {
	return &KubernetesImplementer{client: client, cfg: cfg}
}

// Client - returns underlying clientset
func (i *KubernetesImplementer) Client() kubernetes.Interface {
	return i.client
}

// Pods - list pods matching label selector
func (i *KubernetesImplementer) Pods(ctx context.Context, namespace, selector string) (*v1.PodList, error) {
	return i.client.CoreV1().Pods(namespace).List(ctx, meta_v1.ListOptions{LabelSelector: selector})
}

// ServerVersion - API server git version, doubles as a connectivity check
func (i *KubernetesImplementer) ServerVersion() (string, error) {
	info, err := i.client.Discovery().ServerVersion()
	if err != nil {
		return "", err
	}
	return info.GitVersion, nil
}

// Exec - runs command inside the pod through the exec subresource
func (i *KubernetesImplementer) Exec(ctx context.Context, req *ExecRequest) error {
	if i.cfg == nil {
		return fmt.Errorf("k8s: exec requires rest config")
	}
	if len(req.Command) == 0 {
		return fmt.Errorf("k8s: empty command")
	}

	r := i.client.CoreV1().RESTClient().Post().
		Resource("pods").
		Namespace(req.Namespace).
		Name(req.Pod).
		SubResource("exec").
		VersionedParams(&v1.PodExecOptions{
			Container: req.Container,
			Command:   req.Command,
			Stdin:     req.Stdin != nil,
			Stdout:    req.Stdout != nil,
			Stderr:    req.Stderr != nil,
		}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(i.cfg, "POST", r.URL())
	if err != nil {
		return fmt.Errorf("k8s: failed to create executor: %w", err)
	}

	log.WithFields(log.Fields{
		"namespace": req.Namespace,
		"pod":       req.Pod,
		"container": req.Container,
		"command":   req.Command[0],
	}).Debug("k8s: exec")

	return executor.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdin:  req.Stdin,
		Stdout: req.Stdout,
		Stderr: req.Stderr,
	})
}
