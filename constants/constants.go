package constants

// DefaultNamespace - namespace where the etcd static pod lives on kubeadm clusters
const DefaultNamespace = "kube-system"

// DefaultEtcdSelector - label selector used to find the etcd pod
const DefaultEtcdSelector = "component=etcd"

// DefaultEtcdContainer - container inside the etcd pod that has etcdctl available
const DefaultEtcdContainer = "etcd"

// DefaultEtcdEndpoint - etcd client endpoint as seen from inside the etcd pod
const DefaultEtcdEndpoint = "https://127.0.0.1:2379"

// well-known kubeadm certificate locations on the etcd pod filesystem
const (
	DefaultEtcdCACert = "/etc/kubernetes/pki/etcd/ca.crt"
	DefaultEtcdCert   = "/etc/kubernetes/pki/etcd/server.crt"
	DefaultEtcdKey    = "/etc/kubernetes/pki/etcd/server.key"
)

// DefaultAnchor - top level key segment that marks the keys etcdtree may write
const DefaultAnchor = "registry"

// DefaultPrefix - prefix dumped when nothing else is configured
const DefaultPrefix = "/" + DefaultAnchor

// DefaultOutputDir - directory (relative to the working directory) dump writes into
const DefaultOutputDir = "out"

// FileSuffix - suffix appended to every dumped key
const FileSuffix = ".yaml"

// DefaultCodecBinary - external codec used when the built-in one is not selected
const DefaultCodecBinary = "auger"

// CodecBuiltin - codec name selecting the in-process protobuf/json codec
const CodecBuiltin = "builtin"

// MinEtcdctlVersion - oldest etcdctl that defaults to the v3 API and supports --write-out=json
const MinEtcdctlVersion = ">= 3.4.0"

// environment variables
const (
	EnvDebug            = "DEBUG"
	EnvKubernetesConfig = "KUBERNETES_CONFIG"
	EnvConfigFile       = "ETCDTREE_CONFIG"
	EnvCodec            = "ETCDTREE_CODEC"
	EnvMetricsFile      = "ETCDTREE_METRICS_FILE"
)
