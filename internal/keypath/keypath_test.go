package keypath

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathOf(t *testing.T) {
	type args struct {
		root string
		key  string
	}
	tests := []struct {
		name    string
		args    args
		want    string
		wantErr error
	}{
		{
			name: "pod",
			args: args{root: "out", key: "/registry/pods/default/foo"},
			want: filepath.Join("out", "registry", "pods", "default", "foo.yaml"),
		},
		{
			name: "no leading separator",
			args: args{root: "out", key: "registry/pods/default/foo"},
			want: filepath.Join("out", "registry", "pods", "default", "foo.yaml"),
		},
		{
			name: "anchor only",
			args: args{root: "/tmp/out", key: "/registry"},
			want: "/tmp/out/registry.yaml",
		},
		{
			name: "dots inside segment",
			args: args{root: "out", key: "/registry/apiregistration.k8s.io/apiservices/v1.apps"},
			want: filepath.Join("out", "registry", "apiregistration.k8s.io", "apiservices", "v1.apps.yaml"),
		},
		{
			name:    "traversal",
			args:    args{root: "out", key: "/registry/../../etc/passwd"},
			wantErr: ErrUnsafeKey,
		},
		{
			name:    "current dir segment",
			args:    args{root: "out", key: "/registry/./pods"},
			wantErr: ErrUnsafeKey,
		},
		{
			name:    "double separator",
			args:    args{root: "out", key: "/registry//pods"},
			wantErr: ErrUnsafeKey,
		},
		{
			name:    "trailing separator",
			args:    args{root: "out", key: "/registry/pods/"},
			wantErr: ErrUnsafeKey,
		},
		{
			name:    "empty",
			args:    args{root: "out", key: ""},
			wantErr: ErrUnsafeKey,
		},
		{
			name:    "nul byte",
			args:    args{root: "out", key: "/registry/a\x00b"},
			wantErr: ErrUnsafeKey,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PathOf(tt.args.root, tt.args.key)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("PathOf() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("PathOf() unexpected error: %s", err)
			}
			if got != tt.want {
				t.Errorf("PathOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeyOf(t *testing.T) {
	type args struct {
		path   string
		root   string
		anchor string
	}
	tests := []struct {
		name    string
		args    args
		want    string
		wantErr error
	}{
		{
			name: "dumped pod",
			args: args{path: "/home/ops/out/registry/pods/default/foo.yaml", root: "/", anchor: "registry"},
			want: "/registry/pods/default/foo",
		},
		{
			name: "relative root",
			args: args{path: "out/registry/pods/default/foo.yaml", root: "out", anchor: "registry"},
			want: "/registry/pods/default/foo",
		},
		{
			name: "only final suffix stripped",
			args: args{path: "/out/registry/configmaps/default/app.yaml.yaml", root: "/", anchor: "registry"},
			want: "/registry/configmaps/default/app.yaml",
		},
		{
			name: "dotted name without suffix",
			args: args{path: "/out/registry/apiregistration.k8s.io/apiservices/v1.apps", root: "/", anchor: "registry"},
			want: "/registry/apiregistration.k8s.io/apiservices/v1.apps",
		},
		{
			name: "first anchor wins",
			args: args{path: "/srv/registry/dump/registry/pods/a.yaml", root: "/", anchor: "registry"},
			want: "/registry/dump/registry/pods/a",
		},
		{
			name: "anchor file",
			args: args{path: "/out/registry.yaml", root: "/", anchor: "registry"},
			want: "/registry",
		},
		{
			name: "anchor above root is ignored",
			args: args{path: "/registry/out/pods/a.yaml", root: "/registry/out", anchor: "registry"},
			wantErr: ErrAnchorNotFound,
		},
		{
			name:    "no anchor",
			args:    args{path: "/home/ops/pods/default/foo.yaml", root: "/", anchor: "registry"},
			wantErr: ErrAnchorNotFound,
		},
		{
			name:    "anchor as substring only",
			args:    args{path: "/home/ops/myregistry/pods/foo.yaml", root: "/", anchor: "registry"},
			wantErr: ErrAnchorNotFound,
		},
		{
			name:    "empty anchor",
			args:    args{path: "/out/registry/pods/foo.yaml", root: "/", anchor: ""},
			wantErr: ErrAnchorNotFound,
		},
		{
			name:    "outside root",
			args:    args{path: "/etc/registry/foo.yaml", root: "/home/ops/out", anchor: "registry"},
			wantErr: ErrOutsideRoot,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KeyOf(tt.args.path, tt.args.root, tt.args.anchor)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("KeyOf() error = %v, wantErr %v", err, tt.wantErr)
				}
				if got != "" {
					t.Errorf("KeyOf() returned partial key %q on error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("KeyOf() unexpected error: %s", err)
			}
			if got != tt.want {
				t.Errorf("KeyOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	keys := []string{
		"/registry",
		"/registry/pods/default/foo",
		"/registry/secrets/kube-system/bootstrap-token-abcdef",
		"/registry/apiextensions.k8s.io/customresourcedefinitions/widgets.example.com",
		"/registry/configmaps/default/weird name with spaces",
		"/registry/events/default/foo.17a2b3c4d5e6f7a8",
		"/registry/masterleases/10.0.0.1",
		"/registry/ranges/serviceips",
		"/registry/x/registry/y.yaml",
	}

	for _, root := range []string{"out", "/var/tmp/out", t.TempDir()} {
		for _, key := range keys {
			p, err := PathOf(root, key)
			require.NoError(t, err, key)

			got, err := KeyOf(p, root, "registry")
			require.NoError(t, err, p)
			assert.Equal(t, key, got)

			again, err := PathOf(root, got)
			require.NoError(t, err)
			assert.Equal(t, p, again)
		}
	}
}

func TestPathOfYAMLSegmentCollision(t *testing.T) {
	file, err := PathOf("/out", "/registry/a")
	require.NoError(t, err)
	nested, err := PathOf("/out", "/registry/a.yaml/x")
	require.NoError(t, err)

	assert.Equal(t, file, filepath.Dir(nested))
}
