package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keel-hq/etcdtree/dump"
	"github.com/keel-hq/etcdtree/types"
	testutil "github.com/keel-hq/etcdtree/util/testing"
)

func TestDumpEditPutDelete(t *testing.T) {
	logger, _ := test.NewNullLogger()
	out := filepath.Join(t.TempDir(), "out")
	fs := testutil.NewFakeStore(map[string][]byte{
		"/registry/pods/default/foo":   []byte("X"),
		"/registry/secrets/default/s1": []byte("S"),
	})
	codec := &testutil.FakeCodec{}

	p := dump.New(&dump.Opts{Store: fs, Codec: codec, OutputDir: out, FieldLogger: logger})
	_, err := p.Run(context.Background(), "/registry", "/registry/pods/*")
	require.NoError(t, err)

	path := filepath.Join(out, "registry", "pods", "default", "foo.yaml")
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml:X", string(b))

	_, err = os.Stat(filepath.Join(out, "registry", "secrets"))
	assert.True(t, os.IsNotExist(err))

	i := New(&Opts{
		Store:       fs,
		Codec:       codec,
		Approver:    &testutil.FakeApprover{Answer: true},
		Anchor:      "registry",
		FieldLogger: logger,
	})

	require.NoError(t, os.WriteFile(path, []byte("Y"), 0644))
	outcome, err := i.WriteOne(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeWritten, outcome)
	assert.Equal(t, "bin:Y", string(fs.Data["/registry/pods/default/foo"]))

	require.NoError(t, os.Truncate(path, 0))
	outcome, err = i.WriteOne(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeDeleted, outcome)
	assert.NotContains(t, fs.Data, "/registry/pods/default/foo")
	assert.Contains(t, fs.Data, "/registry/secrets/default/s1")
}
