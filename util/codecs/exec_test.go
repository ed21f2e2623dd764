package codecs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const fakeAuger = `#!/bin/sh
in=$(cat)
case "$in" in
	*corrupt*) echo "error decoding from json: unexpected EOF" >&2; exit 1;;
	*empty*) exit 0;;
esac
case "$1" in
	decode) printf 'yaml:%s' "$in";;
	encode) printf 'bin:%s' "$in";;
	*) echo "unknown command $1" >&2; exit 2;;
esac
`

func fakeCodecBinary(t *testing.T) string {
	if runtime.GOOS == "windows" {
		t.Skip("shell script codec")
	}
	path := filepath.Join(t.TempDir(), "auger")
	if err := os.WriteFile(path, []byte(fakeAuger), 0755); err != nil {
		t.Fatalf("failed to write fake codec: %s", err)
	}
	return path
}

func TestExecCodec(t *testing.T) {
	c := NewExecCodec(fakeCodecBinary(t))
	ctx := context.Background()

	out, err := c.Decode(ctx, strings.NewReader("k8s-pod-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(out) != "yaml:k8s-pod-bytes" {
		t.Errorf("unexpected decode output: %q", out)
	}

	out, err = c.Encode(ctx, strings.NewReader("kind: Pod"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(out) != "bin:kind: Pod" {
		t.Errorf("unexpected encode output: %q", out)
	}
}

func TestExecCodecFailure(t *testing.T) {
	c := NewExecCodec(fakeCodecBinary(t))

	_, err := c.Decode(context.Background(), strings.NewReader("corrupt"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "unexpected EOF") {
		t.Errorf("expected stderr in error, got: %s", err)
	}
}

func TestExecCodecEmptyOutput(t *testing.T) {
	c := NewExecCodec(fakeCodecBinary(t))

	_, err := c.Decode(context.Background(), strings.NewReader("empty"))
	if !errors.Is(err, ErrEmptyOutput) {
		t.Errorf("expected ErrEmptyOutput, got: %v", err)
	}
}

func TestExecCodecMissingBinary(t *testing.T) {
	c := NewExecCodec(filepath.Join(t.TempDir(), "does-not-exist"))

	_, err := c.Decode(context.Background(), strings.NewReader("x"))
	if err == nil {
		t.Errorf("expected error")
	}
}
