package codecs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ExecCodec - runs an external binary (auger compatible) as
// `<binary> decode` and `<binary> encode`, value on stdin, result on stdout.
// Non-zero exit status is a failure.
type ExecCodec struct {
	binary string
}

// NewExecCodec - binary is either a name looked up in PATH or a path
func NewExecCodec(binary string) *ExecCodec {
	return &ExecCodec{binary: binary}
}

// Decode - binary value into YAML
func (c *ExecCodec) Decode(ctx context.Context, r io.Reader) ([]byte, error) {
	return c.run(ctx, "decode", r)
}

// Encode - YAML into binary value
func (c *ExecCodec) Encode(ctx context.Context, r io.Reader) ([]byte, error) {
	return c.run(ctx, "encode", r)
}

func (c *ExecCodec) Name() string { return c.binary }

func (c *ExecCodec) run(ctx context.Context, verb string, r io.Reader) ([]byte, error) {
	stdout := &bytes.Buffer{}
	stderr := getBuffer()
	defer releaseBuffer(stderr)

	cmd := exec.CommandContext(ctx, c.binary, verb)
	cmd.Stdin = r
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s %s: %w", c.binary, verb, err)
		}
		return nil, fmt.Errorf("%s %s: %w: %s", c.binary, verb, err, msg)
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%s %s: %w", c.binary, verb, ErrEmptyOutput)
	}

	return stdout.Bytes(), nil
}
