package codecs

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/serializer/json"
	"k8s.io/apimachinery/pkg/runtime/serializer/protobuf"
	"k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/yaml"
)

// protobufPrefix - magic bytes prepended to every protobuf encoded object
var protobufPrefix = []byte{0x6b, 0x38, 0x73, 0x00}

// KubeCodec - in-process codec for values written by the API server. Built-in
// kinds are stored as protobuf, custom resources and aggregated APIs as JSON.
type KubeCodec struct {
	scheme   *runtime.Scheme
	protobuf *protobuf.Serializer
	yaml     *json.Serializer
}

// NewKubeCodec - codec for every kind registered in client-go's scheme
func NewKubeCodec() *KubeCodec {
	return NewKubeCodecForScheme(scheme.Scheme)
}

// NewKubeCodecForScheme - codec for kinds registered in s
func NewKubeCodecForScheme(s *runtime.Scheme) *KubeCodec {
	return &KubeCodec{
		scheme:   s,
		protobuf: protobuf.NewSerializer(s, s),
		yaml: json.NewSerializerWithOptions(json.DefaultMetaFactory, s, s, json.SerializerOptions{
			Yaml: true,
		}),
	}
}

func (c *KubeCodec) Name() string { return "builtin" }

// Decode - protobuf or json value into YAML
func (c *KubeCodec) Decode(ctx context.Context, r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	if bytes.HasPrefix(data, protobufPrefix) {
		obj, gvk, err := c.protobuf.Decode(data, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decode protobuf: %w", err)
		}
		obj.GetObjectKind().SetGroupVersionKind(*gvk)

		buf := &bytes.Buffer{}
		if err := c.yaml.Encode(obj, buf); err != nil {
			return nil, fmt.Errorf("failed to encode %s as yaml: %w", gvk.Kind, err)
		}
		return nonEmpty(buf.Bytes())
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		out, err := yaml.JSONToYAML(trimmed)
		if err != nil {
			return nil, fmt.Errorf("failed to convert json to yaml: %w", err)
		}
		return nonEmpty(out)
	}

	return nil, ErrUnknownFormat
}

// Encode - YAML into protobuf for registered kinds, json otherwise
func (c *KubeCodec) Encode(ctx context.Context, r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}

	obj, gvk, err := c.yaml.Decode(data, nil, nil)
	switch {
	case err == nil:
		buf := &bytes.Buffer{}
		if err := c.protobuf.Encode(obj, buf); err != nil {
			return nil, fmt.Errorf("failed to encode %s as protobuf: %w", gvk.Kind, err)
		}
		return nonEmpty(buf.Bytes())
	case runtime.IsNotRegisteredError(err):
		out, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to convert yaml to json: %w", err)
		}
		return nonEmpty(append(out, '\n'))
	default:
		return nil, fmt.Errorf("failed to decode yaml: %w", err)
	}
}

func nonEmpty(b []byte) ([]byte, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, ErrEmptyOutput
	}
	return b, nil
}
