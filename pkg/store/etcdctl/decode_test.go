package etcdctl

import (
	"strings"
	"testing"

	"github.com/keel-hq/etcdtree/types"
)

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []string
		wantErr  bool
	}{
		{
			name:     "fields around kvs",
			response: `{"header":{"revision":7},"kvs":[{"key":"L3JlZ2lzdHJ5L2E=","value":"MQ=="}],"more":false,"count":1}`,
			want:     []string{"/registry/a=1"},
		},
		{
			name:     "null kvs",
			response: `{"header":{},"kvs":null}`,
			want:     []string{},
		},
		{
			name:     "empty kvs",
			response: `{"kvs":[]}`,
			want:     []string{},
		},
		{
			name:     "empty value",
			response: `{"kvs":[{"key":"L3JlZ2lzdHJ5L2E="}]}`,
			want:     []string{"/registry/a="},
		},
		{
			name:     "not an object",
			response: `[1,2]`,
			wantErr:  true,
		},
		{
			name:     "truncated",
			response: `{"kvs":[{"key":"L3JlZ2lzdHJ5L2E=","value":"MQ=="}`,
			want:     []string{"/registry/a=1"},
			wantErr:  true,
		},
		{
			name:     "kvs is not an array",
			response: `{"kvs":{}}`,
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			err := DecodeRecords(strings.NewReader(tt.response), func(r *types.Record) error {
				got = append(got, string(r.Key)+"="+string(r.Value))
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeRecords() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.want == nil {
				return
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("DecodeRecords() = %v, want %v", got, tt.want)
			}
		})
	}
}
