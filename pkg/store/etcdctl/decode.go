package etcdctl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/keel-hq/etcdtree/pkg/store"
	"github.com/keel-hq/etcdtree/types"
)

// kv - single entry of `etcdctl get --write-out=json`. etcdctl base64
// encodes keys and values, decoding into []byte reverses it exactly.
type kv struct {
	Key         []byte `json:"key"`
	Value       []byte `json:"value"`
	ModRevision int64  `json:"mod_revision"`
}

// DecodeRecords - walks the response token by token and hands entries of the
// "kvs" array to fn one at a time, other fields are skipped. Responses
// without "kvs" (no keys under the prefix) produce no records.
func DecodeRecords(r io.Reader, fn func(*types.Record) error) error {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return store.ErrEmptyResponse
		}
		return err
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected field name, got %v", tok)
		}

		if name != "kvs" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("field %s: %w", name, err)
			}
			continue
		}

		if err := decodeKVs(dec, fn); err != nil {
			return err
		}
	}

	_, err = dec.Token()
	return err
}

func decodeKVs(dec *json.Decoder, fn func(*types.Record) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if tok != json.Delim('[') {
		return fmt.Errorf("kvs: expected array, got %v", tok)
	}

	for dec.More() {
		var entry kv
		if err := dec.Decode(&entry); err != nil {
			return fmt.Errorf("kvs: %w", err)
		}
		err := fn(&types.Record{
			Key:         entry.Key,
			Value:       entry.Value,
			ModRevision: entry.ModRevision,
		})
		if err != nil {
			return err
		}
	}

	_, err = dec.Token()
	return err
}
