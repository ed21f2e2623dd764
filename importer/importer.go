package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/keel-hq/etcdtree/approvals"
	"github.com/keel-hq/etcdtree/internal/keypath"
	"github.com/keel-hq/etcdtree/internal/stats"
	"github.com/keel-hq/etcdtree/pkg/store"
	"github.com/keel-hq/etcdtree/types"
	"github.com/keel-hq/etcdtree/util/codecs"

	log "github.com/sirupsen/logrus"
)

// ErrNotAFile - putyaml only accepts regular files
var ErrNotAFile = errors.New("not a regular file")

// Opts - importer options
type Opts struct {
	Store    store.Store
	Codec    codecs.Codec
	Approver approvals.Approver
	// Anchor - first key segment, files without it in their path are refused
	Anchor string

	// optional
	Stats       *stats.Stats
	FieldLogger log.FieldLogger
}

// Importer - writes a single edited file back to the store. A non-empty file
// is encoded and put, an empty file deletes the key. Both ask first.
type Importer struct {
	store    store.Store
	codec    codecs.Codec
	approver approvals.Approver
	anchor   string
	stats    *stats.Stats
	log      log.FieldLogger
}

// New - creates importer
func New(opts *Opts) *Importer {
	l := opts.FieldLogger
	if l == nil {
		l = log.StandardLogger()
	}
	return &Importer{
		store:    opts.Store,
		codec:    opts.Codec,
		approver: opts.Approver,
		anchor:   opts.Anchor,
		stats:    opts.Stats,
		log:      l,
	}
}

// Resolve - absolute path of filePath and the key it maps to
func (i *Importer) Resolve(filePath string) (string, string, error) {
	return Resolve(filePath, i.anchor)
}

// Resolve - absolute path of filePath and the key it maps to under anchor.
// Needs no store, the CLI refuses files outside the anchor before touching
// the cluster.
func Resolve(filePath, anchor string) (string, string, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return "", "", err
	}

	key, err := keypath.KeyOf(abs, string(filepath.Separator), anchor)
	if err != nil {
		return "", "", fmt.Errorf("putyaml: refusing to write %s: %w", filePath, err)
	}
	return abs, key, nil
}

// WriteOne - puts or deletes the key filePath was dumped from. A declined
// confirmation is reported through the outcome, not as an error.
func (i *Importer) WriteOne(ctx context.Context, filePath string) (types.Outcome, error) {
	abs, key, err := i.Resolve(filePath)
	if err != nil {
		return types.OutcomeUnknown, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return types.OutcomeUnknown, err
	}
	if !info.Mode().IsRegular() {
		return types.OutcomeUnknown, fmt.Errorf("putyaml: %s: %w", abs, ErrNotAFile)
	}

	var outcome types.Outcome
	if info.Size() == 0 {
		outcome, err = i.delete(ctx, abs, key)
	} else {
		outcome, err = i.put(ctx, abs, key)
	}
	if err != nil {
		return outcome, err
	}

	i.stats.Outcome(outcome)
	i.log.WithFields(log.Fields{
		"path":    abs,
		"key":     key,
		"outcome": outcome.String(),
	}).Info("putyaml: done")

	return outcome, nil
}

func (i *Importer) put(ctx context.Context, path, key string) (types.Outcome, error) {
	ok, err := i.approver.Approve(fmt.Sprintf("Write %s to %s?", path, key))
	if err != nil {
		return types.OutcomeUnknown, err
	}
	if !ok {
		return types.OutcomeSkippedWrite, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return types.OutcomeUnknown, err
	}
	defer f.Close()

	encoded, err := i.codec.Encode(ctx, f)
	if err != nil {
		return types.OutcomeUnknown, fmt.Errorf("putyaml: failed to encode %s: %w", path, err)
	}
	if len(encoded) == 0 {
		return types.OutcomeUnknown, fmt.Errorf("putyaml: failed to encode %s: %w", path, codecs.ErrEmptyOutput)
	}

	err = i.store.Put(ctx, key, bytes.NewReader(encoded))
	if err != nil {
		return types.OutcomeUnknown, fmt.Errorf("putyaml: failed to put %s: %w", key, err)
	}
	return types.OutcomeWritten, nil
}

func (i *Importer) delete(ctx context.Context, path, key string) (types.Outcome, error) {
	ok, err := i.approver.Approve(fmt.Sprintf("%s is empty. Delete %s?", path, key))
	if err != nil {
		return types.OutcomeUnknown, err
	}
	if !ok {
		return types.OutcomeSkippedDelete, nil
	}

	err = i.store.Delete(ctx, key)
	if err != nil {
		return types.OutcomeUnknown, fmt.Errorf("putyaml: failed to delete %s: %w", key, err)
	}
	return types.OutcomeDeleted, nil
}
