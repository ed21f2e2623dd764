package dump

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/keel-hq/etcdtree/internal/keypath"
	"github.com/keel-hq/etcdtree/internal/policy"
	"github.com/keel-hq/etcdtree/internal/stats"
	"github.com/keel-hq/etcdtree/pkg/store"
	"github.com/keel-hq/etcdtree/types"
	"github.com/keel-hq/etcdtree/util/codecs"

	log "github.com/sirupsen/logrus"
)

// Opts - dump processor options
type Opts struct {
	Store     store.Store
	Codec     codecs.Codec
	OutputDir string

	// optional
	Stats       *stats.Stats
	FieldLogger log.FieldLogger
}

// Processor - streams a snapshot of the store into a file tree, one record
// at a time. A record that cannot be decoded or written is reported and
// skipped, only a failing store read aborts the run.
type Processor struct {
	store     store.Store
	codec     codecs.Codec
	outputDir string
	stats     *stats.Stats
	log       log.FieldLogger
}

// Result - what happened to the records of a run
type Result struct {
	Total    int
	Filtered int
	Written  int
	Failed   int
}

// New - creates dump processor
func New(opts *Opts) *Processor {
	l := opts.FieldLogger
	if l == nil {
		l = log.StandardLogger()
	}
	return &Processor{
		store:     opts.Store,
		codec:     opts.Codec,
		outputDir: opts.OutputDir,
		stats:     opts.Stats,
		log:       l,
	}
}

// Run - exports every key under prefix matching the glob pattern
func (p *Processor) Run(ctx context.Context, prefix, pattern string) (*Result, error) {
	filter := policy.NewGlobFilter(pattern)
	result := &Result{}

	err := p.store.Dump(ctx, prefix, func(r *types.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		result.Total++

		key := r.String()
		if !filter.Match(key) {
			result.Filtered++
			p.stats.Record(stats.ResultFiltered)
			return nil
		}

		path, err := p.export(ctx, r)
		if err != nil {
			result.Failed++
			p.stats.Record(stats.ResultFailed)
			p.log.WithFields(log.Fields{
				"key":   key,
				"error": err,
			}).Error("dump: failed to export key")
			return nil
		}

		result.Written++
		p.stats.Record(stats.ResultWritten)
		p.log.WithFields(log.Fields{
			"key":  key,
			"path": path,
		}).Debug("dump: key exported")
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("dump: failed to read %s: %w", prefix, err)
	}

	p.log.WithFields(log.Fields{
		"prefix":   prefix,
		"filter":   filter.Pattern(),
		"total":    result.Total,
		"filtered": result.Filtered,
		"written":  result.Written,
		"failed":   result.Failed,
		"output":   p.outputDir,
	}).Info("dump: finished")

	return result, nil
}

func (p *Processor) export(ctx context.Context, r *types.Record) (string, error) {
	path, err := keypath.PathOf(p.outputDir, r.String())
	if err != nil {
		return "", err
	}

	decoded, err := p.codec.Decode(ctx, bytes.NewReader(r.Value))
	if err != nil {
		return "", err
	}
	if len(bytes.TrimSpace(decoded)) == 0 {
		return "", codecs.ErrEmptyOutput
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, decoded, 0644); err != nil {
		return "", err
	}
	return path, nil
}
