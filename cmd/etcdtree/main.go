package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	kingpin "github.com/alecthomas/kingpin/v2"
	"github.com/google/uuid"

	"github.com/keel-hq/etcdtree/approvals"
	"github.com/keel-hq/etcdtree/constants"
	"github.com/keel-hq/etcdtree/dump"
	"github.com/keel-hq/etcdtree/importer"
	"github.com/keel-hq/etcdtree/internal/config"
	"github.com/keel-hq/etcdtree/internal/stats"
	"github.com/keel-hq/etcdtree/preflight"
	"github.com/keel-hq/etcdtree/version"

	log "github.com/sirupsen/logrus"
)

type flags struct {
	config      *string
	inCluster   *bool
	kubeconfig  *string
	namespace   *string
	selector    *string
	container   *string
	codec       *string
	out         *string
	prefix      *string
	metricsFile *string
	debug       *bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ver := version.GetVersion()

	app := kingpin.New("etcdtree", "Export the etcd store of a Kubernetes cluster to a file tree and write edited files back.")
	f := &flags{
		config:      app.Flag("config", "path to TOML config file").Envar(constants.EnvConfigFile).String(),
		inCluster:   app.Flag("incluster", "use in cluster configuration").Bool(),
		kubeconfig:  app.Flag("kubeconfig", "path to kubeconfig (defaults to ~/.kube/config)").Envar(constants.EnvKubernetesConfig).String(),
		namespace:   app.Flag("namespace", "namespace of the etcd pod").String(),
		selector:    app.Flag("selector", "label selector of the etcd pod").String(),
		container:   app.Flag("container", "etcd pod container that has etcdctl").String(),
		codec:       app.Flag("codec", "codec binary (auger compatible) or 'builtin'").Envar(constants.EnvCodec).String(),
		out:         app.Flag("out", "dump output directory").String(),
		prefix:      app.Flag("prefix", "key prefix to dump").String(),
		metricsFile: app.Flag("metrics-file", "write run counters to this file in textfile format").Envar(constants.EnvMetricsFile).String(),
		debug:       app.Flag("debug", "enable debug logging").Envar(constants.EnvDebug).Bool(),
	}

	dumpCmd := app.Command("dump", "Export keys matching FILTER into the output directory.")
	filter := dumpCmd.Arg("filter", "glob pattern matched against keys").Default("*").String()

	putCmd := app.Command("putyaml", "Write FILENAME back to the key it was dumped from, an empty file deletes the key.")
	filename := putCmd.Arg("filename", "dumped file").Required().String()

	// selected when no command is given, prerequisites are still checked
	usageCmd := app.Command("usage", "Show usage.").Default().Hidden()

	app.UsageTemplate(kingpin.CompactUsageTemplate).Version(ver.Version)
	command, parseErr := app.Parse(args)

	if *f.debug {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(*f.config)
	if err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Error("main: failed to load config")
		return 1
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Error("main: invalid configuration")
		return 1
	}

	logger := log.WithFields(log.Fields{
		"run_id": uuid.New().String(),
	})
	logger.WithFields(log.Fields{
		"version":  ver.Version,
		"revision": ver.Revision,
		"codec":    cfg.Codec,
	}).Debug("etcdtree starting...")

	// files outside the anchor are refused before any cluster call
	if parseErr == nil && command == putCmd.FullCommand() {
		if _, _, err := importer.Resolve(*filename, cfg.Dump.Anchor); err != nil {
			logger.WithFields(log.Fields{
				"error": err,
				"file":  *filename,
			}).Error("main: putyaml failed")
			return 1
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	env := setup(cfg)

	preflightErr := preflight.Run(ctx, env.checks...)
	var missing *preflight.MissingError
	if errors.As(preflightErr, &missing) {
		logger.WithFields(log.Fields{
			"missing": missing.Names(),
		}).Error("main: prerequisites are missing")
		fmt.Fprintln(os.Stderr, missing)
	}

	if parseErr != nil {
		app.Usage(nil)
		fmt.Fprintf(os.Stderr, "\nerror: %s\n", parseErr)
		return 1
	}
	if command == usageCmd.FullCommand() {
		app.Usage(nil)
		return 1
	}
	if preflightErr != nil {
		return 1
	}

	st := stats.New()
	defer func() {
		if cfg.MetricsFile == "" {
			return
		}
		if err := st.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.WithFields(log.Fields{
				"error": err,
				"path":  cfg.MetricsFile,
			}).Error("main: failed to write metrics file")
		}
	}()

	switch command {
	case dumpCmd.FullCommand():
		p := dump.New(&dump.Opts{
			Store:       env.store,
			Codec:       env.codec,
			OutputDir:   cfg.Dump.OutputDir,
			Stats:       st,
			FieldLogger: logger.WithField("context", "dump"),
		})
		result, err := p.Run(ctx, cfg.Dump.Prefix, *filter)
		if err != nil {
			logger.WithFields(log.Fields{
				"error": err,
			}).Error("main: dump failed")
			return 1
		}
		fmt.Printf("exported %d keys to %s (%d failed, %d filtered out)\n", result.Written, cfg.Dump.OutputDir, result.Failed, result.Filtered)

	case putCmd.FullCommand():
		i := importer.New(&importer.Opts{
			Store:       env.store,
			Codec:       env.codec,
			Approver:    approvals.NewTerminalApprover(os.Stdin, os.Stdout),
			Anchor:      cfg.Dump.Anchor,
			Stats:       st,
			FieldLogger: logger.WithField("context", "putyaml"),
		})
		outcome, err := i.WriteOne(ctx, *filename)
		if err != nil {
			logger.WithFields(log.Fields{
				"error": err,
				"file":  *filename,
			}).Error("main: putyaml failed")
			return 1
		}
		fmt.Println(outcome.String())
	}

	return 0
}

// apply - flags that were given override config file values
func (f *flags) apply(cfg *config.Config) {
	if *f.inCluster {
		cfg.Kubernetes.InCluster = true
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Kubernetes.Kubeconfig, *f.kubeconfig)
	set(&cfg.Etcd.Namespace, *f.namespace)
	set(&cfg.Etcd.Selector, *f.selector)
	set(&cfg.Etcd.Container, *f.container)
	set(&cfg.Codec, *f.codec)
	set(&cfg.Dump.OutputDir, *f.out)
	set(&cfg.Dump.Prefix, *f.prefix)
	set(&cfg.MetricsFile, *f.metricsFile)
}
