// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/lod-geoss/databus/internal/common"
	"github.com/lod-geoss/databus/internal/config"
	"github.com/lod-geoss/databus/internal/oep"
	"github.com/lod-geoss/databus/internal/opentelemetry"

	"github.com/alexflint/go-arg"
	log "github.com/sirupsen/logrus"
)

type DatabusArgs struct {
	// Subcommands that can be run
	Deploy      *DeployCmd      `arg:"subcommand:deploy" help:"build a group and dataset version and publish them to the databus"`
	Render      *RenderCmd      `arg:"subcommand:render" help:"build the dataid documents without publishing them"`
	RegisterOep *RegisterOepCmd `arg:"subcommand:register-oep" help:"release OEP tables to the databus and their metadata to MOSS"`
	Annotate    *AnnotateCmd    `arg:"subcommand:annotate" help:"submit a JSON-LD annotation for a databus file to MOSS"`
	Columns     *ColumnsCmd     `arg:"subcommand:columns" help:"rename the columns of a table using its MOSS annotations"`
	Test        *TestCmd        `arg:"subcommand:test" help:"check the databus credentials without publishing"`

	// Flags that can be set for config particular services / operations
	config.DatabusConfig
	config.AuthConfig
	config.FetchConfig
	config.MossConfig
	config.OepConfig
	config.SparqlConfig
	config.MinioConfig
	config.ContextConfig

	// Flags that can be set which affect all operations
	LogLevel     string            `arg:"--log-level" default:"INFO"`
	ContextMaps  map[string]string `arg:"--context-map" help:"context url to local file mapping; used when --cache is set"`
	UseOtel      bool              `arg:"--use-otel"`
	OtelEndpoint string            `arg:"--otel-endpoint" help:"OpenTelemetry endpoint"`
}

// ToStructuredConfig converts the args to a structured config
// that can be used for more config isolation
func (d DatabusArgs) ToStructuredConfig() config.Config {
	prefixes := make([]string, 0, len(d.ContextMaps))
	for prefix := range d.ContextMaps {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	contextMaps := make([]config.ContextMap, 0, len(prefixes))
	for _, prefix := range prefixes {
		contextMaps = append(contextMaps, config.ContextMap{Prefix: prefix, File: d.ContextMaps[prefix]})
	}

	return config.Config{
		Databus:     d.DatabusConfig,
		Auth:        d.AuthConfig,
		Fetch:       d.FetchConfig,
		Moss:        d.MossConfig,
		Oep:         d.OepConfig,
		Sparql:      d.SparqlConfig,
		Minio:       d.MinioConfig,
		Context:     d.ContextConfig,
		ContextMaps: contextMaps,
	}
}

type DatabusRunner struct {
	args DatabusArgs
}

func NewDatabusRunner(cliArgs []string) (DatabusRunner, error) {
	args := DatabusArgs{}
	parser, err := arg.NewParser(arg.Config{Program: "databus"}, &args)
	if err != nil {
		return DatabusRunner{}, err
	}
	if err := parser.Parse(cliArgs); err != nil {
		if errors.Is(err, arg.ErrHelp) {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		return DatabusRunner{}, err
	}
	if parser.Subcommand() == nil {
		parser.WriteHelp(os.Stderr)
		return DatabusRunner{}, errors.New("no subcommand provided")
	}
	return DatabusRunner{args: args}, nil
}

func (d DatabusRunner) subcommandName() string {
	switch {
	case d.args.Deploy != nil:
		return "deploy"
	case d.args.Render != nil:
		return "render"
	case d.args.RegisterOep != nil:
		return "register-oep"
	case d.args.Annotate != nil:
		return "annotate"
	case d.args.Columns != nil:
		return "columns"
	case d.args.Test != nil:
		return "test"
	default:
		return ""
	}
}

// Run executes the chosen subcommand. The report is only
// returned by register-oep
func (d DatabusRunner) Run(ctx context.Context) (*oep.Report, error) {
	level, err := log.ParseLevel(d.args.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", d.args.LogLevel, err)
	}
	log.SetLevel(level)

	if d.args.UseOtel || d.args.OtelEndpoint != "" {
		if d.args.OtelEndpoint == "" {
			d.args.OtelEndpoint = opentelemetry.DefaultTracingEndpoint
		}
		log.Infof("Starting opentelemetry traces and exporting to: %s", d.args.OtelEndpoint)
		if err := opentelemetry.InitTracer(ctx, d.args.OtelEndpoint); err != nil {
			return nil, err
		}
		defer opentelemetry.Shutdown(context.Background())
		span, spanCtx := opentelemetry.NewRootSpan(ctx, "databus_"+d.subcommandName())
		ctx = spanCtx
		defer span.End()
	}

	cfg := d.args.ToStructuredConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch {
	case d.args.Deploy != nil:
		return nil, Deploy(ctx, cfg, *d.args.Deploy)
	case d.args.Render != nil:
		return nil, Render(ctx, cfg, *d.args.Render, os.Stdout)
	case d.args.RegisterOep != nil:
		report, err := RegisterOep(ctx, cfg, *d.args.RegisterOep)
		return &report, err
	case d.args.Annotate != nil:
		return nil, Annotate(ctx, cfg, *d.args.Annotate)
	case d.args.Columns != nil:
		return nil, RelabelColumns(ctx, cfg, *d.args.Columns)
	case d.args.Test != nil:
		return nil, Test(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown databus subcommand")
	}
}

func main() {
	common.InitLogging()

	runner, err := NewDatabusRunner(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	report, err := runner.Run(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	if report != nil && report.HasFailures() {
		log.Warn("At least one table could not be registered; check the log for details")
		// we use exit status 3 since it is not a fatal error that would exit 1
		// nor a user error that would exit 2
		const nonFatalError = 3
		log.Exit(nonFatalError)
	}
}
