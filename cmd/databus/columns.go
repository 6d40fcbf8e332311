// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/lod-geoss/databus/internal/columns"
	"github.com/lod-geoss/databus/internal/common"
	"github.com/lod-geoss/databus/internal/config"
	"github.com/lod-geoss/databus/internal/dataid"
	"github.com/lod-geoss/databus/internal/moss"
	"github.com/lod-geoss/databus/internal/sparql"

	log "github.com/sirupsen/logrus"
)

// Rename the columns of a table after the annotations of its databus file
type ColumnsCmd struct {
	Identifier string `arg:"positional,required" help:"databus identifier of the annotated file"`
	Table      string `arg:"--table,required" help:"url or path of the csv or json table"`
	Out        string `arg:"--out,required" help:"csv file the relabelled table is written to"`
	Source     string `arg:"--source" help:"where annotations are read from (moss | sparql)" default:"moss"`
	Ontology   string `arg:"--ontology" help:"turtle ontology to take labels from; the sparql endpoint is asked when empty"`
	Lang       string `arg:"--lang" help:"language of the ontology labels" default:"en"`
}

func annotationSource(cfg config.Config, name string, httpClient *http.Client) (columns.Source, error) {
	switch name {
	case "moss", "":
		mossClient := moss.NewClient(cfg.Moss, httpClient)
		return columns.TurtleSource{HTTPClient: httpClient, DocumentURI: mossClient.MetadataDocumentURI}, nil
	case "sparql":
		return columns.SparqlSource{Client: sparql.NewClient(cfg.Sparql, httpClient)}, nil
	default:
		return nil, fmt.Errorf("unknown annotation source %q", name)
	}
}

func labelResolver(cfg config.Config, args ColumnsCmd, httpClient *http.Client) (columns.LabelResolver, error) {
	if args.Ontology == "" {
		return columns.SparqlLabels{Client: sparql.NewClient(cfg.Sparql, httpClient), Lang: args.Lang}, nil
	}
	file, err := os.Open(args.Ontology)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return columns.LoadOntologyLabels(file, args.Lang)
}

func RelabelColumns(ctx context.Context, cfg config.Config, args ColumnsCmd) error {
	id, err := dataid.ParseDistributionIdentifier(args.Identifier)
	if err != nil {
		return err
	}
	httpClient := common.NewHTTPClient(common.HTTPOptions{Timeout: cfg.Databus.HTTPTimeout})

	source, err := annotationSource(cfg, args.Source, httpClient)
	if err != nil {
		return err
	}
	annotations, err := source.Columns(ctx, id)
	if err != nil {
		return err
	}
	log.Infof("Found annotations for %d columns of %s", len(annotations), id)

	tablePath := args.Table
	if strings.HasPrefix(tablePath, "http://") || strings.HasPrefix(tablePath, "https://") {
		dir, err := os.MkdirTemp("", "databus-table-")
		if err != nil {
			return err
		}
		defer func() { _ = os.RemoveAll(dir) }()
		if tablePath, err = columns.DownloadTable(ctx, httpClient, args.Table, dir); err != nil {
			return err
		}
	}

	table, err := columns.OpenTable(ctx, tablePath, columns.FormatOf(args.Table))
	if err != nil {
		return err
	}
	defer func() { _ = table.Close() }()

	header, err := table.Header(ctx)
	if err != nil {
		return err
	}
	resolver, err := labelResolver(cfg, args, httpClient)
	if err != nil {
		return err
	}
	renamed, err := columns.Relabel(ctx, header, annotations, resolver)
	if err != nil {
		return err
	}
	if err := table.ExportCSV(ctx, renamed, args.Out); err != nil {
		return err
	}
	log.Infof("Wrote %s with columns %s", args.Out, strings.Join(renamed, ", "))
	return nil
}
