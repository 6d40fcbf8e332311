// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lod-geoss/databus/internal/common"
	"github.com/lod-geoss/databus/internal/config"
	"github.com/lod-geoss/databus/internal/dataid"
	"github.com/lod-geoss/databus/internal/moss"
	"github.com/lod-geoss/databus/internal/sparql"

	log "github.com/sirupsen/logrus"
)

// Submit an annotation document for a databus file
type AnnotateCmd struct {
	Identifier  string `arg:"positional,required" help:"databus identifier the annotation describes"`
	File        string `arg:"positional,required" help:"JSON-LD annotation document"`
	MirrorGraph bool   `arg:"--mirror-graph" help:"also replace the identifier's named graph in the sparql store with the annotation"`
}

func Annotate(ctx context.Context, cfg config.Config, args AnnotateCmd) error {
	if _, err := dataid.ParseDistributionIdentifier(args.Identifier); err != nil {
		return err
	}
	annotation, err := os.ReadFile(args.File)
	if err != nil {
		return err
	}

	httpClient := common.NewHTTPClient(common.HTTPOptions{Timeout: cfg.Databus.HTTPTimeout})
	if err := moss.NewClient(cfg.Moss, httpClient).Submit(ctx, args.Identifier, annotation); err != nil {
		return err
	}
	log.Infof("Submitted %s for %s", args.File, args.Identifier)

	if !args.MirrorGraph {
		return nil
	}
	processor, options, err := common.NewJsonldProcessor(cfg.Context.Cache, cfg.ContextMaps)
	if err != nil {
		return err
	}
	nquads, err := common.JsonldToNQ(annotation, processor, options)
	if err != nil {
		return err
	}
	triples, err := common.NQuadsToTriples(nquads)
	if err != nil {
		return fmt.Errorf("annotation %s cannot be mirrored: %w", args.File, err)
	}
	store := sparql.NewClient(cfg.Sparql, httpClient)
	existed, err := store.GraphExists(ctx, args.Identifier)
	if err != nil {
		return err
	}
	if err := store.UpsertNamedGraph(ctx, args.Identifier, triples); err != nil {
		return err
	}
	if existed {
		log.Infof("Replaced the graph of %s in the sparql store", args.Identifier)
	} else {
		log.Infof("Created the graph of %s in the sparql store", args.Identifier)
	}
	return nil
}
