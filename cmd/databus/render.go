// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lod-geoss/databus/internal/archive"
	"github.com/lod-geoss/databus/internal/common"
	"github.com/lod-geoss/databus/internal/config"
	"github.com/lod-geoss/databus/internal/dataid"

	log "github.com/sirupsen/logrus"
)

// Build the documents a deploy would publish without sending them
type RenderCmd struct {
	Group    string `arg:"--group" help:"yaml description of the group"`
	Dataset  string `arg:"--dataset,required" help:"yaml description of the dataset version"`
	Out      string `arg:"--out" help:"directory the documents are written to; printed when empty"`
	Validate bool   `arg:"--validate" help:"expand every document to N-Quads to check it is valid JSON-LD"`
}

func Render(ctx context.Context, cfg config.Config, args RenderCmd, stdout io.Writer) error {
	entities, err := buildEntities(ctx, cfg, args.Group, args.Dataset)
	if err != nil {
		return err
	}

	if args.Validate {
		processor, options, err := common.NewJsonldProcessor(cfg.Context.Cache, cfg.ContextMaps)
		if err != nil {
			return err
		}
		for _, entity := range entities {
			document, err := dataid.Render(entity)
			if err != nil {
				return err
			}
			nquads, err := common.JsonldToNQ(document, processor, options)
			if err != nil {
				return fmt.Errorf("%s is not valid JSON-LD: %w", entity.TargetURI(), err)
			}
			if strings.TrimSpace(nquads) == "" {
				return fmt.Errorf("%s expands to no triples; check its @context", entity.TargetURI())
			}
			log.Infof("%s expands to %d quads", entity.TargetURI(), strings.Count(nquads, "\n"))
		}
	}

	if args.Out != "" {
		return archive.StoreEntities(ctx, archive.LocalStorage{Dir: args.Out}, entities...)
	}
	for _, entity := range entities {
		document, err := dataid.Render(entity)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(stdout, "%s\n", document); err != nil {
			return err
		}
	}
	return nil
}
