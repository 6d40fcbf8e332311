// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/lod-geoss/databus/internal/archive"
	"github.com/lod-geoss/databus/internal/common"
	"github.com/lod-geoss/databus/internal/config"
	"github.com/lod-geoss/databus/internal/dataid"
	"github.com/lod-geoss/databus/internal/moss"
	"github.com/lod-geoss/databus/internal/oep"
	"github.com/lod-geoss/databus/internal/publish"
)

// Release every table of the chosen OEP schemas
type RegisterOepCmd struct {
	Archive bool `arg:"--archive" help:"store the published documents in the s3 bucket"`
}

func RegisterOep(ctx context.Context, cfg config.Config, args RegisterOepCmd) (oep.Report, error) {
	httpClient := common.NewHTTPClient(common.HTTPOptions{Timeout: cfg.Databus.HTTPTimeout})

	fetcher, err := dataid.NewFetcher(cfg.Fetch)
	if err != nil {
		return oep.Report{}, err
	}
	publisher, err := publish.NewClientFromConfig(cfg)
	if err != nil {
		return oep.Report{}, err
	}

	registrar := oep.NewRegistrar(cfg,
		oep.NewClient(cfg.Oep, httpClient),
		fetcher,
		publisher,
		moss.NewClient(cfg.Moss, httpClient),
	)

	if args.Archive {
		storage, err := archive.NewS3Storage(cfg.Minio)
		if err != nil {
			return oep.Report{}, err
		}
		if err := storage.MakeBucket(ctx); err != nil {
			return oep.Report{}, err
		}
		registrar.Archive = storage
	}

	return registrar.RegisterAll(ctx, cfg.Oep.Schemas)
}
