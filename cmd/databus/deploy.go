// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"

	"github.com/lod-geoss/databus/internal/archive"
	"github.com/lod-geoss/databus/internal/config"
	"github.com/lod-geoss/databus/internal/dataid"
	"github.com/lod-geoss/databus/internal/publish"

	log "github.com/sirupsen/logrus"
)

// Build a group and a dataset version from yaml descriptions and publish them
type DeployCmd struct {
	Group   string `arg:"--group" help:"yaml description of the group; also published when set"`
	Dataset string `arg:"--dataset,required" help:"yaml description of the dataset version"`
	Archive bool   `arg:"--archive" help:"store the published documents in the s3 bucket"`
}

// buildEntities fetches every file of the dataset and returns the
// group, when one was described, followed by the version
func buildEntities(ctx context.Context, cfg config.Config, groupPath, datasetPath string) ([]dataid.Entity, error) {
	if datasetPath == "" {
		return nil, errors.New("a dataset description must be provided")
	}
	dataset, err := dataid.LoadDatasetDescription(datasetPath)
	if err != nil {
		return nil, err
	}

	groupDesc := dataset.Group
	if groupPath != "" {
		loaded, err := dataid.LoadGroupDescription(groupPath)
		if err != nil {
			return nil, err
		}
		groupDesc = &loaded
	}

	var entities []dataid.Entity
	if groupDesc != nil {
		group := groupDesc.ToGroup(cfg.Databus.BaseURI, cfg.Databus.Account)
		group.Context = cfg.Databus.DocumentContext
		if dataset.Version.Group == "" {
			dataset.Version.Group = group.ID
		}
		entities = append(entities, group)
	}

	fetcher, err := dataid.NewFetcher(cfg.Fetch)
	if err != nil {
		return nil, err
	}
	files, err := fetcher.FetchAll(ctx, dataset.Version.Sources())
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if file.FetchStatus() >= 400 {
			log.Warnf("%s describes the status %d response of %s", file.IdentifierSuffix(), file.FetchStatus(), file.SourceURL())
		}
	}
	version, err := dataset.Version.ToDatasetVersion(cfg.Databus.BaseURI, cfg.Databus.Account, files)
	if err != nil {
		return nil, err
	}
	version.Context = cfg.Databus.DocumentContext
	return append(entities, version), nil
}

func Deploy(ctx context.Context, cfg config.Config, args DeployCmd) error {
	entities, err := buildEntities(ctx, cfg, args.Group, args.Dataset)
	if err != nil {
		return err
	}

	// nothing is published unless every document renders
	for _, entity := range entities {
		if _, err := dataid.Render(entity); err != nil {
			return err
		}
	}

	publisher, err := publish.NewClientFromConfig(cfg)
	if err != nil {
		return err
	}
	if err := publisher.PublishAll(ctx, entities...); err != nil {
		return err
	}

	if args.Archive {
		storage, err := archive.NewS3Storage(cfg.Minio)
		if err != nil {
			return err
		}
		if err := storage.MakeBucket(ctx); err != nil {
			return err
		}
		if err := archive.StoreEntities(ctx, storage, entities...); err != nil {
			return err
		}
		log.Infof("Archived %d documents in bucket %s", len(entities), storage.Bucket)
	}
	return nil
}
