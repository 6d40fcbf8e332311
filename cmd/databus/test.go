// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/lod-geoss/databus/internal/config"
	"github.com/lod-geoss/databus/internal/publish"

	log "github.com/sirupsen/logrus"
)

// Check that the databus credentials can be used
type TestCmd struct{}

func Test(ctx context.Context, cfg config.Config) error {
	publisher, err := publish.NewClientFromConfig(cfg)
	if err != nil {
		return err
	}
	if err := publisher.CheckCredentials(ctx); err != nil {
		return err
	}
	log.Infof("%s credentials for %s are usable", cfg.Auth.Scheme, cfg.Databus.BaseURI)
	return nil
}
