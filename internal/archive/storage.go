// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive keeps a copy of every rendered dataid document
package archive

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/lod-geoss/databus/internal/dataid"
	log "github.com/sirupsen/logrus"
)

// ErrNotFound is returned by Get when no document is stored under a key
var ErrNotFound = errors.New("document not found")

// DocumentStorage stores rendered documents by key
type DocumentStorage interface {
	Store(ctx context.Context, key string, document []byte) error
	// Get returns ErrNotFound for unknown keys
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Key returns dataid/<account>/<group>.jsonld for groups and
// dataid/<account>/<group>/<artifact>/<version>.jsonld for versions
func Key(entity dataid.Entity) (string, error) {
	switch e := entity.(type) {
	case *dataid.Group:
		return path.Join("dataid", e.Account, e.ID) + ".jsonld", nil
	case *dataid.DatasetVersion:
		return path.Join("dataid", e.Account, e.Group, e.Artifact, e.Version) + ".jsonld", nil
	default:
		return "", fmt.Errorf("cannot archive %T", entity)
	}
}

// StoreEntities renders each entity and stores it under its key
func StoreEntities(ctx context.Context, storage DocumentStorage, entities ...dataid.Entity) error {
	for _, entity := range entities {
		key, err := Key(entity)
		if err != nil {
			return err
		}
		document, err := dataid.Render(entity)
		if err != nil {
			return err
		}
		if err := storage.Store(ctx, key, document); err != nil {
			return fmt.Errorf("failed to archive %s: %w", entity.TargetURI(), err)
		}
		log.Debugf("archived %s as %s", entity.TargetURI(), key)
	}
	return nil
}
