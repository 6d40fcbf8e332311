// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

var _ DocumentStorage = LocalStorage{}

// LocalStorage writes documents below a directory on disk
type LocalStorage struct {
	Dir string
}

func (l LocalStorage) path(key string) (string, error) {
	if l.Dir == "" {
		return "", errors.New("archive directory is empty")
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes the archive directory", key)
	}
	return filepath.Join(l.Dir, cleaned), nil
}

func (l LocalStorage) Store(_ context.Context, key string, document []byte) error {
	dest, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	log.Tracef("saving document to %s", dest)
	return os.WriteFile(dest, document, 0644)
}

func (l LocalStorage) Get(_ context.Context, key string) ([]byte, error) {
	source, err := l.path(key)
	if err != nil {
		return nil, err
	}
	document, err := os.ReadFile(source)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return document, err
}

func (l LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	source, err := l.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(source)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
