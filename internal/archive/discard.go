// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import "context"

var _ DocumentStorage = DiscardStorage{}

// DiscardStorage stores nothing; used when archiving is turned off
type DiscardStorage struct{}

func (DiscardStorage) Store(context.Context, string, []byte) error {
	return nil
}

func (DiscardStorage) Get(context.Context, string) ([]byte, error) {
	return nil, ErrNotFound
}

func (DiscardStorage) Exists(context.Context, string) (bool, error) {
	return false, nil
}
