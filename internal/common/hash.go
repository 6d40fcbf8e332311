// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// CopyAndHash copies source into destination and returns the hex
// sha256 of the copied bytes along with the number of bytes copied.
// A tee is used so the source is only read once
func CopyAndHash(destination io.Writer, source io.Reader) (sha256sum string, size int64, err error) {
	hashDestination := sha256.New()
	tee := io.TeeReader(source, hashDestination)
	size, err = io.Copy(destination, tee)
	if err != nil {
		return "", size, err
	}
	return hex.EncodeToString(hashDestination.Sum(nil)), size, nil
}

// SHA256Hex returns the hex encoded sha256 digest of data
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
