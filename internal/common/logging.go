// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// InitLogging sets up the process wide logrus logger
// The level is set later by the cli once args are parsed
func InitLogging() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
	log.SetLevel(log.InfoLevel)
}
