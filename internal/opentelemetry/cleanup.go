// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package opentelemetry

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Shutdown flushes any remaining spans and stops the provider.
// Safe to call when tracing was never initialized
func Shutdown(ctx context.Context) {
	if TracerProvider == nil {
		return
	}
	if err := TracerProvider.ForceFlush(ctx); err != nil {
		log.Errorf("Error flushing traces; is the collector for traces running?; %v", err)
	}
	if err := TracerProvider.Shutdown(ctx); err != nil {
		log.Errorf("Error shutting down tracer provider: %v", err)
	}
	TracerProvider = nil
	Tracer = nil
}
