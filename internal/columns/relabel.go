// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package columns

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Relabel returns the new header for a table. A column whose annotation
// points at an ontology term with a label gets that label, an annotated
// column without one keeps its annotation label and unannotated columns
// are left alone. Clashing names get a numeric suffix
func Relabel(ctx context.Context, header []string, annotations Columns, resolver LabelResolver) ([]string, error) {
	renamed := make([]string, len(header))
	for i, raw := range header {
		renamed[i] = raw
		column, ok := annotations[raw]
		if !ok {
			log.Debugf("column %q has no annotation", raw)
			continue
		}
		renamed[i] = column.Label
		if column.About == "" || resolver == nil {
			continue
		}
		label, found, err := resolver.Label(ctx, column.About)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve the label of %s: %w", column.About, err)
		}
		if found && label != "" {
			renamed[i] = label
		}
	}
	return uniqueNames(renamed), nil
}

func uniqueNames(names []string) []string {
	taken := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		candidate := name
		for n := 2; taken[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}
