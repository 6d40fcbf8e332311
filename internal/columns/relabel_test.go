// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package columns

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type failingResolver struct{}

func (failingResolver) Label(context.Context, string) (string, bool, error) {
	return "", false, errors.New("endpoint down")
}

func TestRelabel(t *testing.T) {
	annotations := Columns{
		"cap_mw": {Label: "cap_mw", Unit: "MW", Description: "Installed capacity", Datatype: "xsd:double", About: installedCapacity},
		"year":   {Label: "year", Unit: "a", Description: "Year", Datatype: "xsd:integer"},
	}
	labels := OntologyLabels{installedCapacity: "installed capacity"}

	t.Run("annotated columns take the ontology label", func(t *testing.T) {
		header, err := Relabel(context.Background(), []string{"year", "cap_mw", "notes"}, annotations, labels)
		require.NoError(t, err)
		require.Equal(t, []string{"year", "installed capacity", "notes"}, header)
	})

	t.Run("without a resolver the header is unchanged", func(t *testing.T) {
		header, err := Relabel(context.Background(), []string{"year", "cap_mw"}, annotations, nil)
		require.NoError(t, err)
		require.Equal(t, []string{"year", "cap_mw"}, header)
	})

	t.Run("clashing names get a suffix", func(t *testing.T) {
		header, err := Relabel(context.Background(), []string{"cap_mw", "installed capacity", "installed capacity_2"}, annotations, labels)
		require.NoError(t, err)
		require.Equal(t, []string{"installed capacity", "installed capacity_2", "installed capacity_2_2"}, header)
	})

	t.Run("resolver errors are returned", func(t *testing.T) {
		_, err := Relabel(context.Background(), []string{"cap_mw"}, annotations, failingResolver{})
		require.ErrorContains(t, err, "endpoint down")
	})
}
