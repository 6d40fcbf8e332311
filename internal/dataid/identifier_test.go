// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package dataid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDistributionIdentifier(t *testing.T) {
	t.Run("five segments", func(t *testing.T) {
		id, err := ParseDistributionIdentifier("https://databus.dbpedia.org/denis/lod-geoss-example/api-example/2021-06-22/api-example_type=turbineData.json")
		require.NoError(t, err)
		require.Equal(t, "databus.dbpedia.org", id.Host)
		require.Equal(t, "denis", id.Publisher)
		require.Equal(t, "lod-geoss-example", id.Group)
		require.Equal(t, "api-example", id.Artifact)
		require.Equal(t, "2021-06-22", id.Version)
		require.Equal(t, "api-example_type=turbineData.json", id.Filename)
		require.Equal(t, "denis/lod-geoss-example/api-example/2021-06-22/api-example_type=turbineData.json", id.Path())
	})

	t.Run("filename keeps extra segments", func(t *testing.T) {
		id, err := ParseDistributionIdentifier("https://energy.databus.dbpedia.org/a/b/c/d/e/f.csv")
		require.NoError(t, err)
		require.Equal(t, "e/f.csv", id.Filename)
	})

	for _, bad := range []string{
		"https://databus.dbpedia.org/denis/group/artifact/version",
		"https://databus.dbpedia.org/denis//artifact/version/file",
		"ftp://databus.dbpedia.org/a/b/c/d/e",
		"not a uri",
		"",
	} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseDistributionIdentifier(bad)
			require.ErrorContains(t, err, "not a valid databus identifier")
		})
	}
}

func TestCoordinates(t *testing.T) {
	coords := Coordinates{BaseURI: "https://energy.databus.dbpedia.org/", Account: "lod-geoss", Group: "KSz_2050", Artifact: "KS95_emissions", Version: "2021-06-22"}
	require.Equal(t, "https://energy.databus.dbpedia.org/lod-geoss/KSz_2050", coords.GroupURI())
	require.Equal(t, "https://energy.databus.dbpedia.org/lod-geoss/KSz_2050/KS95_emissions", coords.ArtifactURI())
	require.Equal(t, "https://energy.databus.dbpedia.org/lod-geoss/KSz_2050/KS95_emissions/2021-06-22", coords.VersionURI())
	require.Equal(t, coords.VersionURI()+"#Dataset", coords.DatasetIDURI())
	require.Equal(t, coords.VersionURI()+"#type=x.csv", coords.DistributionURI("type=x.csv"))
	require.Equal(t, coords.VersionURI()+"/KS95_emissions_type=x.csv", coords.FileURI("type=x.csv"))
}
