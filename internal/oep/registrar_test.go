// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package oep

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/lod-geoss/databus/internal/archive"
	"github.com/lod-geoss/databus/internal/config"
	"github.com/lod-geoss/databus/internal/dataid"
	"github.com/lod-geoss/databus/internal/publish"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	entities []dataid.Entity
	err      error
}

// PublishAll renders each entity first, like the databus client does
func (p *recordingPublisher) PublishAll(_ context.Context, entities ...dataid.Entity) error {
	if p.err != nil {
		return p.err
	}
	for _, entity := range entities {
		if _, err := dataid.Render(entity); err != nil {
			return err
		}
	}
	p.entities = append(p.entities, entities...)
	return nil
}

type recordingMoss struct {
	submitted map[string][]byte
}

func (m *recordingMoss) Submit(_ context.Context, identifier string, metadata []byte) error {
	m.submitted[identifier] = metadata
	return nil
}

func testRegistrar(oep *fakeOEP, publisher Publisher, moss MetadataSubmitter) *Registrar {
	conf := config.Config{
		Databus: config.DatabusConfig{BaseURI: "https://energy.databus.dbpedia.org", Account: "lod"},
		Oep:     config.OepConfig{Group: "OEP", DownloadFormat: "csv"},
	}
	registrar := NewRegistrar(conf, oep.client("secret"), dataid.NewFetcherWithClient(oep.Client(), dataid.FetchAbort, 1), publisher, moss)
	registrar.now = func() time.Time { return time.Date(2021, 6, 22, 10, 0, 0, 0, time.UTC) }
	return registrar
}

func TestRegisterAll(t *testing.T) {
	oep := newFakeOEP(t)
	publisher := &recordingPublisher{}
	moss := &recordingMoss{submitted: map[string][]byte{}}
	registrar := testRegistrar(oep, publisher, moss)
	archiveDir := t.TempDir()
	registrar.Archive = archive.LocalStorage{Dir: archiveDir}

	report, err := registrar.RegisterAll(context.Background(), []string{"supply"})
	require.NoError(t, err)

	require.Equal(t, []string{"supply.wind_farms"}, report.Registered)
	require.Len(t, report.Skipped, 2)
	require.Equal(t, "empty_meta", report.Skipped[0].Table)
	require.Equal(t, "no_license", report.Skipped[1].Table)
	require.True(t, report.HasFailures())
	require.Len(t, report.Failed, 1)
	require.Equal(t, "broken_rows", report.Failed[0].Table)

	t.Run("group and version are published", func(t *testing.T) {
		require.Len(t, publisher.entities, 2)
		require.Equal(t, "https://energy.databus.dbpedia.org/lod/OEP", publisher.entities[0].TargetURI())
		version, ok := publisher.entities[1].(*dataid.DatasetVersion)
		require.True(t, ok)
		require.Equal(t, "https://energy.databus.dbpedia.org/lod/OEP/wind_farms/2021-06-22", version.TargetURI())
		require.Equal(t, "Wind farms", version.Title)
		require.Equal(t, "https://creativecommons.org/licenses/by/4.0/legalcode", version.License)
		require.Len(t, version.Files, 2)
		require.Equal(t, "variant=data.csv", version.Files[0].IdentifierSuffix())
		require.Equal(t, "variant=metadata.json", version.Files[1].IdentifierSuffix())
	})

	t.Run("oep metadata points at the artifact", func(t *testing.T) {
		var stored map[string]any
		require.NoError(t, json.Unmarshal(oep.updates["wind_farms"], &stored))
		require.Equal(t, "https://energy.databus.dbpedia.org/lod/OEP/wind_farms", stored["@id"])
		require.NotContains(t, oep.updates, "empty_meta")
	})

	t.Run("metadata is submitted to moss", func(t *testing.T) {
		submitted, ok := moss.submitted["https://energy.databus.dbpedia.org/lod/OEP/wind_farms"]
		require.True(t, ok)
		require.JSONEq(t, string(oep.updates["wind_farms"]), string(submitted))
	})

	t.Run("published documents are archived", func(t *testing.T) {
		exists, err := registrar.Archive.Exists(context.Background(), "dataid/lod/OEP/wind_farms/2021-06-22.jsonld")
		require.NoError(t, err)
		require.True(t, exists)
	})
}

func TestRegisterAllStopsOnAuthError(t *testing.T) {
	oep := newFakeOEP(t)
	publisher := &recordingPublisher{err: &publish.AuthError{Endpoint: "https://databus.dbpedia.org/auth", StatusCode: 401}}
	moss := &recordingMoss{submitted: map[string][]byte{}}

	report, err := testRegistrar(oep, publisher, moss).RegisterAll(context.Background(), []string{"supply"})
	var authErr *publish.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Empty(t, report.Registered)
	require.Empty(t, moss.submitted)
	require.Empty(t, oep.updates)
}

func TestRegisterAllNeedsToken(t *testing.T) {
	oep := newFakeOEP(t)
	registrar := testRegistrar(oep, &recordingPublisher{}, &recordingMoss{submitted: map[string][]byte{}})
	registrar.OEP = oep.client("")
	_, err := registrar.RegisterAll(context.Background(), []string{"supply"})
	require.ErrorContains(t, err, "OEP token")
}

func TestUnlistableSchemaIsRecorded(t *testing.T) {
	oep := newFakeOEP(t)
	registrar := testRegistrar(oep, &recordingPublisher{}, &recordingMoss{submitted: map[string][]byte{}})
	report, err := registrar.RegisterAll(context.Background(), []string{"secret", "empty"})
	require.NoError(t, err)
	require.Len(t, report.Failed, 2)
	require.Equal(t, "secret", report.Failed[0].Schema)
	require.Empty(t, report.Failed[0].Table)
}

func TestRegisterTableWithoutDescription(t *testing.T) {
	oep := newFakeOEP(t)
	publisher := &recordingPublisher{}
	moss := &recordingMoss{submitted: map[string][]byte{}}

	registrar := testRegistrar(oep, publisher, moss)
	require.IsType(t, archive.DiscardStorage{}, registrar.Archive)
	require.NoError(t, registrar.Register(context.Background(), "supply", "no_description"))

	require.Len(t, publisher.entities, 2)
	version, ok := publisher.entities[1].(*dataid.DatasetVersion)
	require.True(t, ok)
	require.Equal(t, "Wind farms", version.Title)
	require.Empty(t, version.Description)
	require.Contains(t, moss.submitted, "https://energy.databus.dbpedia.org/lod/OEP/no_description")
}
