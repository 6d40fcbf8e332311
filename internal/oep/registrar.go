// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package oep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lod-geoss/databus/internal/archive"
	"github.com/lod-geoss/databus/internal/config"
	"github.com/lod-geoss/databus/internal/dataid"
	"github.com/lod-geoss/databus/internal/opentelemetry"
	"github.com/lod-geoss/databus/internal/publish"
	log "github.com/sirupsen/logrus"
)

const (
	GroupTitle       = "OEP Group"
	GroupAbstract    = "OEP Group holds databus releases of OEP tables"
	GroupDescription = "Tables in the OEP group have been released automatically to databus " +
		"via the databus register-oep command; " +
		"additionally related metadata has been released to MOSS (https://moss.tools.dbpedia.org)."
)

// VersionLayout is the layout of the version a table is released under
const VersionLayout = "2006-01-02"

type FileFetcher interface {
	FetchAll(ctx context.Context, sources []dataid.FileSource) ([]dataid.FileDescriptor, error)
}

type Publisher interface {
	PublishAll(ctx context.Context, entities ...dataid.Entity) error
}

type MetadataSubmitter interface {
	Submit(ctx context.Context, identifier string, metadata []byte) error
}

// A table that was not released
type TableFailure struct {
	Schema string
	Table  string
	Err    error
}

// Report summarizes a registration run
type Report struct {
	// schema.table of every released table
	Registered []string
	Skipped    []TableFailure
	Failed     []TableFailure
}

// HasFailures is true when a table failed for a reason other than its metadata
func (r Report) HasFailures() bool {
	return len(r.Failed) > 0
}

// Registrar releases OEP tables as databus versions
type Registrar struct {
	OEP       *Client
	Fetcher   FileFetcher
	Publisher Publisher
	Moss      MetadataSubmitter
	// receives a copy of every published document
	Archive archive.DocumentStorage

	BaseURI string
	Account string
	Group   string
	// format the table rows are downloaded in
	Format  string
	Context string

	now func() time.Time
}

func NewRegistrar(conf config.Config, oepClient *Client, fetcher FileFetcher, publisher Publisher, moss MetadataSubmitter) *Registrar {
	return &Registrar{
		OEP:       oepClient,
		Fetcher:   fetcher,
		Publisher: publisher,
		Moss:      moss,
		Archive:   archive.DiscardStorage{},
		BaseURI:   conf.Databus.BaseURI,
		Account:   conf.Databus.Account,
		Group:     conf.Oep.Group,
		Format:    conf.Oep.DownloadFormat,
		Context:   conf.Databus.DocumentContext,
		now:       time.Now,
	}
}

func (r *Registrar) group() *dataid.Group {
	return &dataid.Group{
		BaseURI: r.BaseURI,
		Account: r.Account,
		ID:      r.Group,
		Documentation: dataid.Documentation{
			Title:       GroupTitle,
			Abstract:    GroupAbstract,
			Description: GroupDescription,
		},
		Context: r.Context,
	}
}

// sources are the table rows and the table metadata
func (r *Registrar) sources(schema, table string) ([]dataid.FileSource, error) {
	data, err := dataid.NewContentVariants("variant", "data")
	if err != nil {
		return nil, err
	}
	metadata, err := dataid.NewContentVariants("variant", "metadata")
	if err != nil {
		return nil, err
	}
	format := r.Format
	if format == "" {
		format = "csv"
	}
	return []dataid.FileSource{
		{URL: r.OEP.RowsURL(schema, table, format), ContentVariants: data, FormatExtension: format},
		{URL: r.OEP.MetaURL(schema, table), ContentVariants: metadata, FormatExtension: "json"},
	}, nil
}

// Register releases a single table: publish the group and a version of
// the table, point the OEP metadata at the databus artifact and submit
// the metadata to MOSS
func (r *Registrar) Register(ctx context.Context, schema, table string) error {
	span, ctx := opentelemetry.SubSpanFromCtxWithName(ctx, "register_"+schema+"."+table)
	defer span.End()

	meta, err := r.OEP.TableMeta(ctx, schema, table)
	if err != nil {
		return err
	}
	if err := ValidateMetadata(meta); err != nil {
		return err
	}

	sources, err := r.sources(schema, table)
	if err != nil {
		return err
	}
	files, err := r.Fetcher.FetchAll(ctx, sources)
	if err != nil {
		return err
	}

	now := r.now()
	coords := dataid.Coordinates{
		BaseURI:  r.BaseURI,
		Account:  r.Account,
		Group:    r.Group,
		Artifact: table,
		Version:  now.Format(VersionLayout),
	}
	version := dataid.NewDatasetVersion(coords, dataid.Documentation{
		Title:       meta.Title(),
		Abstract:    meta.Abstract(),
		Description: meta.Description(),
	}, meta.License(), files)
	version.Issued = now
	version.Context = r.Context

	group := r.group()
	if err := r.Publisher.PublishAll(ctx, group, version); err != nil {
		return err
	}
	if err := archive.StoreEntities(ctx, r.Archive, group, version); err != nil {
		log.Warnf("published %s but could not archive it: %v", version.TargetURI(), err)
	}

	artifact := coords.ArtifactURI()
	updated, err := meta.WithID(artifact)
	if err != nil {
		return err
	}
	if err := r.OEP.UpdateMetadata(ctx, schema, table, updated); err != nil {
		return err
	}
	return r.Moss.Submit(ctx, artifact, updated)
}

// RegisterAll releases every table of the given schemas in order.
// Tables with unusable metadata are skipped; authentication failures
// stop the run; any other failure is recorded and the run continues
func (r *Registrar) RegisterAll(ctx context.Context, schemas []string) (Report, error) {
	var report Report
	if !r.OEP.HasToken() {
		return report, errors.New("an OEP token is required to register tables")
	}
	if len(schemas) == 0 {
		schemas = Schemas
	}

	for _, schema := range schemas {
		tables, err := r.OEP.Tables(ctx, schema)
		if err != nil {
			log.Errorf("could not list tables of schema %s: %v", schema, err)
			report.Failed = append(report.Failed, TableFailure{Schema: schema, Err: err})
			continue
		}

		for _, table := range tables {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			err := r.Register(ctx, schema, table)
			if err == nil {
				report.Registered = append(report.Registered, schema+"."+table)
				continue
			}

			var metadataErr *MetadataError
			var authErr *publish.AuthError
			switch {
			case errors.As(err, &metadataErr):
				log.Warnf("%v; skipping registration for table '%s.%s'", err, schema, table)
				report.Skipped = append(report.Skipped, TableFailure{Schema: schema, Table: table, Err: err})
			case errors.As(err, &authErr):
				return report, fmt.Errorf("stopping registration at '%s.%s': %w", schema, table, err)
			default:
				log.Errorf("failed to register table '%s.%s': %v", schema, table, err)
				report.Failed = append(report.Failed, TableFailure{Schema: schema, Table: table, Err: err})
			}
		}
	}

	log.Infof("Registered %d tables, skipped %d, %d failed", len(report.Registered), len(report.Skipped), len(report.Failed))
	return report, nil
}
