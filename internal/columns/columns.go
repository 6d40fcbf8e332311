// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

// Package columns reads the column annotations submitted for a databus
// distribution and uses them to give a table human readable headers
package columns

import (
	"context"
	"fmt"

	"github.com/lod-geoss/databus/internal/dataid"
)

const (
	nsRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsRDFS = "http://www.w3.org/2000/01/rdf-schema#"
	nsCSVW = "http://www.w3.org/ns/csvw#"
	nsDCT  = "http://purl.org/dc/terms/"
	nsOEO  = "http://openenergy-platform.org/ontology/oeo/"
	nsOBO  = "http://purl.obolibrary.org/obo/"

	predTable       = nsCSVW + "table"
	predTableSchema = nsCSVW + "tableSchema"
	predColumn      = nsCSVW + "column"
	predDatatype    = nsCSVW + "datatype"
	predLabel       = nsRDFS + "label"
	predDescription = nsDCT + "description"
	// has unit
	predUnit = nsOEO + "OEO_00040010"
	// is about
	predAbout = nsOBO + "IAO_0000136"

	predFirst = nsRDF + "first"
	predRest  = nsRDF + "rest"
	rdfNil    = nsRDF + "nil"
)

// The annotation of a single table column
type Column struct {
	// the raw column name as it appears in the table header
	Label       string
	Description string
	Unit        string
	Datatype    string
	// ontology term the column is about; may be empty
	About string
}

// Columns maps raw column names to their annotation
type Columns map[string]Column

// Source finds the column annotations of a distribution
type Source interface {
	Columns(ctx context.Context, id dataid.DistributionIdentifier) (Columns, error)
}

// Only columns that carry a label, unit, description and datatype
// are considered annotated
func (c Column) complete() bool {
	return c.Label != "" && c.Unit != "" && c.Description != "" && c.Datatype != ""
}

// Returned when a source holds no usable annotations for an identifier
type NotAnnotatedError struct {
	Identifier string
}

func (e *NotAnnotatedError) Error() string {
	return fmt.Sprintf("no column annotations found for %s", e.Identifier)
}
