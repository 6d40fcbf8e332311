// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package columns

import (
	"context"
	"fmt"

	"github.com/lod-geoss/databus/internal/dataid"
	"github.com/lod-geoss/databus/internal/sparql"
)

const columnsQuery = `PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
PREFIX oeo: <http://openenergy-platform.org/ontology/oeo/>
PREFIX obo: <http://purl.obolibrary.org/obo/>
PREFIX csvw: <http://www.w3.org/ns/csvw#>
PREFIX dct: <http://purl.org/dc/terms/>
SELECT ?label ?description ?unit ?datatype ?about WHERE {
    <%s> csvw:table/csvw:tableSchema ?tableSchema .
    ?tableSchema csvw:column ?col .
    ?col rdfs:label ?label .
    ?col oeo:OEO_00040010 ?unit .
    ?col dct:description ?description .
    ?col csvw:datatype ?datatype .
    OPTIONAL { ?col obo:IAO_0000136 ?about . }
}`

// SparqlSource reads annotations from a store that holds submitted metadata
type SparqlSource struct {
	Client *sparql.Client
}

func (s SparqlSource) Columns(ctx context.Context, id dataid.DistributionIdentifier) (Columns, error) {
	if err := sparql.CheckIRI(id.Raw); err != nil {
		return nil, err
	}
	rows, err := s.Client.Select(ctx, fmt.Sprintf(columnsQuery, id.Raw))
	if err != nil {
		return nil, fmt.Errorf("failed to query columns of %s: %w", id, err)
	}

	result := Columns{}
	for _, row := range rows {
		column := Column{
			Label:       row["label"].Value,
			Description: row["description"].Value,
			Unit:        row["unit"].Value,
			Datatype:    row["datatype"].Value,
			About:       row["about"].Value,
		}
		if column.complete() {
			result[column.Label] = column
		}
	}
	if len(result) == 0 {
		return nil, &NotAnnotatedError{Identifier: id.Raw}
	}
	return result, nil
}
