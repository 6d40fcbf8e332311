// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package columns

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/knakk/rdf"
	"github.com/lod-geoss/databus/internal/common"
	"github.com/lod-geoss/databus/internal/sparql"
)

const DefaultLanguage = "en"

// LabelResolver finds the human readable label of an ontology term
type LabelResolver interface {
	// Label returns false when the term has no label in the wanted language
	Label(ctx context.Context, term string) (string, bool, error)
}

// OntologyLabels holds the labels of a loaded ontology in one language
type OntologyLabels map[string]string

// LoadOntologyLabels reads the rdfs:label of every subject in a turtle
// ontology, keeping only literals tagged with lang
func LoadOntologyLabels(r io.Reader, lang string) (OntologyLabels, error) {
	triples, err := common.DecodeTriples(r, rdf.Turtle)
	if err != nil {
		return nil, fmt.Errorf("failed to load ontology: %w", err)
	}
	labels := OntologyLabels{}
	for _, triple := range triples {
		if triple.Pred.String() != predLabel {
			continue
		}
		literal, ok := triple.Obj.(rdf.Literal)
		if !ok || !strings.EqualFold(literal.Lang(), lang) {
			continue
		}
		subject := termValue(triple.Subj)
		if _, seen := labels[subject]; !seen {
			labels[subject] = literal.String()
		}
	}
	return labels, nil
}

func (o OntologyLabels) Label(_ context.Context, term string) (string, bool, error) {
	label, ok := o[term]
	return label, ok, nil
}

const labelQuery = `PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
SELECT ?label WHERE {
    <%s> rdfs:label ?label .
    FILTER(LANG(?label) = "%s")
} LIMIT 1`

// SparqlLabels asks a sparql endpoint that holds the ontology
type SparqlLabels struct {
	Client *sparql.Client
	Lang   string
}

func (s SparqlLabels) Label(ctx context.Context, term string) (string, bool, error) {
	if err := sparql.CheckIRI(term); err != nil {
		return "", false, err
	}
	if strings.ContainsAny(s.Lang, "\"\\") {
		return "", false, fmt.Errorf("%q cannot be used as a language tag", s.Lang)
	}
	lang := s.Lang
	if lang == "" {
		lang = DefaultLanguage
	}
	rows, err := s.Client.Select(ctx, fmt.Sprintf(labelQuery, term, lang))
	if err != nil {
		return "", false, err
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0]["label"].Value, true, nil
}
