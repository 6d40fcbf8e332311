// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package columns

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/knakk/rdf"
	"github.com/lod-geoss/databus/internal/common"
	"github.com/lod-geoss/databus/internal/dataid"
	log "github.com/sirupsen/logrus"
)

// an in memory index of triples by subject and predicate
type graph map[string]map[string][]rdf.Term

func newGraph(triples []rdf.Triple) graph {
	g := graph{}
	for _, triple := range triples {
		subject := common.TermKey(triple.Subj)
		if g[subject] == nil {
			g[subject] = map[string][]rdf.Term{}
		}
		predicate := triple.Pred.String()
		g[subject][predicate] = append(g[subject][predicate], triple.Obj)
	}
	return g
}

func (g graph) objects(subject rdf.Term, predicate string) []rdf.Term {
	return g[common.TermKey(subject)][predicate]
}

// first object as a plain string
func (g graph) value(subject rdf.Term, predicate string) string {
	objects := g.objects(subject, predicate)
	if len(objects) == 0 {
		return ""
	}
	return termValue(objects[0])
}

func termValue(term rdf.Term) string {
	switch t := term.(type) {
	case rdf.IRI:
		return t.String()
	case rdf.Literal:
		return t.String()
	default:
		return common.TermKey(term)
	}
}

// members returns the objects of predicate; objects that are
// rdf lists are expanded into their items
func (g graph) members(subject rdf.Term, predicate string) []rdf.Term {
	var out []rdf.Term
	for _, object := range g.objects(subject, predicate) {
		if len(g.objects(object, predFirst)) == 0 {
			out = append(out, object)
			continue
		}
		node := object
		for seen := map[string]bool{}; node != nil && !seen[common.TermKey(node)]; {
			seen[common.TermKey(node)] = true
			out = append(out, g.objects(node, predFirst)...)
			rest := g.objects(node, predRest)
			if len(rest) == 0 || termValue(rest[0]) == rdfNil {
				break
			}
			node = rest[0]
		}
	}
	return out
}

// columnsFromTriples walks file -> csvw:table -> csvw:tableSchema -> csvw:column
func columnsFromTriples(triples []rdf.Triple, identifier string) (Columns, error) {
	g := newGraph(triples)
	file, err := rdf.NewIRI(identifier)
	if err != nil {
		return nil, fmt.Errorf("identifier %s is not an iri: %w", identifier, err)
	}

	result := Columns{}
	for _, table := range g.objects(file, predTable) {
		for _, schema := range g.objects(table, predTableSchema) {
			for _, col := range g.members(schema, predColumn) {
				column := Column{
					Label:       g.value(col, predLabel),
					Description: g.value(col, predDescription),
					Unit:        g.value(col, predUnit),
					Datatype:    g.value(col, predDatatype),
					About:       g.value(col, predAbout),
				}
				if !column.complete() {
					log.Debugf("column %s of %s is missing annotations; ignoring it", common.TermKey(col), identifier)
					continue
				}
				result[column.Label] = column
			}
		}
	}
	if len(result) == 0 {
		return nil, &NotAnnotatedError{Identifier: identifier}
	}
	return result, nil
}

// TurtleSource reads the turtle document MOSS publishes for each identifier
type TurtleSource struct {
	HTTPClient *http.Client
	// derives the document url from an identifier
	DocumentURI func(dataid.DistributionIdentifier) string
}

func (s TurtleSource) Columns(ctx context.Context, id dataid.DistributionIdentifier) (Columns, error) {
	uri := s.DocumentURI(id)
	log.Infof("Loading column metadata from %s", uri)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/turtle")
	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", uri, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("failed to fetch %s: status %d: %s", uri, resp.StatusCode, string(body))
	}

	triples, err := common.DecodeTriples(resp.Body, rdf.Turtle)
	if err != nil {
		return nil, fmt.Errorf("metadata at %s is not valid turtle: %w", uri, err)
	}
	return columnsFromTriples(triples, id.Raw)
}
