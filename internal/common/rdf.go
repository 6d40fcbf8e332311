// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/knakk/rdf"
)

// DecodeTriples reads every triple from r in the given serialization
func DecodeTriples(r io.Reader, format rdf.Format) ([]rdf.Triple, error) {
	dec := rdf.NewTripleDecoder(r, format)
	triples, err := dec.DecodeAll()
	if err != nil {
		return nil, fmt.Errorf("error decoding triples: %w", err)
	}
	return triples, nil
}

// NQuadsToTriples converts default graph N-Quads, as produced by the JSON-LD
// processor, into N-Triples so they can be placed inside a named graph.
// Quads that already carry a graph name are rejected
func NQuadsToTriples(nquads string) (string, error) {
	if strings.TrimSpace(nquads) == "" {
		return "", errors.New("no triples to convert; quads were empty")
	}

	triples, err := DecodeTriples(strings.NewReader(nquads), rdf.NTriples)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for _, triple := range triples {
		buf.WriteString(triple.Serialize(rdf.NTriples))
	}
	return buf.String(), nil
}

// TermKey returns a string that uniquely identifies a term
// regardless of its kind; blank nodes keep their label
func TermKey(term rdf.Term) string {
	return term.Serialize(rdf.NTriples)
}
