// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package dataid

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gowebpki/jcs"
)

const (
	typeDataset  = "dataid:Dataset"
	typeGroup    = "dataid:Group"
	typePart     = "dataid:Part"
	typeProperty = "rdf:Property"

	contentVariantPrefix   = "dataid-cv:"
	contentVariantProperty = "dataid:contentVariant"

	noCompression = "none"
)

// A JSON-LD DataID document
type Document struct {
	Context string           `json:"@context"`
	Graph   []map[string]any `json:"@graph"`
}

// Canonical serializes the document with RFC 8785 canonical JSON
// so equal documents are equal byte for byte
func (d Document) Canonical() ([]byte, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize document: %w", err)
	}
	return canonical, nil
}

// Anything that can be published to the databus
type Entity interface {
	TargetURI() string
	Document() (Document, error)
}

func contextOrDefault(context string) string {
	if context == "" {
		return DefaultContext
	}
	return context
}

// writes a text field, language tagged when a language is set;
// empty optional fields are left out
func (d Documentation) text(value string) any {
	if d.Language == "" {
		return value
	}
	return map[string]any{"@value": value, "@language": d.Language}
}

func (d Documentation) fill(node map[string]any) {
	node["title"] = d.text(d.Title)
	node["abstract"] = d.text(d.Abstract)
	node["description"] = d.text(d.Description)
	if d.Label != "" {
		node["label"] = d.text(d.Label)
	}
	if d.Comment != "" {
		node["comment"] = d.text(d.Comment)
	}
}

// Document builds the group graph: a single dataid:Group node
func (g *Group) Document() (Document, error) {
	if err := g.Validate(); err != nil {
		return Document{}, err
	}
	node := map[string]any{
		"@id":   g.URI(),
		"@type": typeGroup,
	}
	g.Documentation.fill(node)
	return Document{Context: contextOrDefault(g.Context), Graph: []map[string]any{node}}, nil
}

// Document builds the version graph: the dataid:Dataset node followed by one
// property declaration per content variant key, in the order keys first appear
func (v *DatasetVersion) Document() (Document, error) {
	if err := v.Validate(); err != nil {
		return Document{}, err
	}

	distributions := make([]map[string]any, 0, len(v.Files))
	var variantKeys []string
	declared := make(map[string]bool)

	for _, file := range v.Files {
		suffix := file.IdentifierSuffix()
		part := map[string]any{
			"@id":             v.DistributionURI(suffix),
			"@type":           typePart,
			"file":            v.FileURI(suffix),
			"formatExtension": file.FormatExtension(),
			"compression":     noCompression,
			"downloadURL":     file.SourceURL(),
			"byteSize":        strconv.FormatInt(file.ByteSize(), 10),
			"sha256sum":       file.SHA256(),
			"hasVersion":      v.Version,
		}
		for _, cv := range file.contentVariants {
			part[contentVariantPrefix+cv.Key] = cv.Value
			if !declared[cv.Key] {
				declared[cv.Key] = true
				variantKeys = append(variantKeys, cv.Key)
			}
		}
		distributions = append(distributions, part)
	}

	dataset := map[string]any{
		"@id":          v.DatasetIDURI(),
		"@type":        typeDataset,
		"hasVersion":   v.Version,
		"issued":       v.IssuedString(),
		"license":      map[string]any{"@id": v.License},
		"version":      v.VersionURI(),
		"artifact":     v.ArtifactURI(),
		"group":        v.GroupURI(),
		"distribution": distributions,
	}
	v.Documentation.fill(dataset)
	if v.Publisher != "" {
		dataset["publisher"] = v.Publisher
	}

	graph := make([]map[string]any, 0, 1+len(variantKeys))
	graph = append(graph, dataset)
	for _, key := range variantKeys {
		graph = append(graph, map[string]any{
			"@id":                contentVariantPrefix + key,
			"@type":              typeProperty,
			"rdfs:subPropertyOf": map[string]any{"@id": contentVariantProperty},
		})
	}

	return Document{Context: contextOrDefault(v.Context), Graph: graph}, nil
}

// Render builds and canonicalizes the document of any entity
func Render(entity Entity) ([]byte, error) {
	doc, err := entity.Document()
	if err != nil {
		return nil, err
	}
	return doc.Canonical()
}
