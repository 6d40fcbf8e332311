// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lod-geoss/databus/internal/common/projectpath"
	"github.com/lod-geoss/databus/internal/config"

	"github.com/piprate/json-gold/ld"
	log "github.com/sirupsen/logrus"
)

// NewJsonldProcessor builds the JSON-LD processor and sets the options object
// used when expanding documents to RDF
func NewJsonldProcessor(cache bool, contextMaps []config.ContextMap) (*ld.JsonLdProcessor, *ld.JsonLdOptions, error) {
	processor := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")

	if cache {
		// the fallback loader is used for any context
		// that is not in the preloaded mapping
		fallbackLoader := ld.NewDefaultDocumentLoader(NewHTTPClient(HTTPOptions{Retries: 3}))

		prefixToFilePath := make(map[string]string)
		for _, contextMap := range contextMaps {
			// relative paths are tried from the working directory, then the project root
			path := contextMap.File
			if !filepath.IsAbs(path) && !fileExists(path) {
				path = filepath.Join(projectpath.Root, path)
			}
			if !fileExists(path) {
				return nil, nil, fmt.Errorf("context file at %s does not exist or could not be accessed", path)
			}
			prefixToFilePath[contextMap.Prefix] = path
		}

		cachingLoader := ld.NewCachingDocumentLoader(fallbackLoader)
		if err := cachingLoader.PreloadWithMapping(prefixToFilePath); err != nil {
			return nil, nil, err
		}
		options.DocumentLoader = cachingLoader
	}

	options.ProcessingMode = ld.JsonLd_1_1
	options.Format = "application/nquads"

	return processor, options, nil
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Errorf("error checking file existence: %v", err)
		}
		return false
	}
	return !info.IsDir()
}

// JsonldToNQ expands a JSON-LD document and serializes it as N-Quads
func JsonldToNQ(jsonld []byte, processor *ld.JsonLdProcessor, options *ld.JsonLdOptions) (string, error) {
	var deserialized interface{}
	if err := json.Unmarshal(jsonld, &deserialized); err != nil {
		return "", fmt.Errorf("document is not valid json: %w", err)
	}

	nquads, err := processor.ToRDF(deserialized, options)
	if err != nil {
		return "", fmt.Errorf("error transforming JSON-LD document to RDF: %w", err)
	}

	asString, ok := nquads.(string)
	if !ok {
		return "", fmt.Errorf("unexpected RDF serialization of type %T", nquads)
	}
	return asString, nil
}
