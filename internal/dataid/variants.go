// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package dataid

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// A single key/value tag that tells sibling distributions apart
type ContentVariant struct {
	Key   string
	Value string
}

// An ordered set of content variants. Keys are unique and
// iteration follows insertion order
type ContentVariants []ContentVariant

// NewContentVariants builds a set from alternating keys and values
func NewContentVariants(keyValues ...string) (ContentVariants, error) {
	if len(keyValues)%2 != 0 {
		return nil, fmt.Errorf("content variants need key/value pairs, got %d strings", len(keyValues))
	}
	var cvs ContentVariants
	for i := 0; i < len(keyValues); i += 2 {
		if err := cvs.Add(keyValues[i], keyValues[i+1]); err != nil {
			return nil, err
		}
	}
	return cvs, nil
}

// Add appends a variant; a key may only appear once
func (cvs *ContentVariants) Add(key, value string) error {
	if key == "" {
		return fmt.Errorf("content variant key cannot be empty")
	}
	if _, ok := cvs.Get(key); ok {
		return fmt.Errorf("duplicate content variant key %q", key)
	}
	*cvs = append(*cvs, ContentVariant{Key: key, Value: value})
	return nil
}

func (cvs ContentVariants) Get(key string) (string, bool) {
	for _, cv := range cvs {
		if cv.Key == key {
			return cv.Value, true
		}
	}
	return "", false
}

func (cvs ContentVariants) Keys() []string {
	keys := make([]string, len(cvs))
	for i, cv := range cvs {
		keys[i] = cv.Key
	}
	return keys
}

// Suffix renders k1=v1_..._kn=vn.<ext>, the string that identifies
// a distribution inside its version
func (cvs ContentVariants) Suffix(formatExtension string) string {
	parts := make([]string, len(cvs))
	for i, cv := range cvs {
		parts[i] = cv.Key + "=" + cv.Value
	}
	return strings.Join(parts, "_") + "." + formatExtension
}

func (cvs ContentVariants) clone() ContentVariants {
	if cvs == nil {
		return nil
	}
	out := make(ContentVariants, len(cvs))
	copy(out, cvs)
	return out
}

// UnmarshalYAML decodes a mapping while keeping the order
// the keys were written in
func (cvs *ContentVariants) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: content variants must be a mapping", node.Line)
	}
	out := make(ContentVariants, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: content variant %q must have a scalar value", value.Line, key.Value)
		}
		if err := out.Add(key.Value, value.Value); err != nil {
			return fmt.Errorf("line %d: %w", key.Line, err)
		}
	}
	*cvs = out
	return nil
}
