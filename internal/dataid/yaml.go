// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package dataid

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// The documentation of a group as written in group.yaml
type GroupDescription struct {
	// the group id; "id" is accepted when nested under a dataset description
	Group       string `yaml:"group"`
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Abstract    string `yaml:"abstract"`
	Description string `yaml:"description"`
	Label       string `yaml:"label"`
	Comment     string `yaml:"comment"`
	Language    string `yaml:"language"`
}

func (g GroupDescription) id() string {
	if g.Group != "" {
		return g.Group
	}
	return g.ID
}

// ToGroup turns the description into a group of the given account
func (g GroupDescription) ToGroup(baseURI, account string) *Group {
	return &Group{
		BaseURI: baseURI,
		Account: account,
		ID:      g.id(),
		Documentation: Documentation{
			Title:       g.Title,
			Abstract:    g.Abstract,
			Description: g.Description,
			Label:       g.Label,
			Comment:     g.Comment,
			Language:    g.Language,
		},
	}
}

// One entry of the files list. Either a [url, {variants}, extension]
// sequence or a mapping with url, content_variants and format keys
type FileEntry FileSource

func (f *FileEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		if len(node.Content) != 3 {
			return fmt.Errorf("line %d: a file entry needs [url, content variants, format], got %d items", node.Line, len(node.Content))
		}
		var cvs ContentVariants
		if err := node.Content[1].Decode(&cvs); err != nil {
			return err
		}
		*f = FileEntry{URL: node.Content[0].Value, ContentVariants: cvs, FormatExtension: node.Content[2].Value}
	case yaml.MappingNode:
		var entry struct {
			URL             string          `yaml:"url"`
			ContentVariants ContentVariants `yaml:"content_variants"`
			Format          string          `yaml:"format"`
		}
		if err := node.Decode(&entry); err != nil {
			return err
		}
		format := entry.Format
		if format == "" {
			format = formatFromURL(entry.URL)
		}
		*f = FileEntry{URL: entry.URL, ContentVariants: entry.ContentVariants, FormatExtension: format}
	default:
		return fmt.Errorf("line %d: a file entry must be a sequence or a mapping", node.Line)
	}

	if f.URL == "" {
		return fmt.Errorf("line %d: a file entry needs a url", node.Line)
	}
	if f.FormatExtension == "" {
		return fmt.Errorf("line %d: no format given for %s and none could be read from its path", node.Line, f.URL)
	}
	return nil
}

func formatFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(path.Ext(parsed.Path), ".")
}

// A dataset version as written in data.yaml
type VersionDescription struct {
	Group       string `yaml:"group"`
	Artifact    string `yaml:"artifact"`
	Version     string `yaml:"version"`
	Title       string `yaml:"title"`
	Abstract    string `yaml:"abstract"`
	Description string `yaml:"description"`
	License     string `yaml:"license"`
	Publisher   string `yaml:"publisher"`
	Label       string `yaml:"label"`
	Comment     string `yaml:"comment"`
	Language    string `yaml:"language"`
	// RFC 3339; the build time is used when empty
	Issued        string      `yaml:"issued"`
	Files         []FileEntry `yaml:"files"`
	Distributions []FileEntry `yaml:"distributions"`
}

// Sources lists the files to fetch in the order they were written
func (v VersionDescription) Sources() []FileSource {
	entries := append(append([]FileEntry(nil), v.Files...), v.Distributions...)
	sources := make([]FileSource, len(entries))
	for i, entry := range entries {
		sources[i] = FileSource(entry)
	}
	return sources
}

// ToDatasetVersion combines the description with the fetched files
func (v VersionDescription) ToDatasetVersion(baseURI, account string, files []FileDescriptor) (*DatasetVersion, error) {
	version := NewDatasetVersion(
		Coordinates{BaseURI: baseURI, Account: account, Group: v.Group, Artifact: v.Artifact, Version: v.Version},
		Documentation{
			Title:       v.Title,
			Abstract:    v.Abstract,
			Description: v.Description,
			Label:       v.Label,
			Comment:     v.Comment,
			Language:    v.Language,
		},
		v.License,
		files,
	)
	version.Publisher = v.Publisher
	if v.Issued != "" {
		issued, err := time.Parse(time.RFC3339, v.Issued)
		if err != nil {
			return nil, fmt.Errorf("issued must be an RFC 3339 timestamp: %w", err)
		}
		version.Issued = issued
	}
	return version, nil
}

// What a dataset description file holds. Group is only set when
// the file nests both the group and the dataset
type DatasetDescription struct {
	Version VersionDescription
	Group   *GroupDescription
}

func readYAML(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s must contain a yaml mapping", path)
	}
	return root.Content[0], nil
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// LoadGroupDescription reads a group.yaml file
func LoadGroupDescription(path string) (GroupDescription, error) {
	node, err := readYAML(path)
	if err != nil {
		return GroupDescription{}, err
	}
	var group GroupDescription
	if err := node.Decode(&group); err != nil {
		return GroupDescription{}, fmt.Errorf("failed to decode group in %s: %w", path, err)
	}
	return group, nil
}

// LoadDatasetDescription reads a data.yaml file, or a file
// with nested group and dataset mappings
func LoadDatasetDescription(path string) (DatasetDescription, error) {
	node, err := readYAML(path)
	if err != nil {
		return DatasetDescription{}, err
	}

	dataset := lookup(node, "dataset")
	if dataset == nil {
		var version VersionDescription
		if err := node.Decode(&version); err != nil {
			return DatasetDescription{}, fmt.Errorf("failed to decode dataset in %s: %w", path, err)
		}
		return DatasetDescription{Version: version}, nil
	}

	var desc DatasetDescription
	if err := dataset.Decode(&desc.Version); err != nil {
		return DatasetDescription{}, fmt.Errorf("failed to decode dataset in %s: %w", path, err)
	}
	if groupNode := lookup(node, "group"); groupNode != nil {
		var group GroupDescription
		if err := groupNode.Decode(&group); err != nil {
			return DatasetDescription{}, fmt.Errorf("failed to decode group in %s: %w", path, err)
		}
		desc.Group = &group
		if desc.Version.Group == "" {
			desc.Version.Group = group.id()
		}
	}
	return desc, nil
}
