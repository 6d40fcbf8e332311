// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package dataid

import (
	"fmt"
	"net/url"
	"strings"
)

// The five path segments of a published distribution
// https://<host>/{publisher}/{group}/{artifact}/{version}/{filename}
type DistributionIdentifier struct {
	Raw       string
	Host      string
	Publisher string
	Group     string
	Artifact  string
	Version   string
	Filename  string
}

// ParseDistributionIdentifier splits a databus file identifier into its parts.
// The filename is everything after the version and may itself contain slashes
func ParseDistributionIdentifier(identifier string) (DistributionIdentifier, error) {
	parsed, err := url.Parse(identifier)
	if err != nil {
		return DistributionIdentifier{}, fmt.Errorf("not a valid databus identifier %q: %w", identifier, err)
	}
	if (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
		return DistributionIdentifier{}, fmt.Errorf("not a valid databus identifier %q: expected an http(s) uri", identifier)
	}

	segments := strings.SplitN(strings.TrimPrefix(parsed.Path, "/"), "/", 5)
	if len(segments) != 5 {
		return DistributionIdentifier{}, fmt.Errorf("not a valid databus identifier %q: expected publisher/group/artifact/version/filename", identifier)
	}
	for _, segment := range segments {
		if segment == "" {
			return DistributionIdentifier{}, fmt.Errorf("not a valid databus identifier %q: empty path segment", identifier)
		}
	}

	return DistributionIdentifier{
		Raw:       identifier,
		Host:      parsed.Host,
		Publisher: segments[0],
		Group:     segments[1],
		Artifact:  segments[2],
		Version:   segments[3],
		Filename:  segments[4],
	}, nil
}

// Path returns publisher/group/artifact/version/filename
func (d DistributionIdentifier) Path() string {
	return strings.Join([]string{d.Publisher, d.Group, d.Artifact, d.Version, d.Filename}, "/")
}

func (d DistributionIdentifier) String() string {
	return d.Raw
}
