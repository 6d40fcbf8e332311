// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package dataid

import "strings"

// DefaultContext is the @context of every document the databus accepts
const DefaultContext = "https://downloads.dbpedia.org/databus/context.jsonld"

// Every identifier of an entity is derived from these parts
// and never stored on its own
type Coordinates struct {
	BaseURI  string
	Account  string
	Group    string
	Artifact string
	Version  string
}

func (c Coordinates) base() string {
	return strings.TrimSuffix(c.BaseURI, "/")
}

func (c Coordinates) GroupURI() string {
	return c.base() + "/" + c.Account + "/" + c.Group
}

func (c Coordinates) ArtifactURI() string {
	return c.GroupURI() + "/" + c.Artifact
}

func (c Coordinates) VersionURI() string {
	return c.ArtifactURI() + "/" + c.Version
}

func (c Coordinates) DatasetIDURI() string {
	return c.VersionURI() + "#Dataset"
}

// The @id of a distribution inside the version document
func (c Coordinates) DistributionURI(suffix string) string {
	return c.VersionURI() + "#" + suffix
}

// The path the databus serves a distribution from
func (c Coordinates) FileURI(suffix string) string {
	return c.VersionURI() + "/" + c.Artifact + "_" + suffix
}
