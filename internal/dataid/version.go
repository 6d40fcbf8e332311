// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package dataid

import (
	"errors"
	"fmt"
	"time"
)

// IssuedLayout is how the issued timestamp is written: UTC with second precision
const IssuedLayout = "2006-01-02T15:04:05Z"

// Returned when an entity cannot be turned into a document
type ValidationError struct {
	// target uri of the entity, or as much of it as is known
	Entity  string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s for %s: %s", e.Field, e.Entity, e.Message)
}

// Text fields shared by groups and versions
type Documentation struct {
	Title       string
	Abstract    string
	Description string
	// optional; only written when set
	Label   string
	Comment string
	// when set, text fields are written as language tagged literals
	Language string
}

// A single release of an artifact and the files it contains
type DatasetVersion struct {
	Coordinates
	Documentation
	License string
	// WebID of the publisher; optional
	Publisher string
	Issued    time.Time
	Files     []FileDescriptor
	// @context of the document; DefaultContext when empty
	Context string
}

// NewDatasetVersion returns a version issued now
func NewDatasetVersion(coords Coordinates, docs Documentation, license string, files []FileDescriptor) *DatasetVersion {
	return &DatasetVersion{
		Coordinates:   coords,
		Documentation: docs,
		License:       license,
		Issued:        time.Now(),
		Files:         files,
	}
}

// TargetURI is where the version document is PUT
func (v *DatasetVersion) TargetURI() string {
	return v.VersionURI()
}

func (v *DatasetVersion) IssuedString() string {
	return v.Issued.UTC().Format(IssuedLayout)
}

// Validate reports every missing field and any two files that
// would end up with the same distribution identifier.
// The description is optional and written as an empty string
func (v *DatasetVersion) Validate() error {
	entity := v.VersionURI()
	var errs []error
	missing := func(field, value string) {
		if value == "" {
			errs = append(errs, &ValidationError{Entity: entity, Field: field, Message: "cannot be empty"})
		}
	}
	missing("base uri", v.BaseURI)
	missing("account", v.Account)
	missing("group", v.Group)
	missing("artifact", v.Artifact)
	missing("version", v.Version)
	missing("title", v.Title)
	missing("abstract", v.Abstract)
	missing("license", v.License)

	if v.Issued.IsZero() {
		errs = append(errs, &ValidationError{Entity: entity, Field: "issued", Message: "timestamp is not set"})
	}
	if len(v.Files) == 0 {
		errs = append(errs, &ValidationError{Entity: entity, Field: "files", Message: "a version needs at least one file"})
	}

	seen := make(map[string]string, len(v.Files))
	for _, file := range v.Files {
		suffix := file.IdentifierSuffix()
		if first, ok := seen[suffix]; ok {
			errs = append(errs, &ValidationError{
				Entity:  entity,
				Field:   "content variants",
				Message: fmt.Sprintf("%s and %s both resolve to the distribution %q", first, file.SourceURL(), suffix),
			})
			continue
		}
		seen[suffix] = file.SourceURL()
	}

	return errors.Join(errs...)
}
