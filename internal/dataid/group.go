// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package dataid

import "errors"

// A namespace that several artifacts of one account share
type Group struct {
	BaseURI string
	Account string
	ID      string
	Documentation
	Context string
}

func (g *Group) coordinates() Coordinates {
	return Coordinates{BaseURI: g.BaseURI, Account: g.Account, Group: g.ID}
}

func (g *Group) URI() string {
	return g.coordinates().GroupURI()
}

// TargetURI is where the group document is PUT
func (g *Group) TargetURI() string {
	return g.URI()
}

func (g *Group) Validate() error {
	entity := g.URI()
	var errs []error
	required := [][2]string{
		{"base uri", g.BaseURI},
		{"account", g.Account},
		{"group id", g.ID},
		{"title", g.Title},
		{"abstract", g.Abstract},
		{"description", g.Description},
	}
	for _, field := range required {
		if field[1] == "" {
			errs = append(errs, &ValidationError{Entity: entity, Field: field[0], Message: "cannot be empty"})
		}
	}
	return errors.Join(errs...)
}
