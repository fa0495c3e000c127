/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package testmodels holds a small sample domain used by tests and the
// catalogdump command. Entity types live in the entities sub-package so the
// catalog's naming convention picks them up; the types here exercise the
// marker and non-entity paths.
package testmodels

import (
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/suparena/entitybind/catalog"
)

// RootModule is the module path passed to catalog discovery in tests
const RootModule = "github.com/suparena/entitybind/datastore/testmodels"

func init() {
	catalog.RegisterCandidate[RatingSystem]()
	catalog.RegisterCandidate[Warehouse]()
}

// RatingSystem is a plain model outside the entities area; it is not an entity.
type RatingSystem struct {

	// Timestamp when the rating system was created.
	// Required: true
	// Format: date-time
	CreatedAt *strfmt.DateTime `json:"CreatedAt"`

	// A description of the rating system.
	// Required: true
	Description *string `json:"Description"`

	// Unique identifier for the rating system.
	// Required: true
	ID *string `json:"Id"`

	// Name of the rating system.
	// Required: true
	Name *string `json:"Name"`

	// site Url
	SiteURL string `json:"SiteUrl,omitempty"`
}

// Warehouse opts into the catalog through the Entity marker.
type Warehouse struct {
	Code     string    `entity:"key" dynamodbav:"Code"`
	Region   string    `dynamodbav:"Region"`
	Capacity int       `dynamodbav:"Capacity"`
	Manager  uuid.UUID `dynamodbav:"Manager"`
}

// EntityTable implements catalog.Entity
func (Warehouse) EntityTable() string {
	return "warehouses"
}
