/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package entities is the sample entity area discovered by convention.
package entities

import (
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/suparena/entitybind/catalog"
	"github.com/suparena/entitybind/dynamic"
)

func init() {
	catalog.RegisterCandidate[Customer]()
	catalog.RegisterCandidate[Order]()
	catalog.RegisterCandidate[OrderLine]()
	catalog.RegisterCandidate[Product]()
	catalog.RegisterCandidate[Supplier]()
	catalog.RegisterCandidate[AuditEntry]()
}

// Customer places orders
type Customer struct {
	ID        uuid.UUID `entity:"key" dynamodbav:"ID"`
	Name      string    `validate:"required" dynamodbav:"Name"`
	Email     string    `validate:"omitempty,email" dynamodbav:"Email"`
	Tier      int       `dynamodbav:"Tier"`
	CreatedAt time.Time `dynamodbav:"CreatedAt"`
	Orders    []*Order  `dynamodbav:"-"`
}

// Order references its customer and lines
type Order struct {
	ID       uuid.UUID   `dynamodbav:"ID"`
	Customer *Customer   `dynamodbav:"-"`
	Lines    []OrderLine `dynamodbav:"-"`
	Notes    string      `dynamodbav:"Notes"`
	Total    float64     `dynamodbav:"Total"`
	Tags     []string    `dynamodbav:"Tags"`
	Status   string      `dynamodbav:"Status"`
	Placed   time.Time   `dynamodbav:"Placed"`
	Audit    *Audit      `dynamodbav:"-"`
}

// Audit is a value object, not an entity
type Audit struct {
	CreatedBy string
	Revision  int
}

// OrderLine is one product position of an order
type OrderLine struct {
	ID       uuid.UUID `dynamodbav:"ID"`
	Product  *Product  `dynamodbav:"-"`
	Quantity int       `dynamodbav:"Quantity"`
}

// Product can list related products through an observable collection
type Product struct {
	ID      uuid.UUID                   `dynamodbav:"ID"`
	Name    string                      `dynamodbav:"Name"`
	Price   float64                     `dynamodbav:"Price"`
	Related *dynamic.Collection[Product] `dynamodbav:"-"`
}

// Supplier has a read-only navigation that auto-include must leave alone
type Supplier struct {
	ID       uuid.UUID `dynamodbav:"ID"`
	Name     string    `dynamodbav:"Name"`
	Featured *Product  `entity:"readonly" dynamodbav:"-"`
	Catalog  []Product `dynamodbav:"-"`
	internal *Product
}

// AuditEntry has no key property
type AuditEntry struct {
	Message string
	At      strfmt.DateTime
}
