/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package north holds a Depot type whose name collides with south.Depot
package north

type Depot struct {
	Name  string
	Stock int
}
