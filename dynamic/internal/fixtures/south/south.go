/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package south holds a Depot type whose name collides with north.Depot
package south

type Depot struct {
	Name  string
	Stock int
}

func (d *Depot) Restock() {
	d.Stock += 10
}
