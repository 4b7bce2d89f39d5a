// Package models defines server-side data models persisted in the store and
// the request shapes that feed them.
package models

import "github.com/shopspring/decimal"

func init() {
	// Amounts travel as JSON numbers, never as quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}
