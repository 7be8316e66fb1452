package domain

import "strings"

// SKU is a single stock-keeping unit: a coded item with a display name
// and a non-negative quantity balance.
type SKU struct {
	Code     string
	Name     string
	Quantity int
}

// NormalizeCode upper-cases a raw SKU code the way it is stored.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
