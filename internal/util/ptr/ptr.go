// Package ptr provides helpers for taking the address of literal values.
package ptr

// To returns a pointer to a copy of v.
func To[T any](v T) *T { return &v }
