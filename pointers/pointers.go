// Package pointers provides tiny address-of helpers for populating the
// optional pointer fields on wallets and transaction options, where a
// literal cannot be taken by address inline.
package pointers

// To returns a pointer to v.
func To[T any](v T) *T {
	return &v
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}
