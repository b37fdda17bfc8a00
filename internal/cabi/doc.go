// Package cabi holds every cgo allocation the library hands across the C
// boundary.
//
// # Design Principles
//
//  1. Isolation: together with cmd/libobjinfo this is the only package that
//     imports "C". Callers see unsafe.Pointer, never C types, so the helpers
//     can be shared between packages and driven from tests.
//
//  2. Shape-keyed frees: every allocator has exactly one matching free that
//     reconstructs the same allocation shape. There is no generic free.
//
//  3. Handles: Go values never cross the boundary. A runtime/cgo.Handle is
//     stored in a C-allocated cell and the cell address is the handle.
//
//  4. Nil tolerance: every free accepts NULL as a no-op.
//
// # Threading
//
// Handles may be borrowed concurrently. Freeing a handle while another call
// is still using it, or freeing it twice, is a caller error and is not
// detected.
package cabi
